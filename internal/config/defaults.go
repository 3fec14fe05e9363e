package config

import (
	"github.com/spf13/viper"

	"github.com/frosttechequities/FPL-chips-optimizer/internal/recommend"
)

const (
	defaultServerAddr       = ":8080"
	defaultServerMCPPath    = "/mcp"
	defaultServerAuthHeader = "X-API-Key"
	defaultFPLBaseURL       = "https://fantasy.premierleague.com/api"
	defaultFPLUserAgent     = "fpl-chips-optimizer/1.0"
	defaultFPLRawRoot       = "data/raw"
	defaultFPLSleepMS       = 250
	defaultFixtureHorizon   = 5
	defaultCatalogMaxAge    = "1h"
	defaultSquadMaxAge      = "5m"
	defaultLLMBaseURL       = "https://api.openai.com/v1"
	defaultLLMModel         = "gpt-4o-mini"
	defaultLLMTimeout       = "30s"
	defaultLLMMaxRetries    = 2
	defaultLLMTemperature   = 0.2
	defaultChatTimeout      = "15s"
	defaultGWLookback       = 3
	defaultGWHorizon        = 5
	defaultLogLevel         = "info"
)

// setDefaults registers every key with viper, which is also what lets
// AutomaticEnv see FPL_* overrides for keys absent from the file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", defaultServerAddr)
	v.SetDefault("server.mcp_path", defaultServerMCPPath)
	v.SetDefault("server.auth_header", defaultServerAuthHeader)
	v.SetDefault("server.require_auth", true)
	v.SetDefault("server.api_key", "")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("fpl.base_url", defaultFPLBaseURL)
	v.SetDefault("fpl.user_agent", defaultFPLUserAgent)
	v.SetDefault("fpl.raw_root", defaultFPLRawRoot)
	v.SetDefault("fpl.sleep_ms", defaultFPLSleepMS)
	v.SetDefault("fpl.use_cache", true)
	v.SetDefault("fpl.auth_cookie", "")
	v.SetDefault("fpl.fixture_horizon", defaultFixtureHorizon)
	v.SetDefault("fpl.catalog_max_age", defaultCatalogMaxAge)
	v.SetDefault("fpl.squad_max_age", defaultSquadMaxAge)
	v.SetDefault("fpl.watch_cache", true)

	v.SetDefault("llm.enabled", true)
	v.SetDefault("llm.base_url", defaultLLMBaseURL)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", defaultLLMModel)
	v.SetDefault("llm.timeout", defaultLLMTimeout)
	v.SetDefault("llm.max_retries", defaultLLMMaxRetries)
	v.SetDefault("llm.temperature", defaultLLMTemperature)

	v.SetDefault("chat.timeout", defaultChatTimeout)
	v.SetDefault("chat.gameweek_lookback", defaultGWLookback)
	v.SetDefault("chat.gameweek_horizon", defaultGWHorizon)

	policy := recommend.DefaultPolicy()
	v.SetDefault("recommend.bench.fixtures", policy.Bench.Fixtures)
	v.SetDefault("recommend.bench.form", policy.Bench.Form)
	v.SetDefault("recommend.bench.value", policy.Bench.Value)
	v.SetDefault("recommend.bench.horizon", policy.Bench.Horizon)
	v.SetDefault("recommend.starter.fixtures", policy.Starter.Fixtures)
	v.SetDefault("recommend.starter.form", policy.Starter.Form)
	v.SetDefault("recommend.starter.value", policy.Starter.Value)
	v.SetDefault("recommend.starter.horizon", policy.Starter.Horizon)
	v.SetDefault("recommend.per_slot", policy.PerSlot)
	v.SetDefault("recommend.starter_limit", policy.StarterLimit)

	v.SetDefault("log.level", defaultLogLevel)
}
