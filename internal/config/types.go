package config

import (
	"time"

	"github.com/frosttechequities/FPL-chips-optimizer/internal/recommend"
)

// Config is the whole runtime configuration.
type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	FPL       FPLConfig        `mapstructure:"fpl"`
	LLM       LLMConfig        `mapstructure:"llm"`
	Chat      ChatConfig       `mapstructure:"chat"`
	Recommend recommend.Policy `mapstructure:"recommend"`
	Log       LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	MCPPath     string   `mapstructure:"mcp_path"`
	AuthHeader  string   `mapstructure:"auth_header"`
	RequireAuth bool     `mapstructure:"require_auth"`
	APIKey      string   `mapstructure:"api_key"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type FPLConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	UserAgent  string `mapstructure:"user_agent"`
	RawRoot    string `mapstructure:"raw_root"`
	SleepMS    int    `mapstructure:"sleep_ms"`
	UseCache   bool   `mapstructure:"use_cache"`
	AuthCookie string `mapstructure:"auth_cookie"`
	// FixtureHorizon is how many upcoming fixtures each player carries.
	FixtureHorizon int           `mapstructure:"fixture_horizon"`
	CatalogMaxAge  time.Duration `mapstructure:"catalog_max_age"`
	SquadMaxAge    time.Duration `mapstructure:"squad_max_age"`
	// WatchCache reloads the catalog when the raw bootstrap files change.
	WatchCache bool `mapstructure:"watch_cache"`
}

type LLMConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
	Temperature float64       `mapstructure:"temperature"`
}

type ChatConfig struct {
	// Timeout bounds answer generation for one request.
	Timeout          time.Duration `mapstructure:"timeout"`
	GameweekLookback int           `mapstructure:"gameweek_lookback"`
	GameweekHorizon  int           `mapstructure:"gameweek_horizon"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}
