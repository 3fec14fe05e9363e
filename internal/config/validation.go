package config

import (
	"fmt"
	"strings"

	"github.com/frosttechequities/FPL-chips-optimizer/internal/recommend"
)

func validate(c *Config) error {
	if err := c.FPL.validate(); err != nil {
		return err
	}
	if err := c.LLM.validate(); err != nil {
		return err
	}
	if err := c.Chat.validate(); err != nil {
		return err
	}
	if err := validatePolicy(c.Recommend); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug|info|warn|error", c.Log.Level)
	}
	return nil
}

// ValidateServer is checked only by the HTTP server, so tooling can run
// without an API key.
func (s ServerConfig) ValidateServer() error {
	if strings.TrimSpace(s.Addr) == "" {
		return fmt.Errorf("server.addr is required")
	}
	if !strings.HasPrefix(s.MCPPath, "/") {
		return fmt.Errorf("server.mcp_path must start with /")
	}
	if s.RequireAuth && strings.TrimSpace(s.APIKey) == "" {
		return fmt.Errorf("server.api_key is required (set FPL_MCP_API_KEY or server.require_auth=false)")
	}
	return nil
}

func (f FPLConfig) validate() error {
	if strings.TrimSpace(f.BaseURL) == "" {
		return fmt.Errorf("fpl.base_url is required")
	}
	if strings.TrimSpace(f.RawRoot) == "" {
		return fmt.Errorf("fpl.raw_root is required")
	}
	if f.SleepMS < 0 {
		return fmt.Errorf("fpl.sleep_ms must be >= 0")
	}
	if f.FixtureHorizon < 1 || f.FixtureHorizon > 10 {
		return fmt.Errorf("fpl.fixture_horizon must be between 1 and 10")
	}
	if f.CatalogMaxAge < 0 || f.SquadMaxAge < 0 {
		return fmt.Errorf("fpl max ages must be >= 0")
	}
	return nil
}

func (l LLMConfig) validate() error {
	if !l.Enabled {
		return nil
	}
	if strings.TrimSpace(l.Model) == "" {
		return fmt.Errorf("llm.model is required when llm.enabled")
	}
	if l.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be > 0")
	}
	if l.Temperature < 0 || l.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}
	return nil
}

func (c ChatConfig) validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("chat.timeout must be > 0")
	}
	if c.GameweekLookback < 0 || c.GameweekHorizon < 0 {
		return fmt.Errorf("chat gameweek lookback and horizon must be >= 0")
	}
	return nil
}

func validatePolicy(p recommend.Policy) error {
	for name, w := range map[string]recommend.Weights{"bench": p.Bench, "starter": p.Starter} {
		if w.Fixtures < 0 || w.Form < 0 || w.Value < 0 {
			return fmt.Errorf("recommend.%s weights must be >= 0", name)
		}
		if w.Fixtures+w.Form+w.Value == 0 {
			return fmt.Errorf("recommend.%s weights must not all be zero", name)
		}
	}
	if p.PerSlot < 1 {
		return fmt.Errorf("recommend.per_slot must be >= 1")
	}
	return nil
}
