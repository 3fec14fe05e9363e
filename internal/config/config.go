// Package config loads settings from an optional YAML file, .env files and
// FPL_* environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/frosttechequities/FPL-chips-optimizer/internal/logger"
)

const EnvPrefix = "FPL"

// Load reads path (may be empty for defaults only). A .env next to the file
// and one in the working directory are loaded first; variables already set
// in the environment win over both.
func Load(path string) (*Config, error) {
	loadDotEnv(path)

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Names kept from earlier deployments.
	_ = v.BindEnv("server.api_key", "FPL_SERVER_API_KEY", "FPL_MCP_API_KEY")
	_ = v.BindEnv("llm.api_key", "FPL_LLM_API_KEY", "OPENAI_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.normalize()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotEnv(path string) {
	candidates := []string{".env"}
	if path != "" {
		candidates = append([]string{filepath.Join(filepath.Dir(path), ".env")}, candidates...)
	}
	seen := make(map[string]bool)
	for _, f := range candidates {
		abs, err := filepath.Abs(f)
		if err != nil || seen[abs] {
			continue
		}
		seen[abs] = true
		if _, err := os.Stat(abs); err != nil {
			continue
		}
		if err := godotenv.Load(abs); err != nil {
			logger.Warnf("[config] ignoring %s: %v", abs, err)
		}
	}
}

func (c *Config) normalize() {
	c.Server.APIKey = strings.TrimSpace(c.Server.APIKey)
	c.Server.MCPPath = strings.TrimSpace(c.Server.MCPPath)
	c.FPL.BaseURL = strings.TrimRight(strings.TrimSpace(c.FPL.BaseURL), "/")
	c.FPL.AuthCookie = strings.TrimSpace(c.FPL.AuthCookie)
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
}
