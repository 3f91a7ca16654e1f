package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr   string `json:"addr" yaml:"addr" toml:"addr"`
	DBPath string `json:"db_path" yaml:"db_path" toml:"db_path"`

	// Token budget tuning.
	CeilingTokens   int `json:"ceiling_tokens" yaml:"ceiling_tokens" toml:"ceiling_tokens"`
	SafetyBuffer    int `json:"safety_buffer" yaml:"safety_buffer" toml:"safety_buffer"`
	MinimumResponse int `json:"minimum_response" yaml:"minimum_response" toml:"minimum_response"`

	// Per-conversation concurrent session cap.
	MaxSessions int `json:"max_sessions" yaml:"max_sessions" toml:"max_sessions"`

	// Upstream generation service.
	LLMBaseURL string `json:"llm_base_url" yaml:"llm_base_url" toml:"llm_base_url"`
	LLMAPIKey  string `json:"llm_api_key" yaml:"llm_api_key" toml:"llm_api_key"`
	LLMModel   string `json:"llm_model" yaml:"llm_model" toml:"llm_model"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
