package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config represents the application configuration
type Config struct {
	LLMProvider string          `json:"llm_provider"`
	UserID      string          `json:"user_id"`
	Providers   ProvidersConfig `json:"providers"`
	Store       StoreConfig     `json:"store"`
	LogLevel    string          `json:"log_level"`
	LogFormat   string          `json:"log_format"`
	LogFile     string          `json:"log_file"`
}

// ProvidersConfig holds per-provider settings.
type ProvidersConfig struct {
	Sim    SimConfig    `json:"sim"`
	OpenAI OpenAIConfig `json:"openai"`
	Google GoogleConfig `json:"google"`
}

// SimConfig holds the sim platform chat endpoint configuration.
type SimConfig struct {
	APIURL            string `json:"api_url"`
	SimID             string `json:"sim_id"`
	APIKey            string `json:"api_key"`
	WelcomeMessage    string `json:"welcome_message"`
	APITimeoutSeconds int    `json:"api_timeout_seconds"`
}

// OpenAIConfig holds the direct OpenAI API configuration.
type OpenAIConfig struct {
	APIKey            string  `json:"api_key"`
	APIURL            string  `json:"api_url"`
	Model             string  `json:"model"`
	Temperature       float64 `json:"temperature"`
	MaxTokens         int     `json:"max_tokens"`
	APITimeoutSeconds int     `json:"api_timeout_seconds"`
}

// GoogleConfig holds the Google AI (Gemini) configuration.
type GoogleConfig struct {
	APIKey            string  `json:"api_key"`
	Model             string  `json:"model"`
	Temperature       float64 `json:"temperature"`
	MaxTokens         int     `json:"max_tokens"`
	APITimeoutSeconds int     `json:"api_timeout_seconds"`
}

// StoreConfig selects and configures the conversation store backend.
type StoreConfig struct {
	Backend        string `json:"backend"` // "memory" or "rest"
	APIURL         string `json:"api_url"`
	APIKey         string `json:"api_key"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// Default returns a configuration with default values
func Default() Config {
	return Config{
		LLMProvider: "sim",
		UserID:      "",
		Providers: ProvidersConfig{
			Sim: SimConfig{
				APIURL:            "",
				SimID:             "",
				APIKey:            "",
				APITimeoutSeconds: 60,
			},
			OpenAI: OpenAIConfig{
				Model:             "gpt-4o",
				Temperature:       0.7,
				MaxTokens:         2000,
				APITimeoutSeconds: 30,
			},
			Google: GoogleConfig{
				Model:             "gemini-3-flash-preview",
				Temperature:       0.7,
				MaxTokens:         2000,
				APITimeoutSeconds: 60,
			},
		},
		Store: StoreConfig{
			Backend:        "memory",
			TimeoutSeconds: 10,
		},
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// Load loads configuration from the specified path
// If the file doesn't exist, creates one with default values
// Environment variables override config file values
func Load(configPath string) (Config, error) {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return Config{}, fmt.Errorf("failed to create config directory: %w", err)
	}

	var cfg Config
	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		cfg = Default()
		if err := Save(configPath, cfg); err != nil {
			return Config{}, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	return applyEnvironmentOverrides(cfg), nil
}

// applyEnvironmentOverrides applies SIMCHAT_* environment variables on top
// of the loaded config.
func applyEnvironmentOverrides(cfg Config) Config {
	if v := os.Getenv("SIMCHAT_PROVIDER"); v != "" {
		cfg.LLMProvider = strings.ToLower(v)
	}
	if v := os.Getenv("SIMCHAT_USER_ID"); v != "" {
		cfg.UserID = v
	}
	if v := os.Getenv("SIMCHAT_SIM_API_URL"); v != "" {
		cfg.Providers.Sim.APIURL = v
	}
	if v := os.Getenv("SIMCHAT_SIM_ID"); v != "" {
		cfg.Providers.Sim.SimID = v
	}
	if v := os.Getenv("SIMCHAT_SIM_API_KEY"); v != "" {
		cfg.Providers.Sim.APIKey = v
	}
	if v := os.Getenv("SIMCHAT_OPENAI_API_KEY"); v != "" {
		cfg.Providers.OpenAI.APIKey = v
	}
	if v := os.Getenv("SIMCHAT_GOOGLE_API_KEY"); v != "" {
		cfg.Providers.Google.APIKey = v
	}
	if v := os.Getenv("SIMCHAT_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("SIMCHAT_STORE_API_URL"); v != "" {
		cfg.Store.APIURL = v
	}
	if v := os.Getenv("SIMCHAT_STORE_API_KEY"); v != "" {
		cfg.Store.APIKey = v
	}
	if v := os.Getenv("SIMCHAT_LOG_LEVEL"); v != "" {
		level := strings.ToLower(v)
		switch level {
		case "trace", "debug", "info", "warn", "error":
			cfg.LogLevel = level
		}
	}
	return cfg
}

// Save saves the configuration to the specified path
func Save(configPath string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	switch c.LLMProvider {
	case "sim", "openai", "google":
	default:
		return fmt.Errorf("unsupported LLM provider: %s", c.LLMProvider)
	}

	if c.LLMProvider == "sim" {
		if strings.TrimSpace(c.Providers.Sim.APIURL) == "" {
			return fmt.Errorf("sim api_url is required (set in config file or SIMCHAT_SIM_API_URL)")
		}
		if strings.TrimSpace(c.Providers.Sim.SimID) == "" {
			return fmt.Errorf("sim_id is required (set in config file or SIMCHAT_SIM_ID)")
		}
	}

	switch c.Store.Backend {
	case "memory":
	case "rest":
		if strings.TrimSpace(c.Store.APIURL) == "" {
			return fmt.Errorf("store api_url is required for the rest backend")
		}
	default:
		return fmt.Errorf("unsupported store backend: %s", c.Store.Backend)
	}

	if c.Providers.OpenAI.Temperature < 0 || c.Providers.OpenAI.Temperature > 2 {
		return fmt.Errorf("openai temperature must be between 0 and 2, got: %f", c.Providers.OpenAI.Temperature)
	}
	if c.Providers.Google.Temperature < 0 || c.Providers.Google.Temperature > 2 {
		return fmt.Errorf("google temperature must be between 0 and 2, got: %f", c.Providers.Google.Temperature)
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".simchat/config.json"
	}
	return filepath.Join(homeDir, ".simchat", "config.json")
}
