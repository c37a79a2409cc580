// internal/config/config.go
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const appName = "arena"

// DefaultModels are offered when the config file names none
var DefaultModels = []string{"qwen3", "llama3.2", "gemma3", "deepseek-r1", "gpt-oss"}

type ServerConfig struct {
	Listen       string `yaml:"listen"`
	OllamaURL    string `yaml:"ollama_url"`
	APIKey       string `yaml:"api_key,omitempty"`
	ModelTimeout int    `yaml:"model_timeout"` // seconds
}

type ClientConfig struct {
	BackendURL    string `yaml:"backend_url"`
	RetryAttempts int    `yaml:"retry_attempts"`
	RetryDelay    int    `yaml:"retry_delay"` // milliseconds
	StatusTimeout int    `yaml:"status_timeout"` // seconds
}

type UIConfig struct {
	ShowThinking *bool `yaml:"show_thinking,omitempty"`
}

type Config struct {
	Server ServerConfig `yaml:"server"`
	Client ClientConfig `yaml:"client"`
	Models []string     `yaml:"models"`
	UI     UIConfig     `yaml:"ui"`
}

// Load reads the config file from the user config dir. A missing file
// yields the defaults.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config file at path
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	// Expand environment variables in config
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = "127.0.0.1:8001"
	}
	if cfg.Server.OllamaURL == "" {
		cfg.Server.OllamaURL = "http://127.0.0.1:11434/v1"
	}
	if cfg.Server.APIKey == "" {
		// Ollama ignores the key but the OpenAI client insists on one
		cfg.Server.APIKey = "ollama"
	}
	if cfg.Server.ModelTimeout == 0 {
		cfg.Server.ModelTimeout = 300
	}
	if cfg.Client.BackendURL == "" {
		cfg.Client.BackendURL = "http://127.0.0.1:8001"
	}
	if cfg.Client.RetryAttempts == 0 {
		cfg.Client.RetryAttempts = 3
	}
	if cfg.Client.RetryDelay == 0 {
		cfg.Client.RetryDelay = 1000
	}
	if cfg.Client.StatusTimeout == 0 {
		cfg.Client.StatusTimeout = 5
	}
	if len(cfg.Models) == 0 {
		cfg.Models = append([]string(nil), DefaultModels...)
	}
	if cfg.UI.ShowThinking == nil {
		show := true
		cfg.UI.ShowThinking = &show
	}
}

// ModelTimeout is the per-model generation limit
func (c *Config) ModelTimeout() time.Duration {
	return time.Duration(c.Server.ModelTimeout) * time.Second
}

// RetryDelay is the first backoff step of the HTTP client
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Client.RetryDelay) * time.Millisecond
}

// StatusTimeout bounds a model availability check
func (c *Config) StatusTimeout() time.Duration {
	return time.Duration(c.Client.StatusTimeout) * time.Second
}

// ShowThinking reports whether the thinking panes start expanded
func (c *Config) ShowThinking() bool {
	return c.UI.ShowThinking == nil || *c.UI.ShowThinking
}

// Path returns the config file location
func Path() string {
	configDir, err := os.UserConfigDir()
	if err != nil || configDir == "" {
		configDir = os.ExpandEnv("$HOME/.config")
	}
	return filepath.Join(configDir, appName, "config.yaml")
}

// LogPath returns where the TUI writes its log
func LogPath() string {
	dir, err := os.UserCacheDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, appName, appName+".log")
}
