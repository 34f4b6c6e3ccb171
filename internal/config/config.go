package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	exeDirCache string
)

// getExecutableDir returns the directory where the executable is located
func getExecutableDir() string {
	if exeDirCache != "" {
		return exeDirCache
	}
	execPath, err := os.Executable()
	if err != nil {
		exeDirCache = "."
		return exeDirCache
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		exeDirCache = "."
		return exeDirCache
	}
	exeDirCache = filepath.Dir(execPath)
	return exeDirCache
}

// Config is the top-level runtime configuration.
type Config struct {
	Storage    StorageConfig    `yaml:"storage,omitempty"`
	AI         AIConfig         `yaml:"ai,omitempty"`
	Prompt     PromptConfig     `yaml:"prompt,omitempty"`
	Automation AutomationConfig `yaml:"automation,omitempty"`
	Logging    LoggingConfig    `yaml:"logging,omitempty"`
}

// StorageConfig configures the sqlite database location.
type StorageConfig struct {
	Path string `yaml:"path,omitempty"`
}

// AIConfig configures the AI provider used for session turns.
type AIConfig struct {
	Provider    string  `yaml:"provider,omitempty"` // "openai" or "anthropic"
	APIKey      string  `yaml:"api_key,omitempty"`
	BaseURL     string  `yaml:"base_url,omitempty"`
	Model       string  `yaml:"model,omitempty"`
	Temperature float32 `yaml:"temperature,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`
}

// PromptConfig configures prompt assembly.
type PromptConfig struct {
	// MaxChunkDegree selects which documentation chunks are included:
	// 1 essential only, 2 adds important, 3 adds optional.
	MaxChunkDegree int `yaml:"max_chunk_degree,omitempty"`
	// IncludeAppState controls whether the app-state level is built.
	IncludeAppState *bool `yaml:"include_app_state,omitempty"`
	// MaxHistory caps how many transcript messages enter the prompt.
	MaxHistory int `yaml:"max_history,omitempty"`
}

// AutomationConfig configures the automation session scheduler.
type AutomationConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`
	// PollSchedule re-scans sessions for schedule changes (cron expression).
	PollSchedule string `yaml:"poll_schedule,omitempty"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
}

// ConfigPath returns the default config file path next to the executable.
func ConfigPath() string {
	return filepath.Join(getExecutableDir(), "zonal.yaml")
}

// Load reads the config file at path, applying defaults. An empty path uses
// the default location. A missing file is not an error; defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyDefaults()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the config to the given path.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = ConfigPath()
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) applyDefaults() {
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(getExecutableDir(), ".zonal", "zonal.db")
	}
	if c.AI.Provider == "" {
		c.AI.Provider = "anthropic"
	}
	if c.AI.MaxTokens <= 0 {
		c.AI.MaxTokens = 4096
	}
	if c.Prompt.MaxChunkDegree <= 0 {
		c.Prompt.MaxChunkDegree = 2
	}
	if c.Prompt.IncludeAppState == nil {
		v := true
		c.Prompt.IncludeAppState = &v
	}
	if c.Prompt.MaxHistory <= 0 {
		c.Prompt.MaxHistory = 200
	}
	if c.Automation.PollSchedule == "" {
		c.Automation.PollSchedule = "*/5 * * * *"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
