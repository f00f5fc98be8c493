// Package config provides configuration loading and structs for the bizsearch server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/bizsearch/internal/ranking"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that supply secrets when the YAML leaves them empty.
const (
	EnvSerpAPIKey    = "SERPAPI_KEY"
	EnvOpenRouterKey = "OPENROUTER_API_KEY"
	EnvPostgresDSN   = "BIZSEARCH_DSN"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Ranking RankingConfig `yaml:"ranking"`
	Query   QueryConfig   `yaml:"query"`
	Online  OnlineConfig  `yaml:"online"`
	Chat    ChatConfig    `yaml:"chat"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig selects the catalog backend and where misses are logged.
type StorageConfig struct {
	Driver         string `yaml:"driver"` // sqlite or postgres
	DatabasePath   string `yaml:"database_path"`
	DSN            string `yaml:"dsn"`
	MissingLogPath string `yaml:"missing_log_path"`
}

// RankingConfig holds ranking weights and the optional learned model.
type RankingConfig struct {
	ranking.RankingConfig `yaml:",inline"`
	MaxCandidates         int    `yaml:"max_candidates"`
	ModelPath             string `yaml:"model_path"`
	WatchModel            bool   `yaml:"watch_model"`
}

// QueryConfig extends the intent vocabulary of the classifier.
type QueryConfig struct {
	IntentTerms []string `yaml:"intent_terms"`
}

// UnmarshalYAML decodes the ranking section over the default weights, so keys
// left out keep their defaults and an explicit 0 stays 0.
func (c *RankingConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain RankingConfig
	p := plain{RankingConfig: *ranking.DefaultRankingConfig()}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*c = RankingConfig(p)
	return nil
}

// OnlineConfig holds the external search provider settings.
type OnlineConfig struct {
	Enabled        bool   `yaml:"enabled"`
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// ChatConfig holds the dialogue assistant settings.
type ChatConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
}

// Load reads and parses the config file at path, loads a .env file next to it
// (or in the working directory) when present, applies environment secrets,
// expands paths, and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	configDir := filepath.Dir(path)
	if err := loadDotEnv(configDir); err != nil {
		return nil, err
	}
	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)

	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.MissingLogPath = expandPath(cfg.Storage.MissingLogPath, configDir)
	if cfg.Ranking.ModelPath != "" {
		cfg.Ranking.ModelPath = expandPath(cfg.Ranking.ModelPath, configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv loads .env files without overriding variables already set.
func loadDotEnv(configDir string) error {
	seen := map[string]bool{}
	for _, p := range []string{filepath.Join(configDir, ".env"), ".env"} {
		abs, err := filepath.Abs(p)
		if err != nil || seen[abs] {
			continue
		}
		seen[abs] = true
		if _, err := os.Stat(abs); err != nil {
			continue
		}
		if err := godotenv.Load(abs); err != nil {
			return fmt.Errorf("failed to load %s: %w", abs, err)
		}
	}
	return nil
}

// ApplyEnv fills empty secrets from the environment.
func ApplyEnv(cfg *Config) {
	if cfg.Online.APIKey == "" {
		cfg.Online.APIKey = os.Getenv(EnvSerpAPIKey)
	}
	if cfg.Chat.APIKey == "" {
		cfg.Chat.APIKey = os.Getenv(EnvOpenRouterKey)
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = os.Getenv(EnvPostgresDSN)
	}
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite":
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn (or %s) is required for the postgres driver", EnvPostgresDSN)
		}
	default:
		return fmt.Errorf("unknown storage driver %q; use sqlite or postgres", c.Storage.Driver)
	}
	if c.Ranking.WatchModel && c.Ranking.ModelPath == "" {
		return fmt.Errorf("ranking.watch_model requires ranking.model_path")
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
