package config

import (
	"github.com/hyperjump/bizsearch/internal/chat"
	"github.com/hyperjump/bizsearch/internal/online"
	"github.com/hyperjump/bizsearch/internal/storage"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/bizsearch/data/catalog.db"
	}
	if cfg.Storage.MissingLogPath == "" {
		cfg.Storage.MissingLogPath = "/usr/local/var/bizsearch/data/missing_queries.xlsx"
	}
	cfg.Ranking.RankingConfig.ApplyDefaults()
	if cfg.Ranking.MaxCandidates <= 0 || cfg.Ranking.MaxCandidates > storage.MaxLookupRows {
		cfg.Ranking.MaxCandidates = storage.MaxLookupRows
	}
	if cfg.Online.BaseURL == "" {
		cfg.Online.BaseURL = online.DefaultBaseURL
	}
	if cfg.Online.TimeoutSeconds <= 0 {
		cfg.Online.TimeoutSeconds = int(online.DefaultTimeout.Seconds())
	}
	if cfg.Chat.BaseURL == "" {
		cfg.Chat.BaseURL = chat.DefaultBaseURL
	}
	if cfg.Chat.Model == "" {
		cfg.Chat.Model = chat.DefaultModel
	}
}
