// Package utils provides shared process-level helpers.
package utils

import "go.uber.org/zap"

// ServiceName is attached to every log entry.
const ServiceName = "bizsearch"

// NewLogger returns a zap logger. When debug is true, uses development config
// (human-readable, debug level); otherwise uses production config (JSON, info level).
func NewLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.InitialFields = map[string]interface{}{"service": ServiceName}
	return cfg.Build()
}
