package config

import "shaderbuild/internal/logging"

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level" toml:"level"`                               // debug, info, warn, error
	Format     string          `yaml:"format" toml:"format"`                             // console, json
	File       string          `yaml:"file,omitempty" toml:"file,omitempty"`             // empty = stderr
	Categories map[string]bool `yaml:"categories,omitempty" toml:"categories,omitempty"` // Per-category toggles

	// AuditFile receives one JSON line per compiler start/finish when set.
	AuditFile string `yaml:"audit_file,omitempty" toml:"audit_file,omitempty"`
}

// Options converts the config into logging.Options.
func (c LoggingConfig) Options() logging.Options {
	return logging.Options{
		Level:      c.Level,
		Format:     c.Format,
		File:       c.File,
		Categories: c.Categories,
	}
}
