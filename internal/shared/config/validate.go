package config

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationIssue represents a single validation finding.
type ValidationIssue struct {
	Field   string
	Message string
}

// ValidationError aggregates every blocking issue found in a config.
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return "invalid config: " + strings.Join(parts, "; ")
}

// Validate reports blocking problems; it returns nil for a usable config.
func Validate(cfg Config) error {
	var issues []ValidationIssue
	add := func(field, msg string) {
		issues = append(issues, ValidationIssue{Field: field, Message: msg})
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		add("server.port", "must be between 1 and 65535")
	}
	if cfg.WhatsApp.InitTimeout <= 0 {
		add("whatsapp.init_timeout", "must be positive")
	}
	switch cfg.WhatsApp.StoreDialect {
	case "sqlite":
		if strings.TrimSpace(cfg.WhatsApp.DataDir) == "" && strings.TrimSpace(cfg.WhatsApp.StoreDSN) == "" {
			add("whatsapp.data_dir", "required for the sqlite credential store")
		}
	case "postgres":
		if strings.TrimSpace(cfg.WhatsApp.StoreDSN) == "" {
			add("whatsapp.store_dsn", "required for the postgres credential store (or set database.url)")
		}
	default:
		add("whatsapp.store_dialect", fmt.Sprintf("unsupported dialect %q", cfg.WhatsApp.StoreDialect))
	}
	switch cfg.Renderer.Mode {
	case "local":
	case "remote":
		if strings.TrimSpace(cfg.Renderer.RemoteURL) == "" {
			add("renderer.remote_url", "required when renderer.mode is remote")
		}
	default:
		add("renderer.mode", fmt.Sprintf("unsupported mode %q", cfg.Renderer.Mode))
	}
	if cfg.Renderer.Width <= 0 || cfg.Renderer.Height <= 0 {
		add("renderer", "width and height must be positive")
	}

	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}

// IsValidationError reports whether err came from Validate.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
