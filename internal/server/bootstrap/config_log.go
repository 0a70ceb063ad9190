package bootstrap

import (
	"strings"

	"smartsheet/internal/shared/config"
	"smartsheet/internal/shared/logging"
)

// LogConfiguration prints a redacted snapshot of the runtime configuration.
func LogConfiguration(logger logging.Logger, cfg config.Config, meta config.Metadata) {
	logger = logging.OrNop(logger)

	logger.Info("=== Server Configuration ===")
	if meta.File != "" {
		logger.Info("Config file: %s", meta.File)
	} else {
		logger.Info("Config file: (none; defaults and environment)")
	}
	logger.Info("Environment: %s", cfg.Environment)
	logger.Info("Listen: %s:%d (cors=%t)", cfg.Server.Host, cfg.Server.Port, cfg.Server.EnableCORS)
	logger.Info("Public URL: %s", cfg.Server.PublicURL)
	if strings.TrimSpace(cfg.Database.URL) != "" {
		logger.Info("Database: (set; max_conns=%d)", cfg.Database.MaxConns)
	} else {
		logger.Info("Database: (not set)")
	}
	if cfg.WhatsApp.Enabled {
		logger.Info("WhatsApp: enabled (store=%s, init_timeout=%s, connect_on_start=%t)",
			cfg.WhatsApp.StoreDialect, cfg.WhatsApp.InitTimeout, cfg.WhatsApp.ConnectOnStart)
		if cfg.WhatsApp.StoreDialect == "sqlite" {
			logger.Info("WhatsApp data dir: %s", cfg.WhatsApp.DataDir)
		}
	} else {
		logger.Info("WhatsApp: disabled")
	}
	logger.Info("Renderer: %s %dx%d (timeout=%s)", cfg.Renderer.Mode, cfg.Renderer.Width, cfg.Renderer.Height, cfg.Renderer.Timeout)
	if cfg.Metrics.Enabled {
		logger.Info("Metrics: %s", cfg.Metrics.Path)
	} else {
		logger.Info("Metrics: disabled")
	}
	logger.Info("===========================")
}
