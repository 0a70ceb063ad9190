package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configName = "smartsheet"
	envPrefix  = "SMARTSHEET"
)

type loadOptions struct {
	file        string
	searchPaths []string
	configure   func(v *viper.Viper)
}

// Option customises Load.
type Option func(*loadOptions)

// WithFile loads an explicit config file. A missing explicit file is an error.
func WithFile(path string) Option {
	return func(o *loadOptions) { o.file = strings.TrimSpace(path) }
}

// WithSearchPaths replaces the directories searched for smartsheet.yaml.
func WithSearchPaths(paths ...string) Option {
	return func(o *loadOptions) { o.searchPaths = paths }
}

// WithViper exposes the viper instance before reading, used to bind CLI flags.
func WithViper(fn func(v *viper.Viper)) Option {
	return func(o *loadOptions) { o.configure = fn }
}

// Load reads defaults, the optional YAML file and SMARTSHEET_* environment
// overrides, in that order of increasing precedence.
func Load(opts ...Option) (Config, Metadata, error) {
	options := loadOptions{searchPaths: []string{".", "$HOME/.smartsheet"}}
	for _, opt := range opts {
		opt(&options)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// DATABASE_URL is what the original deployment exported.
	if err := v.BindEnv("database.url", envPrefix+"_DATABASE_URL", "DATABASE_URL"); err != nil {
		return Config{}, Metadata{}, fmt.Errorf("bind database env: %w", err)
	}

	if options.file != "" {
		v.SetConfigFile(options.file)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		for _, path := range options.searchPaths {
			v.AddConfigPath(path)
		}
	}
	if options.configure != nil {
		options.configure(v)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if options.file != "" || !errors.As(err, &notFound) {
			return Config{}, Metadata{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, Metadata{}, fmt.Errorf("decode config: %w", err)
	}
	normalize(&cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, Metadata{}, err
	}

	return cfg, Metadata{File: v.ConfigFileUsed(), LoadedAt: time.Now()}, nil
}

func normalize(cfg *Config) {
	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))
	cfg.WhatsApp.StoreDialect = strings.ToLower(strings.TrimSpace(cfg.WhatsApp.StoreDialect))
	if cfg.WhatsApp.StoreDialect == "postgresql" || cfg.WhatsApp.StoreDialect == "pgx" {
		cfg.WhatsApp.StoreDialect = "postgres"
	}
	if cfg.WhatsApp.StoreDialect == "sqlite3" {
		cfg.WhatsApp.StoreDialect = "sqlite"
	}
	if cfg.WhatsApp.StoreDialect == "postgres" && strings.TrimSpace(cfg.WhatsApp.StoreDSN) == "" {
		cfg.WhatsApp.StoreDSN = cfg.Database.URL
	}
	cfg.Renderer.Mode = strings.ToLower(strings.TrimSpace(cfg.Renderer.Mode))
	if cfg.Server.PublicURL == "" {
		host := cfg.Server.Host
		if host == "" || host == "0.0.0.0" {
			host = "localhost"
		}
		cfg.Server.PublicURL = fmt.Sprintf("http://%s:%d", host, cfg.Server.Port)
	}
	cfg.Server.PublicURL = strings.TrimRight(cfg.Server.PublicURL, "/")
	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		cfg.Metrics.Path = "/" + cfg.Metrics.Path
	}
}
