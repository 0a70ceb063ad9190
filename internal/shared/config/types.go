package config

import (
	"time"
)

const (
	DefaultServerHost          = "0.0.0.0"
	DefaultServerPort          = 3000
	DefaultReadTimeout         = 30 * time.Second
	DefaultWriteTimeout        = 150 * time.Second
	DefaultShutdownTimeout     = 10 * time.Second
	DefaultDBMaxConns          = 8
	DefaultDBConnectTimeout    = 5 * time.Second
	DefaultWhatsAppInitTimeout = 120 * time.Second
	DefaultWhatsAppDataDir     = ".wwebjs_auth"
	DefaultStoreDialect        = "sqlite"
	DefaultRendererMode        = "local"
	DefaultRendererWidth       = 1200
	DefaultRendererHeight      = 800
	DefaultRendererTimeout     = 30 * time.Second
	DefaultMetricsPath         = "/metrics"
	DefaultSendRatePerMinute   = 6
	DefaultSendBurst           = 3
)

// Config is the full runtime configuration shared by every smartsheet command.
type Config struct {
	Environment string         `mapstructure:"environment" yaml:"environment"`
	Server      ServerConfig   `mapstructure:"server" yaml:"server"`
	Database    DatabaseConfig `mapstructure:"database" yaml:"database"`
	WhatsApp    WhatsAppConfig `mapstructure:"whatsapp" yaml:"whatsapp"`
	Renderer    RendererConfig `mapstructure:"renderer" yaml:"renderer"`
	Log         LogConfig      `mapstructure:"log" yaml:"log"`
	Metrics     MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	EnableCORS      bool          `mapstructure:"enable_cors" yaml:"enable_cors"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	// SendRatePerMinute and SendBurst throttle rota sends per client IP;
	// zero disables the limit.
	SendRatePerMinute int `mapstructure:"send_rate_per_minute" yaml:"send_rate_per_minute"`
	SendBurst         int `mapstructure:"send_burst" yaml:"send_burst"`
	// PublicURL is the base for root-relative rota image URLs fetched on send.
	PublicURL string `mapstructure:"public_url" yaml:"public_url"`
}

// DatabaseConfig points at the Postgres database that holds the sheets.
type DatabaseConfig struct {
	URL            string        `mapstructure:"url" yaml:"url"`
	MaxConns       int32         `mapstructure:"max_conns" yaml:"max_conns"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
}

// WhatsAppConfig captures the chat-automation session settings.
type WhatsAppConfig struct {
	Enabled     bool          `mapstructure:"enabled" yaml:"enabled"`
	InitTimeout time.Duration `mapstructure:"init_timeout" yaml:"init_timeout"`
	// DataDir holds the persisted device credentials. It must be stable across
	// restarts or the operator has to scan a new QR code every time.
	DataDir      string `mapstructure:"data_dir" yaml:"data_dir"`
	StoreDialect string `mapstructure:"store_dialect" yaml:"store_dialect"`
	// StoreDSN overrides the credential store location; for the postgres
	// dialect it defaults to the application database URL.
	StoreDSN     string `mapstructure:"store_dsn" yaml:"store_dsn"`
	DefaultGroup string `mapstructure:"default_group" yaml:"default_group"`
	// ConnectOnStart starts a session attempt when the server boots.
	ConnectOnStart bool `mapstructure:"connect_on_start" yaml:"connect_on_start"`
}

// RendererConfig controls the headless Chrome used to snapshot the rota.
type RendererConfig struct {
	Mode        string        `mapstructure:"mode" yaml:"mode"` // local or remote
	ChromePath  string        `mapstructure:"chrome_path" yaml:"chrome_path"`
	RemoteURL   string        `mapstructure:"remote_url" yaml:"remote_url"`
	Headless    bool          `mapstructure:"headless" yaml:"headless"`
	UserDataDir string        `mapstructure:"user_data_dir" yaml:"user_data_dir"`
	Width       int           `mapstructure:"width" yaml:"width"`
	Height      int           `mapstructure:"height" yaml:"height"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// LogConfig selects level and output format.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// Metadata describes where the loaded configuration came from.
type Metadata struct {
	File     string
	LoadedAt time.Time
}
