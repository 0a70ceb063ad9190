package config

import (
	"github.com/spf13/viper"
)

// setDefaults registers every key so AutomaticEnv can override it; viper only
// consults the environment for keys it already knows about.
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("server.host", DefaultServerHost)
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.enable_cors", true)
	v.SetDefault("server.read_timeout", DefaultReadTimeout)
	v.SetDefault("server.write_timeout", DefaultWriteTimeout)
	v.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.send_rate_per_minute", DefaultSendRatePerMinute)
	v.SetDefault("server.send_burst", DefaultSendBurst)
	v.SetDefault("server.public_url", "")

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", DefaultDBMaxConns)
	v.SetDefault("database.connect_timeout", DefaultDBConnectTimeout)

	v.SetDefault("whatsapp.enabled", true)
	v.SetDefault("whatsapp.init_timeout", DefaultWhatsAppInitTimeout)
	v.SetDefault("whatsapp.data_dir", DefaultWhatsAppDataDir)
	v.SetDefault("whatsapp.store_dialect", DefaultStoreDialect)
	v.SetDefault("whatsapp.store_dsn", "")
	v.SetDefault("whatsapp.default_group", "")
	v.SetDefault("whatsapp.connect_on_start", false)

	v.SetDefault("renderer.mode", DefaultRendererMode)
	v.SetDefault("renderer.chrome_path", "")
	v.SetDefault("renderer.remote_url", "")
	v.SetDefault("renderer.headless", true)
	v.SetDefault("renderer.user_data_dir", "")
	v.SetDefault("renderer.width", DefaultRendererWidth)
	v.SetDefault("renderer.height", DefaultRendererHeight)
	v.SetDefault("renderer.timeout", DefaultRendererTimeout)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", DefaultMetricsPath)
}
