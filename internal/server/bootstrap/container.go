package bootstrap

import (
	"context"
	"io"
	"strings"

	"smartsheet/internal/channels/whatsapp"
	"smartsheet/internal/httpclient"
	"smartsheet/internal/render"
	"smartsheet/internal/server/app"
	serverHTTP "smartsheet/internal/server/http"
	"smartsheet/internal/shared/config"
	"smartsheet/internal/shared/logging"
	"smartsheet/internal/sheets"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Options adjusts how the container is assembled.
type Options struct {
	Logger logging.Logger
	// QROut additionally prints pairing QR codes as terminal art.
	QROut io.Writer
	// Registry receives every collector; a fresh registry is created when nil.
	Registry *prometheus.Registry
	// Factory replaces the whatsmeow client factory and skips the device store.
	Factory whatsapp.ClientFactory
}

// Container holds the process-wide collaborators. Optional components are
// nil when disabled or degraded.
type Container struct {
	Config   config.Config
	Registry *prometheus.Registry
	Degraded *DegradedComponents
	Health   *app.HealthCheckerImpl

	Pool       *pgxpool.Pool
	Sheets     *sheets.PostgresStore
	Devices    *whatsapp.DeviceStore
	Session    *whatsapp.SessionManager
	Renderer   *render.RotaRenderer
	Fetcher    *httpclient.Fetcher
	Dispatcher *app.RotaDispatcher

	logger logging.Logger
}

// BuildContainer wires every component from cfg. Database and WhatsApp
// failures degrade the container instead of aborting it.
func BuildContainer(ctx context.Context, cfg config.Config, opts Options) (*Container, error) {
	logger := opts.Logger
	if logging.IsNil(logger) {
		logger = logging.NewComponentLogger("Bootstrap")
	}
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	c := &Container{
		Config:   cfg,
		Registry: registry,
		Degraded: NewDegradedComponents(),
		Health:   app.NewHealthChecker(),
		logger:   logger,
	}

	stages := []BootstrapStage{
		{Name: "database", Required: false, Init: func() error { return c.initDatabase(ctx) }},
		{Name: "whatsapp", Required: false, Init: func() error { return c.initWhatsApp(ctx, opts) }},
		{Name: "renderer", Required: true, Init: c.initRenderer},
		{Name: "dispatcher", Required: true, Init: c.initDispatcher},
	}
	if err := RunStages(stages, c.Degraded, logger); err != nil {
		c.Close(ctx)
		return nil, err
	}

	var pinger app.Pinger
	if c.Sheets != nil {
		pinger = c.Sheets
	}
	var session app.SessionStatusSource
	if c.Session != nil {
		session = c.Session
	}
	c.Health.RegisterProbe(app.NewDatabaseProbe(pinger))
	c.Health.RegisterProbe(app.NewWhatsAppProbe(session))
	c.Health.RegisterProbe(app.NewDegradedProbe(c.Degraded))
	return c, nil
}

func (c *Container) initDatabase(ctx context.Context) error {
	dbURL := strings.TrimSpace(c.Config.Database.URL)
	if dbURL == "" {
		c.logger.Info("Database not configured; sheet routes disabled")
		return nil
	}
	pool, err := sheets.OpenPool(ctx, dbURL, sheets.PoolOptions{
		MaxConns:       c.Config.Database.MaxConns,
		ConnectTimeout: c.Config.Database.ConnectTimeout,
	})
	if err != nil {
		return err
	}
	store := sheets.NewPostgresStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return err
	}
	c.Pool = pool
	c.Sheets = store
	return nil
}

func (c *Container) initWhatsApp(ctx context.Context, opts Options) error {
	cfg := c.Config.WhatsApp
	if !cfg.Enabled {
		c.logger.Info("WhatsApp disabled by configuration")
		return nil
	}
	waLogger := logging.NewComponentLogger("WhatsApp")

	factory := opts.Factory
	if factory == nil {
		devices, err := whatsapp.OpenDeviceStore(ctx, whatsapp.StoreConfig{
			Dialect: cfg.StoreDialect,
			DataDir: cfg.DataDir,
			DSN:     cfg.StoreDSN,
		}, waLogger)
		if err != nil {
			return err
		}
		c.Devices = devices
		factory = whatsapp.NewWhatsmeowFactory(devices, waLogger)
	}

	managerOpts := []whatsapp.Option{
		whatsapp.WithInitTimeout(cfg.InitTimeout),
		whatsapp.WithLogger(waLogger),
		whatsapp.WithMetrics(whatsapp.MustNewMetrics(c.Registry)),
	}
	if opts.QROut != nil {
		managerOpts = append(managerOpts, whatsapp.WithQRPresenter(whatsapp.NewTerminalQRPresenter(opts.QROut)))
	}
	c.Session = whatsapp.NewSessionManager(factory, managerOpts...)
	return nil
}

func (c *Container) initRenderer() error {
	cfg := c.Config.Renderer
	var source render.RotaSource
	if c.Sheets != nil {
		source = c.Sheets
	}
	c.Renderer = render.NewRotaRenderer(source, render.Options{
		Chrome: render.ChromeConfig{
			Mode:        cfg.Mode,
			ChromePath:  cfg.ChromePath,
			RemoteURL:   cfg.RemoteURL,
			Headless:    cfg.Headless,
			UserDataDir: cfg.UserDataDir,
		},
		Width:   cfg.Width,
		Height:  cfg.Height,
		Timeout: cfg.Timeout,
		Logger:  logging.NewComponentLogger("Renderer"),
	})
	fetchLogger := logging.NewComponentLogger("ImageFetch")
	c.Fetcher = httpclient.NewFetcher(httpclient.New(cfg.Timeout, fetchLogger), httpclient.DefaultImageLimit, fetchLogger)
	return nil
}

func (c *Container) initDispatcher() error {
	var session app.RotaSession
	if c.Session != nil {
		session = c.Session
	}
	c.Dispatcher = app.NewRotaDispatcher(session, c.Renderer, c.Fetcher,
		app.WithImageBaseURL(c.Config.Server.PublicURL),
		app.WithDispatcherLogger(logging.NewComponentLogger("RotaDispatcher")))
	return nil
}

// RouterDeps exposes the container to the HTTP layer. Disabled components
// stay nil interfaces so their routes answer 503.
func (c *Container) RouterDeps(logger logging.Logger) serverHTTP.RouterDeps {
	deps := serverHTTP.RouterDeps{
		Renderer:       c.Renderer,
		Dispatcher:     c.Dispatcher,
		Health:         c.Health,
		EnableCORS:     c.Config.Server.EnableCORS,
		AllowedOrigins: c.Config.Server.AllowedOrigins,
		SendRateLimit: serverHTTP.RateLimitConfig{
			RequestsPerMinute: c.Config.Server.SendRatePerMinute,
			Burst:             c.Config.Server.SendBurst,
		},
		Debug:  c.Config.Environment == "development" && c.Config.Log.Level == "debug",
		Logger: logger,
	}
	if c.Session != nil {
		deps.Session = c.Session
	}
	if c.Sheets != nil {
		deps.Sheets = c.Sheets
	}
	if c.Config.Metrics.Enabled {
		deps.MetricsPath = c.Config.Metrics.Path
		deps.Gatherer = c.Registry
		deps.Registerer = c.Registry
	}
	return deps
}

// Close tears down the session, then the stores.
func (c *Container) Close(ctx context.Context) {
	if c.Session != nil {
		c.Session.Shutdown(ctx)
	}
	if c.Devices != nil {
		if err := c.Devices.Close(); err != nil {
			c.logger.Warn("Failed to close WhatsApp device store: %v", err)
		}
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}
