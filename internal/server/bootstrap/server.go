package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	serverHTTP "smartsheet/internal/server/http"
	"smartsheet/internal/channels/whatsapp"
	"smartsheet/internal/shared/async"
	"smartsheet/internal/shared/config"
	"smartsheet/internal/shared/logging"

	"golang.org/x/sync/errgroup"
)

// ConfigureLogging points the process-wide log backend at cfg.
func ConfigureLogging(cfg config.LogConfig) {
	logging.Configure(logging.LogConfig{Level: cfg.Level, Format: cfg.Format})
}

// RunServer builds the container, serves HTTP and blocks until ctx is
// cancelled (typically by SIGINT/SIGTERM) or the listener fails.
func RunServer(ctx context.Context, cfg config.Config, meta config.Metadata, opts Options) error {
	logger := opts.Logger
	if logging.IsNil(logger) {
		logger = logging.NewComponentLogger("Main")
	}
	logger.Info("Starting smartsheet server...")
	LogConfiguration(logger, cfg, meta)

	container, err := BuildContainer(ctx, cfg, opts)
	if err != nil {
		return fmt.Errorf("build container: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		container.Close(closeCtx)
	}()

	if !container.Degraded.IsEmpty() {
		logger.Warn("[Bootstrap] Server starting in degraded mode: %v", container.Degraded.Map())
	}

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      serverHTTP.NewRouter(container.RouterDeps(logging.NewComponentLogger("HTTP"))),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	if container.Session != nil && cfg.WhatsApp.ConnectOnStart {
		connectOnStart(ctx, container.Session, logger)
	}

	// Pending init calls block for up to the init timeout; fail them first.
	beforeShutdown := func(ctx context.Context) {
		if container.Session != nil {
			container.Session.Shutdown(ctx)
		}
	}
	return Serve(ctx, server, cfg.Server.ShutdownTimeout, beforeShutdown, logger)
}

// Serve runs server until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, server *http.Server, shutdownTimeout time.Duration, beforeShutdown func(context.Context), logger logging.Logger) error {
	logger = logging.OrNop(logger)
	if shutdownTimeout <= 0 {
		shutdownTimeout = config.DefaultShutdownTimeout
	}

	listener, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", server.Addr, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server listening on %s", listener.Addr())
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if beforeShutdown != nil {
			beforeShutdown(shutdownCtx)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.Info("Server stopped")
		return nil
	})
	return g.Wait()
}

type sessionStarter interface {
	EnsureReady(ctx context.Context) (whatsapp.Client, error)
}

// connectOnStart begins pairing in the background so the QR code shows up
// without waiting for the first init request.
func connectOnStart(ctx context.Context, session sessionStarter, logger logging.Logger) {
	logger = logging.OrNop(logger)
	async.Go(logger, "whatsapp.connect-on-start", func() {
		if _, err := session.EnsureReady(ctx); err != nil {
			logger.Warn("WhatsApp connect on start failed: %v", err)
			return
		}
		logger.Info("WhatsApp connected on start")
	})
}
