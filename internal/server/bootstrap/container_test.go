package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"smartsheet/internal/channels/whatsapp"
	serverHTTP "smartsheet/internal/server/http"
	"smartsheet/internal/shared/config"
	"smartsheet/internal/shared/logging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readyClient struct {
	sink whatsapp.EventSink

	mu   sync.Mutex
	sent []string
}

func (c *readyClient) Connect(context.Context) error {
	c.sink(whatsapp.Event{Kind: whatsapp.EventAuthenticated})
	c.sink(whatsapp.Event{Kind: whatsapp.EventReady})
	return nil
}

func (c *readyClient) Disconnect() {}

func (c *readyClient) ListChats(context.Context) ([]whatsapp.Chat, error) {
	return []whatsapp.Chat{
		{ID: "1@g.us", Name: "Staff Team", IsGroup: true},
		{ID: "2@s.whatsapp.net", Name: "Alice"},
	}, nil
}

func (c *readyClient) SendImage(_ context.Context, chatID string, _ whatsapp.OutboundImage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, chatID)
	return nil
}

func testConfig() config.Config {
	return config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            3000,
			ShutdownTimeout: time.Second,
		},
		WhatsApp: config.WhatsAppConfig{
			Enabled:      true,
			InitTimeout:  5 * time.Second,
			StoreDialect: "sqlite",
			DataDir:      "unused",
		},
		Renderer: config.RendererConfig{
			Mode:    "local",
			Width:   800,
			Height:  600,
			Timeout: time.Second,
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func buildTestContainer(t *testing.T, cfg config.Config) *Container {
	t.Helper()
	factory := whatsapp.ClientFactoryFunc(func(_ context.Context, sink whatsapp.EventSink) (whatsapp.Client, error) {
		return &readyClient{sink: sink}, nil
	})
	c, err := BuildContainer(context.Background(), cfg, Options{
		Logger:   logging.Nop(),
		Registry: prometheus.NewRegistry(),
		Factory:  factory,
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close(context.Background()) })
	return c
}

func serve(t *testing.T, handler http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestContainerWiresWhatsAppWithoutDatabase(t *testing.T) {
	c := buildTestContainer(t, testConfig())

	assert.Nil(t, c.Sheets)
	assert.NotNil(t, c.Session)
	assert.NotNil(t, c.Dispatcher)
	assert.True(t, c.Degraded.IsEmpty())

	router := serverHTTP.NewRouter(c.RouterDeps(logging.Nop()))

	rec := serve(t, router, http.MethodPost, "/api/whatsapp/init")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, c.Session.IsReady())

	rec = serve(t, router, http.MethodGet, "/api/whatsapp/groups")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Staff Team")
	assert.NotContains(t, rec.Body.String(), "Alice")

	rec = serve(t, router, http.MethodGet, "/api/sheets/staff-rota")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, router, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"disabled"`)

	rec = serve(t, router, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "smartsheet_whatsapp_init_attempts_total 1")
}

func TestContainerWithWhatsAppDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.WhatsApp.Enabled = false
	cfg.Metrics.Enabled = false
	c := buildTestContainer(t, cfg)
	assert.Nil(t, c.Session)

	router := serverHTTP.NewRouter(c.RouterDeps(logging.Nop()))
	assert.Equal(t, http.StatusServiceUnavailable, serve(t, router, http.MethodPost, "/api/whatsapp/init").Code)
	assert.Equal(t, http.StatusNotFound, serve(t, router, http.MethodGet, "/metrics").Code)

	req := httptest.NewRequest(http.MethodPost, "/api/staff-rota/send-whatsapp", strings.NewReader(`{"groupName":"staff"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestContainerDegradesOnBadDatabase(t *testing.T) {
	cfg := testConfig()
	cfg.Database.URL = "postgres://nobody@127.0.0.1:1/none?sslmode=disable"
	cfg.Database.ConnectTimeout = 200 * time.Millisecond
	c := buildTestContainer(t, cfg)

	assert.Nil(t, c.Sheets)
	assert.Contains(t, c.Degraded.Names(), "database")
}

func TestServeStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	var hooked bool
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, server, time.Second, func(context.Context) { hooked = true }, logging.Nop())
	}()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
		assert.True(t, hooked)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServeReportsListenError(t *testing.T) {
	server := &http.Server{Addr: "256.0.0.1:99999"}
	err := Serve(context.Background(), server, time.Second, nil, logging.Nop())
	require.Error(t, err)
}

type panickingStarter struct{}

func (panickingStarter) EnsureReady(context.Context) (whatsapp.Client, error) {
	panic("device store closed")
}

type errorRecorder struct {
	mu     sync.Mutex
	errors []string
}

func (r *errorRecorder) Debug(string, ...any) {}
func (r *errorRecorder) Info(string, ...any)  {}
func (r *errorRecorder) Warn(string, ...any)  {}
func (r *errorRecorder) Error(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, format)
}

func (r *errorRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors)
}

func TestConnectOnStartRecoversPanic(t *testing.T) {
	logger := &errorRecorder{}
	connectOnStart(context.Background(), panickingStarter{}, logger)
	require.Eventually(t, func() bool { return logger.count() == 1 }, 2*time.Second, time.Millisecond)
}

func TestConnectOnStartReadiesSession(t *testing.T) {
	c := buildTestContainer(t, testConfig())
	require.NotNil(t, c.Session)

	connectOnStart(context.Background(), c.Session, logging.Nop())
	require.Eventually(t, c.Session.IsReady, 2*time.Second, time.Millisecond)
}
