package http

import (
	"net/http"
	"time"

	"smartsheet/internal/server/app"
	"smartsheet/internal/shared/logging"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps carries everything the router wires. Nil collaborators leave
// their routes answering 503.
type RouterDeps struct {
	Session    WhatsAppSession
	Dispatcher RotaSender
	Renderer   RotaImager
	Sheets     SheetStore
	Health     *app.HealthCheckerImpl

	EnableCORS bool
	// AllowedOrigins restricts CORS; empty allows every origin.
	AllowedOrigins []string
	// SendRateLimit throttles rota sends per client IP.
	SendRateLimit RateLimitConfig

	Debug       bool
	MetricsPath string
	Gatherer    prometheus.Gatherer
	Registerer  prometheus.Registerer
	Logger      logging.Logger
}

// NewRouter builds the gin engine with all endpoints.
func NewRouter(deps RouterDeps) *gin.Engine {
	logger := logging.OrNop(deps.Logger)
	if !deps.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(RecoveryMiddleware(logger))
	engine.Use(RequestIDMiddleware())
	engine.Use(LoggingMiddleware(logger))
	if deps.Registerer != nil {
		engine.Use(MetricsMiddleware(NewHTTPMetrics(deps.Registerer)))
	}

	if deps.EnableCORS {
		corsConfig := cors.DefaultConfig()
		if len(deps.AllowedOrigins) > 0 {
			corsConfig.AllowOrigins = deps.AllowedOrigins
		} else {
			corsConfig.AllowAllOrigins = true
		}
		corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Requested-With", requestIDHeader}
		corsConfig.ExposeHeaders = []string{requestIDHeader, "Content-Disposition"}
		corsConfig.MaxAge = 12 * time.Hour
		engine.Use(cors.New(corsConfig))
	}

	health := deps.Health
	if health == nil {
		health = app.NewHealthChecker()
	}
	engine.GET("/health", handleHealth(health))

	if deps.MetricsPath != "" && deps.Gatherer != nil {
		engine.GET(deps.MetricsPath, gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := engine.Group("/api")

	wa := api.Group("/whatsapp")
	if deps.Session != nil {
		h := NewWhatsAppHandler(deps.Session, logger)
		wa.POST("/init", h.HandleInit)
		wa.GET("/init", h.HandleInitStatus)
		wa.GET("/status", h.HandleStatus)
		wa.GET("/groups", h.HandleGroups)
	} else {
		wa.Any("/*path", unavailable("WhatsApp is disabled"))
	}

	rota := api.Group("/staff-rota")
	{
		h := NewRotaHandler(deps.Dispatcher, deps.Renderer, logger)
		rota.GET("/generate-image", h.HandleGenerateImage)
		if deps.Dispatcher != nil {
			rota.POST("/send-whatsapp", RateLimitMiddleware(deps.SendRateLimit), h.HandleSendWhatsApp)
		} else {
			rota.POST("/send-whatsapp", unavailable("WhatsApp is disabled"))
		}
	}

	if deps.Sheets != nil {
		h := NewSheetsHandler(deps.Sheets, logger)
		api.GET("/categories", h.HandleCategories)
		api.GET("/sheets/:sheet", h.HandleList)
		api.POST("/sheets/:sheet/batch", h.HandleBatch)
		api.PATCH("/sheets/inventory/:id/quantity", h.HandleUpdateQuantity)
	}

	engine.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "Not found", nil)
	})
	return engine
}

func unavailable(message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		writeError(c, http.StatusServiceUnavailable, message, nil)
	}
}

func handleHealth(checker *app.HealthCheckerImpl) gin.HandlerFunc {
	return func(c *gin.Context) {
		components := checker.CheckAll(c.Request.Context())
		status, code := "ok", http.StatusOK
		if !app.Healthy(components) {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":     status,
			"timestamp":  time.Now().UTC(),
			"components": components,
		})
	}
}
