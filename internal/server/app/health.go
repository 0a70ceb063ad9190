package app

import (
	"context"
	"sync"
	"time"

	"smartsheet/internal/channels/whatsapp"
	"smartsheet/internal/server/ports"
)

// HealthCheckerImpl aggregates health probes for all components.
type HealthCheckerImpl struct {
	probes []ports.HealthProbe
	mu     sync.RWMutex
}

// NewHealthChecker creates a new health checker.
func NewHealthChecker() *HealthCheckerImpl {
	return &HealthCheckerImpl{
		probes: make([]ports.HealthProbe, 0),
	}
}

// RegisterProbe adds a health probe.
func (h *HealthCheckerImpl) RegisterProbe(probe ports.HealthProbe) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.probes = append(h.probes, probe)
}

// CheckAll returns health status for all components.
func (h *HealthCheckerImpl) CheckAll(ctx context.Context) []ports.ComponentHealth {
	h.mu.RLock()
	defer h.mu.RUnlock()

	results := make([]ports.ComponentHealth, 0, len(h.probes))
	for _, probe := range h.probes {
		results = append(results, probe.Check(ctx))
	}
	return results
}

// Healthy reports whether no component is in error. A WhatsApp session that
// has not been paired yet is not_ready, which still counts as healthy.
func Healthy(components []ports.ComponentHealth) bool {
	for _, c := range components {
		if c.Status == ports.HealthStatusError {
			return false
		}
	}
	return true
}

// Pinger is satisfied by the sheet store and raw pools.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatabaseProbe pings the application database.
type DatabaseProbe struct {
	db      Pinger
	timeout time.Duration
}

// NewDatabaseProbe creates a probe; a nil db reports disabled.
func NewDatabaseProbe(db Pinger) *DatabaseProbe {
	return &DatabaseProbe{db: db, timeout: 2 * time.Second}
}

// Check pings the database with a short timeout.
func (p *DatabaseProbe) Check(ctx context.Context) ports.ComponentHealth {
	if p.db == nil {
		return ports.ComponentHealth{
			Name:    "database",
			Status:  ports.HealthStatusDisabled,
			Message: "Database not configured",
		}
	}
	pingCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	started := time.Now()
	if err := p.db.Ping(pingCtx); err != nil {
		return ports.ComponentHealth{
			Name:    "database",
			Status:  ports.HealthStatusError,
			Message: err.Error(),
		}
	}
	return ports.ComponentHealth{
		Name:    "database",
		Status:  ports.HealthStatusReady,
		Message: "Database reachable",
		Details: map[string]any{"latency_ms": time.Since(started).Milliseconds()},
	}
}

// SessionStatusSource exposes the WhatsApp session snapshot.
type SessionStatusSource interface {
	Snapshot() whatsapp.Status
}

// WhatsAppProbe reports the session state without touching the network.
type WhatsAppProbe struct {
	session SessionStatusSource
}

// NewWhatsAppProbe creates a probe; a nil session reports disabled.
func NewWhatsAppProbe(session SessionStatusSource) *WhatsAppProbe {
	return &WhatsAppProbe{session: session}
}

// Check returns the health status of the WhatsApp session.
func (p *WhatsAppProbe) Check(context.Context) ports.ComponentHealth {
	if p.session == nil {
		return ports.ComponentHealth{
			Name:    "whatsapp",
			Status:  ports.HealthStatusDisabled,
			Message: "WhatsApp disabled by configuration",
		}
	}
	status := p.session.Snapshot()
	details := map[string]any{
		"state":   status.State.String(),
		"attempt": status.Attempt,
		"since":   status.Since,
	}
	if status.Ready {
		return ports.ComponentHealth{
			Name:    "whatsapp",
			Status:  ports.HealthStatusReady,
			Message: "WhatsApp client is ready",
			Details: details,
		}
	}
	message := "WhatsApp not initialized"
	if status.State.InFlight() {
		message = "WhatsApp initialization in progress"
	}
	if status.LastError != "" {
		details["last_error"] = status.LastError
	}
	return ports.ComponentHealth{
		Name:    "whatsapp",
		Status:  ports.HealthStatusNotReady,
		Message: message,
		Details: details,
	}
}

// DegradedSource lists components that failed optional startup.
type DegradedSource interface {
	Map() map[string]string
}

// DegradedProbe surfaces bootstrap stages that failed without aborting
// startup.
type DegradedProbe struct {
	source DegradedSource
}

// NewDegradedProbe creates a probe over source; nil means nothing degraded.
func NewDegradedProbe(source DegradedSource) *DegradedProbe {
	return &DegradedProbe{source: source}
}

// Check reports not_ready while any component is degraded.
func (p *DegradedProbe) Check(context.Context) ports.ComponentHealth {
	var components map[string]string
	if p.source != nil {
		components = p.source.Map()
	}
	if len(components) == 0 {
		return ports.ComponentHealth{
			Name:    "bootstrap",
			Status:  ports.HealthStatusReady,
			Message: "All components initialized",
		}
	}
	details := make(map[string]any, len(components))
	for name, reason := range components {
		details[name] = reason
	}
	return ports.ComponentHealth{
		Name:    "bootstrap",
		Status:  ports.HealthStatusNotReady,
		Message: "Some components are degraded",
		Details: details,
	}
}
