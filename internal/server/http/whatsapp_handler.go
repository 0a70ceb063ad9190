package http

import (
	"context"
	"net/http"

	"smartsheet/internal/channels/whatsapp"
	"smartsheet/internal/shared/logging"

	"github.com/gin-gonic/gin"
)

// WhatsAppSession is the session manager surface used by the handlers.
type WhatsAppSession interface {
	EnsureReady(ctx context.Context) (whatsapp.Client, error)
	IsReady() bool
	Snapshot() whatsapp.Status
	ListGroups(ctx context.Context) ([]whatsapp.Group, error)
}

// WhatsAppHandler serves session initialisation, status and group listing.
type WhatsAppHandler struct {
	session WhatsAppSession
	logger  logging.Logger
}

// NewWhatsAppHandler builds the handler.
func NewWhatsAppHandler(session WhatsAppSession, logger logging.Logger) *WhatsAppHandler {
	return &WhatsAppHandler{session: session, logger: logging.OrNop(logger)}
}

// HandleInit blocks until the session is ready, joining any attempt already
// in flight.
func (h *WhatsAppHandler) HandleInit(c *gin.Context) {
	if h.session.IsReady() {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "WhatsApp is already connected", "ready": true})
		return
	}
	if _, err := h.session.EnsureReady(c.Request.Context()); err != nil {
		h.logger.Error("WhatsApp initialization error: %v", err)
		writeMappedError(c, err, http.StatusInternalServerError, gin.H{"ready": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "WhatsApp connected successfully", "ready": true})
}

// HandleInitStatus reports readiness without side effects.
func (h *WhatsAppHandler) HandleInitStatus(c *gin.Context) {
	ready := h.session.IsReady()
	message := "WhatsApp is not connected"
	if ready {
		message = "WhatsApp is connected"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "ready": ready, "message": message})
}

// HandleStatus returns the session snapshot, including the latest QR code
// while a scan is pending.
func (h *WhatsAppHandler) HandleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "status": h.session.Snapshot()})
}

// HandleGroups lists the group chats visible to the session.
func (h *WhatsAppHandler) HandleGroups(c *gin.Context) {
	groups, err := h.session.ListGroups(c.Request.Context())
	if err != nil {
		h.logger.Warn("Error fetching WhatsApp groups: %v", err)
		writeMappedError(c, err, http.StatusInternalServerError, gin.H{"groups": []whatsapp.Group{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "groups": groups})
}
