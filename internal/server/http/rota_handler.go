package http

import (
	"context"
	"net/http"

	"smartsheet/internal/server/app"
	"smartsheet/internal/shared/logging"

	"github.com/gin-gonic/gin"
)

// RotaSender posts the rota to a group.
type RotaSender interface {
	Send(ctx context.Context, req app.SendRotaRequest) (app.SendRotaResult, error)
}

// RotaImager renders the rota PNG.
type RotaImager interface {
	Render(ctx context.Context) ([]byte, error)
}

// RotaHandler serves the staff rota image and WhatsApp dispatch.
type RotaHandler struct {
	sender   RotaSender
	renderer RotaImager
	logger   logging.Logger
}

// NewRotaHandler builds the handler.
func NewRotaHandler(sender RotaSender, renderer RotaImager, logger logging.Logger) *RotaHandler {
	return &RotaHandler{sender: sender, renderer: renderer, logger: logging.OrNop(logger)}
}

// HandleGenerateImage returns the rota as an inline PNG.
func (h *RotaHandler) HandleGenerateImage(c *gin.Context) {
	if h.renderer == nil {
		writeError(c, http.StatusServiceUnavailable, "Rota renderer not configured", nil)
		return
	}
	png, err := h.renderer.Render(c.Request.Context())
	if err != nil {
		h.logger.Error("Error generating staff rota image: %v", err)
		writeError(c, http.StatusInternalServerError, "Failed to generate image", nil)
		return
	}
	c.Header("Content-Disposition", `inline; filename="staff-rota.png"`)
	c.Data(http.StatusOK, "image/png", png)
}

// HandleSendWhatsApp renders or fetches the rota and sends it to a group.
func (h *RotaHandler) HandleSendWhatsApp(c *gin.Context) {
	var req app.SendRotaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	result, err := h.sender.Send(c.Request.Context(), req)
	if err != nil {
		h.logger.Warn("Error sending rota to WhatsApp: %v", err)
		writeMappedError(c, err, http.StatusInternalServerError, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Staff rota sent to WhatsApp group successfully",
		"groupId":   result.GroupID,
		"groupName": result.GroupName,
	})
}
