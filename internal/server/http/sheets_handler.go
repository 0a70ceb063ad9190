package http

import (
	"context"
	"net/http"
	"strconv"

	"smartsheet/internal/sheets"
	"smartsheet/internal/shared/logging"

	"github.com/gin-gonic/gin"
)

// SheetStore is the grid persistence used by the sheet routes.
type SheetStore interface {
	ListCategories(ctx context.Context) ([]string, error)
	ListInventory(ctx context.Context) ([]sheets.InventoryItem, error)
	ListStaffRota(ctx context.Context) ([]sheets.RotaShift, error)
	ListBookings(ctx context.Context, filter sheets.BookingFilter) ([]sheets.Booking, error)
	ApplyInventoryBatch(ctx context.Context, batch sheets.Batch[sheets.InventoryItem]) (sheets.BatchResult[sheets.InventoryItem], error)
	ApplyRotaBatch(ctx context.Context, batch sheets.Batch[sheets.RotaShift]) (sheets.BatchResult[sheets.RotaShift], error)
	ApplyBookingBatch(ctx context.Context, batch sheets.Batch[sheets.Booking]) (sheets.BatchResult[sheets.Booking], error)
	UpdateQuantity(ctx context.Context, id int64, quantity float64) error
}

// SheetsHandler serves grid reads and batched saves.
type SheetsHandler struct {
	store  SheetStore
	logger logging.Logger
}

// NewSheetsHandler builds the handler.
func NewSheetsHandler(store SheetStore, logger logging.Logger) *SheetsHandler {
	return &SheetsHandler{store: store, logger: logging.OrNop(logger)}
}

// HandleList returns every row of a sheet. Bookings accept ?date=YYYY-MM-DD.
func (h *SheetsHandler) HandleList(c *gin.Context) {
	sheet, err := sheets.ParseSheet(c.Param("sheet"))
	if err != nil {
		writeMappedError(c, err, http.StatusNotFound, nil)
		return
	}

	ctx := c.Request.Context()
	var rows any
	switch sheet {
	case sheets.SheetInventory:
		rows, err = h.store.ListInventory(ctx)
	case sheets.SheetStaffRota:
		rows, err = h.store.ListStaffRota(ctx)
	case sheets.SheetBookings:
		rows, err = h.store.ListBookings(ctx, sheets.BookingFilter{Date: c.Query("date")})
	}
	if err != nil {
		h.logger.Error("List %s failed: %v", sheet, err)
		writeMappedError(c, err, http.StatusInternalServerError, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sheet": sheet, "rows": rows})
}

// HandleCategories lists inventory categories.
func (h *SheetsHandler) HandleCategories(c *gin.Context) {
	names, err := h.store.ListCategories(c.Request.Context())
	if err != nil {
		writeMappedError(c, err, http.StatusInternalServerError, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "categories": names})
}

// HandleBatch applies one grid save.
func (h *SheetsHandler) HandleBatch(c *gin.Context) {
	sheet, err := sheets.ParseSheet(c.Param("sheet"))
	if err != nil {
		writeMappedError(c, err, http.StatusNotFound, nil)
		return
	}
	switch sheet {
	case sheets.SheetInventory:
		applyBatch(c, h, h.store.ApplyInventoryBatch)
	case sheets.SheetStaffRota:
		applyBatch(c, h, h.store.ApplyRotaBatch)
	case sheets.SheetBookings:
		applyBatch(c, h, h.store.ApplyBookingBatch)
	}
}

func applyBatch[T any](c *gin.Context, h *SheetsHandler, apply func(context.Context, sheets.Batch[T]) (sheets.BatchResult[T], error)) {
	var batch sheets.Batch[T]
	if err := c.ShouldBindJSON(&batch); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid batch body", nil)
		return
	}
	result, err := apply(c.Request.Context(), batch)
	if err != nil {
		h.logger.Warn("Batch save on %s failed: %v", c.Param("sheet"), err)
		writeMappedError(c, err, http.StatusInternalServerError, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"created": result.Created,
		"updated": result.Updated,
		"deleted": result.Deleted,
	})
}

type quantityRequest struct {
	Quantity *float64 `json:"quantity"`
}

// HandleUpdateQuantity sets the quantity of one inventory row.
func (h *SheetsHandler) HandleUpdateQuantity(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, http.StatusBadRequest, "Invalid item id", nil)
		return
	}
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		writeError(c, http.StatusBadRequest, "quantity is required", nil)
		return
	}
	if err := h.store.UpdateQuantity(c.Request.Context(), id, *req.Quantity); err != nil {
		writeMappedError(c, err, http.StatusInternalServerError, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id, "quantity": *req.Quantity})
}
