package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"smartsheet/internal/channels/whatsapp"
	"smartsheet/internal/server/app"
	"smartsheet/internal/sheets"
	"smartsheet/internal/shared/logging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWA struct {
	ready      bool
	ensureErr  error
	ensured    int
	groups     []whatsapp.Group
	groupsErr  error
	sendErr    error
	sentTo     []string
	sentImages [][]byte
}

func (f *fakeWA) EnsureReady(context.Context) (whatsapp.Client, error) {
	f.ensured++
	if f.ensureErr != nil {
		return nil, f.ensureErr
	}
	f.ready = true
	return nil, nil
}

func (f *fakeWA) IsReady() bool { return f.ready }

func (f *fakeWA) Snapshot() whatsapp.Status {
	state := whatsapp.StateUninitialized
	if f.ready {
		state = whatsapp.StateReady
	}
	return whatsapp.Status{State: state, Ready: f.ready}
}

func (f *fakeWA) ListGroups(context.Context) ([]whatsapp.Group, error) {
	if !f.ready {
		return nil, whatsapp.ErrNotReady
	}
	return f.groups, f.groupsErr
}

func (f *fakeWA) SendToGroup(_ context.Context, groupName string, image []byte, _ string) (whatsapp.Group, error) {
	if f.sendErr != nil {
		return whatsapp.Group{}, f.sendErr
	}
	group, ok := whatsapp.MatchGroup(f.groups, groupName)
	if !ok {
		names := make([]string, 0, len(f.groups))
		for _, g := range f.groups {
			names = append(names, g.Name)
		}
		return whatsapp.Group{}, &whatsapp.GroupNotFoundError{Query: groupName, Available: names}
	}
	f.sentTo = append(f.sentTo, group.ID)
	f.sentImages = append(f.sentImages, image)
	return group, nil
}

type fakeRenderer struct {
	calls int
	err   error
}

func (r *fakeRenderer) Render(context.Context) ([]byte, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return []byte("\x89PNG"), nil
}

type fakeSheets struct {
	rota      []sheets.RotaShift
	rotaBatch sheets.Batch[sheets.RotaShift]
	qtyID     int64
	qty       float64
}

func (s *fakeSheets) ListCategories(context.Context) ([]string, error) {
	return []string{"Dairy", "Dry Goods"}, nil
}
func (s *fakeSheets) ListInventory(context.Context) ([]sheets.InventoryItem, error) {
	return []sheets.InventoryItem{}, nil
}
func (s *fakeSheets) ListStaffRota(context.Context) ([]sheets.RotaShift, error) { return s.rota, nil }
func (s *fakeSheets) ListBookings(_ context.Context, f sheets.BookingFilter) ([]sheets.Booking, error) {
	if f.Date == "bad" {
		return nil, sheets.ErrValidation
	}
	return []sheets.Booking{}, nil
}
func (s *fakeSheets) ApplyInventoryBatch(context.Context, sheets.Batch[sheets.InventoryItem]) (sheets.BatchResult[sheets.InventoryItem], error) {
	return sheets.BatchResult[sheets.InventoryItem]{}, nil
}
func (s *fakeSheets) ApplyRotaBatch(_ context.Context, b sheets.Batch[sheets.RotaShift]) (sheets.BatchResult[sheets.RotaShift], error) {
	s.rotaBatch = b
	created := make([]sheets.RotaShift, 0, len(b.Creates))
	for i, row := range b.Creates {
		row.ID = int64(100 + i)
		created = append(created, row)
	}
	return sheets.BatchResult[sheets.RotaShift]{Created: created, Deleted: len(b.Deletes)}, nil
}
func (s *fakeSheets) ApplyBookingBatch(context.Context, sheets.Batch[sheets.Booking]) (sheets.BatchResult[sheets.Booking], error) {
	return sheets.BatchResult[sheets.Booking]{}, nil
}
func (s *fakeSheets) UpdateQuantity(_ context.Context, id int64, qty float64) error {
	if id == 404 {
		return sheets.ErrNotFound
	}
	s.qtyID, s.qty = id, qty
	return nil
}

type testServer struct {
	wa       *fakeWA
	renderer *fakeRenderer
	sheets   *fakeSheets
	handler  http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		wa: &fakeWA{groups: []whatsapp.Group{
			{ID: "111@g.us", Name: "Staff Team"},
			{ID: "222@g.us", Name: "staff updates"},
			{ID: "333@g.us", Name: "Kitchen"},
		}},
		renderer: &fakeRenderer{},
		sheets:   &fakeSheets{},
	}
	dispatcher := app.NewRotaDispatcher(ts.wa, ts.renderer, nil,
		app.WithDispatcherClock(func() time.Time { return time.Date(2026, 1, 13, 9, 0, 0, 0, time.UTC) }),
		app.WithDispatcherLogger(logging.Nop()))
	health := app.NewHealthChecker()
	health.RegisterProbe(app.NewWhatsAppProbe(ts.wa))

	reg := prometheus.NewRegistry()
	ts.handler = NewRouter(RouterDeps{
		Session:     ts.wa,
		Dispatcher:  dispatcher,
		Renderer:    ts.renderer,
		Sheets:      ts.sheets,
		Health:      health,
		EnableCORS:  true,
		MetricsPath: "/metrics",
		Gatherer:    reg,
		Registerer:  reg,
		Logger:      logging.Nop(),
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var payload map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func TestWhatsAppInitRoutes(t *testing.T) {
	ts := newTestServer(t)

	rec, body := ts.do(t, http.MethodGet, "/api/whatsapp/init", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["ready"])
	assert.Equal(t, "WhatsApp is not connected", body["message"])

	rec, body = ts.do(t, http.MethodPost, "/api/whatsapp/init", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "WhatsApp connected successfully", body["message"])
	assert.Equal(t, 1, ts.wa.ensured)

	rec, body = ts.do(t, http.MethodPost, "/api/whatsapp/init", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "WhatsApp is already connected", body["message"])
	assert.Equal(t, 1, ts.wa.ensured)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestWhatsAppInitFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "auth failure", err: fmt.Errorf("%w: logged out", whatsapp.ErrAuthFailure), status: http.StatusInternalServerError},
		{name: "timeout", err: whatsapp.ErrInitTimeout, status: http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.wa.ensureErr = tt.err

			rec, body := ts.do(t, http.MethodPost, "/api/whatsapp/init", "")
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, false, body["ready"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestWhatsAppGroupsRoute(t *testing.T) {
	ts := newTestServer(t)

	rec, body := ts.do(t, http.MethodGet, "/api/whatsapp/groups", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "WhatsApp is not connected. Please initialize WhatsApp first.", body["error"])
	assert.Equal(t, []any{}, body["groups"])

	ts.wa.ready = true
	rec, body = ts.do(t, http.MethodGet, "/api/whatsapp/groups", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["groups"], 3)

	ts.wa.groups = []whatsapp.Group{}
	rec, body = ts.do(t, http.MethodGet, "/api/whatsapp/groups", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, []any{}, body["groups"])

	ts.wa.groupsErr = errors.New("iq timeout")
	rec, _ = ts.do(t, http.MethodGet, "/api/whatsapp/groups", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSendWhatsAppRoute(t *testing.T) {
	ts := newTestServer(t)

	rec, body := ts.do(t, http.MethodPost, "/api/staff-rota/send-whatsapp", `{"groupName":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Group name is required", body["error"])

	rec, _ = ts.do(t, http.MethodPost, "/api/staff-rota/send-whatsapp", `{"groupName":"staff"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Zero(t, ts.renderer.calls, "not-ready must fail before rendering")

	ts.wa.ready = true
	rec, body = ts.do(t, http.MethodPost, "/api/staff-rota/send-whatsapp", `{"groupName":"staff"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "111@g.us", body["groupId"])
	assert.Equal(t, "Staff Team", body["groupName"])
	assert.Equal(t, []string{"111@g.us"}, ts.wa.sentTo)

	rec, body = ts.do(t, http.MethodPost, "/api/staff-rota/send-whatsapp", `{"groupName":"managers"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, `Group "managers" not found. Available groups: Staff Team, staff updates, Kitchen`, body["error"])

	ts.wa.sendErr = fmt.Errorf("%w: %w", whatsapp.ErrSendFailed, errors.New("upload rejected"))
	rec, body = ts.do(t, http.MethodPost, "/api/staff-rota/send-whatsapp", `{"groupName":"kitchen"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, body["error"], "upload rejected")

	rec, _ = ts.do(t, http.MethodPost, "/api/staff-rota/send-whatsapp", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateImageRoute(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodGet, "/api/staff-rota/generate-image", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="staff-rota.png"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "\x89PNG", rec.Body.String())

	ts.renderer.err = errors.New("chrome not found")
	rec, body := ts.do(t, http.MethodGet, "/api/staff-rota/generate-image", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to generate image", body["error"])
}

func TestSheetRoutes(t *testing.T) {
	ts := newTestServer(t)

	rec, body := ts.do(t, http.MethodGet, "/api/sheets/staff-rota", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "staff-rota", body["sheet"])

	rec, _ = ts.do(t, http.MethodGet, "/api/sheets/payroll", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, "/api/sheets/bookings?date=bad", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = ts.do(t, http.MethodPost, "/api/sheets/staff-rota/batch",
		`{"creates":[{"employeeName":"John Smith","position":"Manager","shiftDate":"2026-01-13","startTime":"09:00","endTime":"17:00","status":"Scheduled"}],"deletes":[7]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["deleted"])
	created := body["created"].([]any)
	require.Len(t, created, 1)
	assert.Equal(t, float64(100), created[0].(map[string]any)["id"])
	assert.Equal(t, []int64{7}, ts.sheets.rotaBatch.Deletes)

	rec, _ = ts.do(t, http.MethodPatch, "/api/sheets/inventory/12/quantity", `{"quantity":3.5}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(12), ts.sheets.qtyID)
	assert.Equal(t, 3.5, ts.sheets.qty)

	rec, _ = ts.do(t, http.MethodPatch, "/api/sheets/inventory/404/quantity", `{"quantity":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = ts.do(t, http.MethodPatch, "/api/sheets/inventory/12/quantity", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = ts.do(t, http.MethodGet, "/api/categories", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"Dairy", "Dry Goods"}, body["categories"])
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	ts := newTestServer(t)

	rec, body := ts.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	rec, _ = ts.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "smartsheet_http_requests_total")

	rec, body = ts.do(t, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestDisabledWhatsAppRoutes(t *testing.T) {
	handler := NewRouter(RouterDeps{Logger: logging.Nop()})
	req := httptest.NewRequest(http.MethodPost, "/api/whatsapp/init", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
