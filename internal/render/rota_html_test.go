package render

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"smartsheet/internal/sheets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	shifts []sheets.RotaShift
	err    error
}

func (s stubSource) ListStaffRota(context.Context) ([]sheets.RotaShift, error) {
	return s.shifts, s.err
}

var fixedNow = time.Date(2026, 1, 13, 8, 30, 0, 0, time.UTC)

func TestBuildRotaHTML(t *testing.T) {
	shifts := []sheets.RotaShift{
		{EmployeeName: "John Smith", Position: "Manager", ShiftDate: "2026-01-13", StartTime: "09:00:00", EndTime: "17:00:00", Location: "Main Office", Status: "Scheduled"},
		{EmployeeName: "Mike <Davis>", Position: "Stock Clerk", ShiftDate: "2026-01-14", StartTime: "06:00:00", EndTime: "14:00:00", Status: "On Leave"},
	}
	doc, err := BuildRotaHTML(shifts, fixedNow)
	require.NoError(t, err)

	assert.Contains(t, doc, "Generated on Tuesday, January 13, 2026")
	assert.Contains(t, doc, "<td>Jan 13</td>")
	assert.Contains(t, doc, "09:00:00 - 17:00:00")
	assert.Contains(t, doc, `class="status status-scheduled"`)
	assert.Contains(t, doc, `class="status status-on-leave"`)
	assert.Contains(t, doc, "<td>-</td>")
	assert.Contains(t, doc, "Mike &lt;Davis&gt;")
	assert.NotContains(t, doc, "No shifts scheduled")

	for _, header := range []string{"Employee", "Position", "Date", "Shift Time", "Location", "Status"} {
		assert.Contains(t, doc, "<th>"+header+"</th>")
	}
}

func TestBuildRotaHTMLEmpty(t *testing.T) {
	doc, err := BuildRotaHTML(nil, fixedNow)
	require.NoError(t, err)
	assert.Contains(t, doc, "No shifts scheduled")
}

func TestShortDate(t *testing.T) {
	assert.Equal(t, "Jan 13", shortDate("2026-01-13"))
	assert.Equal(t, "soon", shortDate("soon"))
}

func TestRendererHTMLUsesSource(t *testing.T) {
	r := NewRotaRenderer(stubSource{shifts: sheets.SampleRota()}, Options{Now: func() time.Time { return fixedNow }})
	doc, err := r.HTML(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(sheets.SampleRota()), strings.Count(doc, `class="employee-name"`))

	r = NewRotaRenderer(stubSource{err: errors.New("db down")}, Options{})
	_, err = r.HTML(context.Background())
	require.ErrorContains(t, err, "db down")
}

func TestNewChromeContextRejectsBadConfig(t *testing.T) {
	_, _, err := newChromeContext(context.Background(), ChromeConfig{Mode: "remote"})
	require.Error(t, err)
	_, _, err = newChromeContext(context.Background(), ChromeConfig{Mode: "wasm"})
	require.Error(t, err)
}
