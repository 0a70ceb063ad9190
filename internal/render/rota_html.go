// Package render turns the staff rota into a shareable PNG.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"

	"smartsheet/internal/sheets"
)

//go:embed templates/rota.html.tmpl
var templateFS embed.FS

var rotaTemplate = template.Must(template.ParseFS(templateFS, "templates/rota.html.tmpl"))

const (
	rotaTitle  = "Staff Rota Schedule"
	rotaFooter = "📱 Shared via WhatsApp • DataTable Management System"
)

type rotaRow struct {
	EmployeeName string
	Position     string
	Date         string
	StartTime    string
	EndTime      string
	Location     string
	Status       string
	StatusClass  string
}

type rotaPage struct {
	Title       string
	GeneratedOn string
	Footer      string
	Rows        []rotaRow
}

var nonClassChars = regexp.MustCompile(`[^a-z0-9-]+`)

// BuildRotaHTML renders shifts into the standalone HTML document that gets
// screenshotted.
func BuildRotaHTML(shifts []sheets.RotaShift, now time.Time) (string, error) {
	data := rotaPage{
		Title:       rotaTitle,
		GeneratedOn: now.Format("Monday, January 2, 2006"),
		Footer:      rotaFooter,
		Rows:        make([]rotaRow, 0, len(shifts)),
	}
	for _, shift := range shifts {
		location := shift.Location
		if strings.TrimSpace(location) == "" {
			location = "-"
		}
		data.Rows = append(data.Rows, rotaRow{
			EmployeeName: shift.EmployeeName,
			Position:     shift.Position,
			Date:         shortDate(shift.ShiftDate),
			StartTime:    shift.StartTime,
			EndTime:      shift.EndTime,
			Location:     location,
			Status:       shift.Status,
			StatusClass:  statusClass(shift.Status),
		})
	}

	var buf bytes.Buffer
	if err := rotaTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render rota html: %w", err)
	}
	return buf.String(), nil
}

// shortDate formats YYYY-MM-DD as "Jan 13"; unparseable input is shown as is.
func shortDate(value string) string {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return value
	}
	return t.Format("Jan 2")
}

func statusClass(status string) string {
	slug := nonClassChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(status)), "-")
	return "status-" + strings.Trim(slug, "-")
}
