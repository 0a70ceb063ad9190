package sheets

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// RowError describes a rejected row in a batch.
type RowError struct {
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every problem in a batch so the grid can
// highlight all of them at once.
type ValidationError struct {
	Problems []RowError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, fmt.Sprintf("row %d: %s %s", p.Index, p.Field, p.Message))
	}
	return "invalid rows: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type rowChecker struct {
	index    int
	problems []RowError
}

func (c *rowChecker) add(field, msg string) {
	c.problems = append(c.problems, RowError{Index: c.index, Field: field, Message: msg})
}

func (c *rowChecker) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		c.add(field, "is required")
	}
}

// date normalises an optional or required YYYY-MM-DD value in place.
func (c *rowChecker) date(field string, value *string, required bool) {
	v := strings.TrimSpace(*value)
	if v == "" {
		if required {
			c.add(field, "is required")
		}
		*value = ""
		return
	}
	if len(v) > len(dateLayout) {
		v = v[:len(dateLayout)]
	}
	if _, err := time.Parse(dateLayout, v); err != nil {
		c.add(field, "must be YYYY-MM-DD")
		return
	}
	*value = v
}

// clock normalises HH:MM or HH:MM:SS to HH:MM:SS in place.
func (c *rowChecker) clock(field string, value *string) {
	v := strings.TrimSpace(*value)
	if v == "" {
		c.add(field, "is required")
		return
	}
	for _, layout := range []string{timeLayout, "15:04"} {
		if t, err := time.Parse(layout, v); err == nil {
			*value = t.Format(timeLayout)
			return
		}
	}
	c.add(field, "must be HH:MM or HH:MM:SS")
}

// NormalizeInventory validates rows and trims their fields in place.
func NormalizeInventory(rows []InventoryItem, offset int) []RowError {
	var problems []RowError
	for i := range rows {
		row := &rows[i]
		c := rowChecker{index: offset + i}
		row.ItemName = strings.TrimSpace(row.ItemName)
		row.Unit = strings.TrimSpace(row.Unit)
		row.Status = strings.TrimSpace(row.Status)
		row.CategoryName = strings.TrimSpace(row.CategoryName)
		c.required("itemName", row.ItemName)
		c.required("unit", row.Unit)
		c.required("status", row.Status)
		if row.Quantity < 0 {
			c.add("quantity", "must not be negative")
		}
		c.date("date", &row.Date, false)
		problems = append(problems, c.problems...)
	}
	return problems
}

// NormalizeRota validates rows and normalises dates and times in place.
func NormalizeRota(rows []RotaShift, offset int) []RowError {
	var problems []RowError
	for i := range rows {
		row := &rows[i]
		c := rowChecker{index: offset + i}
		row.EmployeeName = strings.TrimSpace(row.EmployeeName)
		row.Position = strings.TrimSpace(row.Position)
		row.Location = strings.TrimSpace(row.Location)
		row.Status = strings.TrimSpace(row.Status)
		c.required("employeeName", row.EmployeeName)
		c.required("position", row.Position)
		c.required("status", row.Status)
		c.date("shiftDate", &row.ShiftDate, true)
		c.clock("startTime", &row.StartTime)
		c.clock("endTime", &row.EndTime)
		problems = append(problems, c.problems...)
	}
	return problems
}

// NormalizeBookings validates rows and normalises dates and times in place.
func NormalizeBookings(rows []Booking, offset int) []RowError {
	var problems []RowError
	for i := range rows {
		row := &rows[i]
		c := rowChecker{index: offset + i}
		row.CustomerName = strings.TrimSpace(row.CustomerName)
		row.Status = strings.TrimSpace(row.Status)
		c.required("customerName", row.CustomerName)
		c.required("status", row.Status)
		if row.NumberOfPeople <= 0 {
			c.add("numberOfPeople", "must be at least 1")
		}
		c.date("bookingDate", &row.BookingDate, true)
		c.clock("bookingTime", &row.BookingTime)
		problems = append(problems, c.problems...)
	}
	return problems
}

func checkUpdateIDs[T any](rows []T, id func(T) int64, offset int) []RowError {
	var problems []RowError
	for i, row := range rows {
		if id(row) <= 0 {
			problems = append(problems, RowError{Index: offset + i, Field: "id", Message: "is required for updates"})
		}
	}
	return problems
}

func validationErr(problems []RowError) error {
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}
