// Package sheets stores the editable grids behind the spreadsheet UI:
// inventory, staff rota and bookings.
package sheets

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Sheet names a grid.
type Sheet string

const (
	SheetInventory Sheet = "inventory"
	SheetStaffRota Sheet = "staff-rota"
	SheetBookings  Sheet = "bookings"
)

// ParseSheet accepts the route segment for a grid.
func ParseSheet(name string) (Sheet, error) {
	switch Sheet(strings.ToLower(strings.TrimSpace(name))) {
	case SheetInventory:
		return SheetInventory, nil
	case SheetStaffRota:
		return SheetStaffRota, nil
	case SheetBookings:
		return SheetBookings, nil
	default:
		return "", fmt.Errorf("%w: unknown sheet %q", ErrNotFound, name)
	}
}

var (
	// ErrNotFound is returned for unknown sheets and missing rows.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks rows rejected before touching the database.
	ErrValidation = errors.New("invalid row")
)

// InventoryItem is a row of the inventory grid.
type InventoryItem struct {
	ID           int64   `json:"id"`
	ItemName     string  `json:"itemName"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	Status       string  `json:"status"`
	Date         string  `json:"date,omitempty"`
	CategoryName string  `json:"categoryName,omitempty"`
}

// RotaShift is a row of the staff rota grid. Dates are YYYY-MM-DD and times
// HH:MM:SS, matching the Postgres text form.
type RotaShift struct {
	ID           int64  `json:"id"`
	EmployeeName string `json:"employeeName"`
	Position     string `json:"position"`
	ShiftDate    string `json:"shiftDate"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	Location     string `json:"location,omitempty"`
	Status       string `json:"status"`
}

// Booking is a row of the bookings grid.
type Booking struct {
	ID              int64  `json:"id"`
	CustomerName    string `json:"customerName"`
	NumberOfPeople  int    `json:"numberOfPeople"`
	Allergies       string `json:"allergies,omitempty"`
	BookingDate     string `json:"bookingDate"`
	BookingTime     string `json:"bookingTime"`
	PhoneNumber     string `json:"phoneNumber,omitempty"`
	Email           string `json:"email,omitempty"`
	SpecialRequests string `json:"specialRequests,omitempty"`
	Status          string `json:"status"`
}

// Batch is one grid "Save": new rows, edited rows and deleted ids.
type Batch[T any] struct {
	Creates []T     `json:"creates"`
	Updates []T     `json:"updates"`
	Deletes []int64 `json:"deletes"`
}

// Empty reports whether the batch carries no changes.
func (b Batch[T]) Empty() bool {
	return len(b.Creates) == 0 && len(b.Updates) == 0 && len(b.Deletes) == 0
}

// clone copies the row slices so normalisation never writes through to the
// caller's batch. Rows hold only value fields.
func (b Batch[T]) clone() Batch[T] {
	return Batch[T]{
		Creates: slices.Clone(b.Creates),
		Updates: slices.Clone(b.Updates),
		Deletes: slices.Clone(b.Deletes),
	}
}

// BatchResult reports what a batch did. Created rows carry their new ids.
type BatchResult[T any] struct {
	Created []T `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
}

// BookingFilter narrows the bookings list. An empty Date lists all.
type BookingFilter struct {
	Date string
}
