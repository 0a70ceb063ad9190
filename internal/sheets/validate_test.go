package sheets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRota(t *testing.T) {
	rows := []RotaShift{
		{EmployeeName: " John Smith ", Position: "Manager", ShiftDate: "2026-01-13T00:00:00Z", StartTime: "9:00", EndTime: "17:00:00", Status: "Scheduled"},
		{EmployeeName: "", Position: "Cashier", ShiftDate: "13/01/2026", StartTime: "late", EndTime: "", Status: "Scheduled"},
	}
	problems := NormalizeRota(rows, 0)

	assert.Equal(t, "John Smith", rows[0].EmployeeName)
	assert.Equal(t, "2026-01-13", rows[0].ShiftDate)
	assert.Equal(t, "09:00:00", rows[0].StartTime)

	fields := map[string]bool{}
	for _, p := range problems {
		assert.Equal(t, 1, p.Index)
		fields[p.Field] = true
	}
	assert.Equal(t, map[string]bool{
		"employeeName": true,
		"shiftDate":    true,
		"startTime":    true,
		"endTime":      true,
	}, fields)
}

func TestNormalizeInventory(t *testing.T) {
	rows := []InventoryItem{
		{ItemName: "Flour", Quantity: 12.5, Unit: "kg", Status: "In Stock", CategoryName: " Dry Goods "},
		{ItemName: "Milk", Quantity: -1, Unit: "", Status: "Low", Date: "tomorrow"},
	}
	problems := NormalizeInventory(rows, 3)

	assert.Equal(t, "Dry Goods", rows[0].CategoryName)
	require.Len(t, problems, 3)
	for _, p := range problems {
		assert.Equal(t, 4, p.Index)
	}
}

func TestNormalizeBookings(t *testing.T) {
	rows := []Booking{
		{CustomerName: "Emma Thompson", NumberOfPeople: 4, BookingDate: "2026-02-14", BookingTime: "19:30", Status: "Confirmed"},
		{CustomerName: "Oliver Martinez", NumberOfPeople: 0, BookingDate: "2026-02-14", BookingTime: "19:30", Status: "Pending"},
	}
	problems := NormalizeBookings(rows, 0)

	assert.Equal(t, "19:30:00", rows[0].BookingTime)
	require.Len(t, problems, 1)
	assert.Equal(t, RowError{Index: 1, Field: "numberOfPeople", Message: "must be at least 1"}, problems[0])
}

func TestValidationErrorWrapsSentinel(t *testing.T) {
	err := validationErr([]RowError{{Index: 0, Field: "status", Message: "is required"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "invalid rows: row 0: status is required", err.Error())
	assert.NoError(t, validationErr(nil))
}

func TestCheckUpdateIDs(t *testing.T) {
	problems := checkUpdateIDs([]RotaShift{{ID: 3}, {ID: 0}}, func(r RotaShift) int64 { return r.ID }, 2)
	require.Len(t, problems, 1)
	assert.Equal(t, 3, problems[0].Index)
}

func TestParseSheet(t *testing.T) {
	sheet, err := ParseSheet("Staff-Rota")
	require.NoError(t, err)
	assert.Equal(t, SheetStaffRota, sheet)

	_, err = ParseSheet("payroll")
	assert.True(t, IsNotFound(err))
}

func TestSampleRotaIsValid(t *testing.T) {
	rows := SampleRota()
	assert.Empty(t, NormalizeRota(rows, 0))
	assert.Len(t, rows, 8)
	assert.Equal(t, "John Smith", rows[0].EmployeeName)
}

func TestBatchEmpty(t *testing.T) {
	assert.True(t, Batch[Booking]{}.Empty())
	assert.False(t, Batch[Booking]{Deletes: []int64{1}}.Empty())
}

func TestApplyBatchLeavesCallerRowsUntouched(t *testing.T) {
	batch := Batch[RotaShift]{
		Creates: []RotaShift{{EmployeeName: " Jane Doe ", Position: "Chef", ShiftDate: "2026-01-13T00:00:00Z", StartTime: "9:00", EndTime: "17:00", Status: "Scheduled"}},
		Updates: []RotaShift{{ID: 4, EmployeeName: "Sam ", Position: "Server", ShiftDate: "2026-01-14", StartTime: "12:00", EndTime: "20:00", Status: "Scheduled"}},
	}

	// The zero store fails after validation, before touching Postgres.
	_, err := (&PostgresStore{}).ApplyRotaBatch(context.Background(), batch)
	require.ErrorContains(t, err, "not initialized")

	assert.Equal(t, " Jane Doe ", batch.Creates[0].EmployeeName)
	assert.Equal(t, "2026-01-13T00:00:00Z", batch.Creates[0].ShiftDate)
	assert.Equal(t, "9:00", batch.Creates[0].StartTime)
	assert.Equal(t, "Sam ", batch.Updates[0].EmployeeName)
}
