package sheets

import (
	"context"
	"errors"
	"testing"

	"smartsheet/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	store := NewPostgresStore(testutil.NewPostgresTestPool(t))
	require.NoError(t, store.EnsureSchema(context.Background()))
	return store
}

func TestPostgresStoreRotaBatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := SeedRota(ctx, store)
	require.NoError(t, err)
	require.Len(t, created, 8)
	for _, row := range created {
		assert.Positive(t, row.ID)
	}

	first := created[0]
	first.Status = "Confirmed"
	result, err := store.ApplyRotaBatch(ctx, Batch[RotaShift]{
		Updates: []RotaShift{first},
		Deletes: []int64{created[1].ID},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Deleted)

	rows, err := store.ListStaffRota(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 7)
	// Mike Davis starts at 06:00 on the first day.
	assert.Equal(t, "Mike Davis", rows[0].EmployeeName)
	for _, row := range rows {
		if row.ID == first.ID {
			assert.Equal(t, "Confirmed", row.Status)
			assert.Equal(t, "09:00:00", row.StartTime)
		}
	}
}

func TestPostgresStoreBatchIsAtomic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.ApplyRotaBatch(ctx, Batch[RotaShift]{
		Creates: SampleRota()[:1],
		Updates: []RotaShift{{ID: 9999, EmployeeName: "Ghost", Position: "None", ShiftDate: "2026-01-13", StartTime: "09:00", EndTime: "10:00", Status: "Scheduled"}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	rows, err := store.ListStaffRota(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestPostgresStoreInventory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	result, err := store.ApplyInventoryBatch(ctx, Batch[InventoryItem]{Creates: []InventoryItem{
		{ItemName: "Flour", Quantity: 12, Unit: "kg", Status: "In Stock", CategoryName: "Dry Goods"},
		{ItemName: "Milk", Quantity: 4, Unit: "l", Status: "Low", CategoryName: "Dairy", Date: "2026-01-20"},
	}})
	require.NoError(t, err)
	require.Len(t, result.Created, 2)

	categories, err := store.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dairy", "Dry Goods"}, categories)

	require.NoError(t, store.UpdateQuantity(ctx, result.Created[0].ID, 7.5))
	items, err := store.ListInventory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7.5, items[0].Quantity)
	assert.Equal(t, "2026-01-20", items[1].Date)

	assert.True(t, IsNotFound(store.UpdateQuantity(ctx, 424242, 1)))
	assert.True(t, errors.Is(store.UpdateQuantity(ctx, result.Created[0].ID, -1), ErrValidation))
}

func TestPostgresStoreBookingsFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.ApplyBookingBatch(ctx, Batch[Booking]{Creates: []Booking{
		{CustomerName: "Emma Thompson", NumberOfPeople: 4, BookingDate: "2026-02-14", BookingTime: "19:30", Status: "Confirmed"},
		{CustomerName: "Oliver Martinez", NumberOfPeople: 2, BookingDate: "2026-02-15", BookingTime: "12:00", Status: "Pending"},
	}})
	require.NoError(t, err)

	all, err := store.ListBookings(ctx, BookingFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	day, err := store.ListBookings(ctx, BookingFilter{Date: "2026-02-15"})
	require.NoError(t, err)
	require.Len(t, day, 1)
	assert.Equal(t, "Oliver Martinez", day[0].CustomerName)
	assert.Equal(t, "12:00:00", day[0].BookingTime)

	_, err = store.ListBookings(ctx, BookingFilter{Date: "Feb 15"})
	assert.True(t, errors.Is(err, ErrValidation))
}
