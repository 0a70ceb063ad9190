package sheets

import "context"

// SampleRota is a week-start rota used by `db seed-rota` and demos.
func SampleRota() []RotaShift {
	return []RotaShift{
		{EmployeeName: "John Smith", Position: "Manager", ShiftDate: "2026-01-13", StartTime: "09:00:00", EndTime: "17:00:00", Location: "Main Office", Status: "Scheduled"},
		{EmployeeName: "Sarah Johnson", Position: "Cashier", ShiftDate: "2026-01-13", StartTime: "08:00:00", EndTime: "16:00:00", Location: "Store Front", Status: "Scheduled"},
		{EmployeeName: "Mike Davis", Position: "Stock Clerk", ShiftDate: "2026-01-13", StartTime: "06:00:00", EndTime: "14:00:00", Location: "Warehouse", Status: "Confirmed"},
		{EmployeeName: "Emma Wilson", Position: "Supervisor", ShiftDate: "2026-01-14", StartTime: "10:00:00", EndTime: "18:00:00", Location: "Main Office", Status: "Scheduled"},
		{EmployeeName: "James Brown", Position: "Cashier", ShiftDate: "2026-01-14", StartTime: "12:00:00", EndTime: "20:00:00", Location: "Store Front", Status: "Pending"},
		{EmployeeName: "Lisa Anderson", Position: "Stock Clerk", ShiftDate: "2026-01-14", StartTime: "14:00:00", EndTime: "22:00:00", Location: "Warehouse", Status: "Confirmed"},
		{EmployeeName: "David Martinez", Position: "Security", ShiftDate: "2026-01-15", StartTime: "00:00:00", EndTime: "08:00:00", Location: "Main Entrance", Status: "Confirmed"},
		{EmployeeName: "Sarah Johnson", Position: "Cashier", ShiftDate: "2026-01-15", StartTime: "09:00:00", EndTime: "17:00:00", Location: "Store Front", Status: "Scheduled"},
	}
}

// RotaWriter is the part of the store the seeder needs.
type RotaWriter interface {
	ApplyRotaBatch(ctx context.Context, batch Batch[RotaShift]) (BatchResult[RotaShift], error)
}

// SeedRota inserts SampleRota and returns the created rows.
func SeedRota(ctx context.Context, store RotaWriter) ([]RotaShift, error) {
	result, err := store.ApplyRotaBatch(ctx, Batch[RotaShift]{Creates: SampleRota()})
	if err != nil {
		return nil, err
	}
	return result.Created, nil
}
