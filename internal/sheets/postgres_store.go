package sheets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smartsheet/internal/shared/logging"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	categoriesTable = "categories"
	inventoryTable  = "inventory_items"
	rotaTable       = "staff_rota"
	bookingsTable   = "bookings"
)

// PoolOptions tunes the shared connection pool.
type PoolOptions struct {
	MaxConns       int32
	ConnectTimeout time.Duration
}

// OpenPool parses dbURL, applies opts and pings the database.
func OpenPool(ctx context.Context, dbURL string, opts PoolOptions) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if opts.MaxConns > 0 {
		poolConfig.MaxConns = opts.MaxConns
	}
	if opts.ConnectTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = opts.ConnectTimeout
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// PostgresStore persists every grid in Postgres.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewPostgresStore constructs a store over an open pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		pool:   pool,
		logger: logging.NewComponentLogger("SheetStore"),
	}
}

// Ping checks the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("sheet store not initialized")
	}
	return s.pool.Ping(ctx)
}

// EnsureSchema creates the grid tables if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("sheet store not initialized")
	}
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + categoriesTable + ` (
    category_name VARCHAR(255) PRIMARY KEY
);`,
		`CREATE TABLE IF NOT EXISTS ` + inventoryTable + ` (
    id SERIAL PRIMARY KEY,
    item_name VARCHAR(255) NOT NULL,
    quantity DOUBLE PRECISION NOT NULL,
    unit VARCHAR(50) NOT NULL,
    status VARCHAR(50) NOT NULL,
    item_date DATE,
    category_name VARCHAR(255) REFERENCES ` + categoriesTable + ` (category_name)
);`,
		`CREATE TABLE IF NOT EXISTS ` + rotaTable + ` (
    id SERIAL PRIMARY KEY,
    employee_name VARCHAR(255) NOT NULL,
    position VARCHAR(100) NOT NULL,
    shift_date DATE NOT NULL,
    start_time TIME NOT NULL,
    end_time TIME NOT NULL,
    location VARCHAR(100),
    status VARCHAR(50) NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_` + rotaTable + `_shift ON ` + rotaTable + ` (shift_date, start_time);`,
		`CREATE TABLE IF NOT EXISTS ` + bookingsTable + ` (
    id SERIAL PRIMARY KEY,
    customer_name VARCHAR(255) NOT NULL,
    number_of_people INTEGER NOT NULL,
    allergies TEXT,
    booking_date DATE NOT NULL,
    booking_time TIME NOT NULL,
    phone_number VARCHAR(50),
    email VARCHAR(255),
    special_requests TEXT,
    status VARCHAR(50) NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_` + bookingsTable + `_date ON ` + bookingsTable + ` (booking_date, booking_time);`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure sheet schema: %w", err)
		}
	}
	return nil
}

// ListCategories returns every category name in alphabetical order.
func (s *PostgresStore) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT category_name FROM `+categoriesTable+` ORDER BY category_name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return names, nil
}

// ListInventory returns every inventory row by id.
func (s *PostgresStore) ListInventory(ctx context.Context) ([]InventoryItem, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, item_name, quantity, unit, status,
       COALESCE(item_date::text, ''), COALESCE(category_name, '')
FROM `+inventoryTable+`
ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	return collect(rows, scanInventory, "list inventory")
}

// ListStaffRota returns every shift ordered by date then start time.
func (s *PostgresStore) ListStaffRota(ctx context.Context) ([]RotaShift, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, employee_name, position, shift_date::text, start_time::text,
       end_time::text, COALESCE(location, ''), status
FROM `+rotaTable+`
ORDER BY shift_date, start_time, id`)
	if err != nil {
		return nil, fmt.Errorf("list staff rota: %w", err)
	}
	return collect(rows, scanRota, "list staff rota")
}

// ListBookings returns bookings, optionally for a single date.
func (s *PostgresStore) ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error) {
	var date any
	if filter.Date != "" {
		if _, err := time.Parse(dateLayout, filter.Date); err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
		}
		date = filter.Date
	}
	rows, err := s.pool.Query(ctx, `
SELECT id, customer_name, number_of_people, COALESCE(allergies, ''),
       booking_date::text, booking_time::text, COALESCE(phone_number, ''),
       COALESCE(email, ''), COALESCE(special_requests, ''), status
FROM `+bookingsTable+`
WHERE $1::date IS NULL OR booking_date = $1::date
ORDER BY booking_date, booking_time, id`, date)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return collect(rows, scanBooking, "list bookings")
}

// UpdateQuantity sets the quantity of one inventory row.
func (s *PostgresStore) UpdateQuantity(ctx context.Context, id int64, quantity float64) error {
	if quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", ErrValidation)
	}
	tag, err := s.pool.Exec(ctx, `UPDATE `+inventoryTable+` SET quantity = $2 WHERE id = $1`, id, quantity)
	if err != nil {
		return fmt.Errorf("update quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: inventory item %d", ErrNotFound, id)
	}
	return nil
}

// ApplyInventoryBatch saves one inventory grid edit session atomically. The
// caller's batch is left untouched; returned rows carry the normalised values.
// Categories referenced by rows are created on the fly.
func (s *PostgresStore) ApplyInventoryBatch(ctx context.Context, batch Batch[InventoryItem]) (BatchResult[InventoryItem], error) {
	batch = batch.clone()
	problems := NormalizeInventory(batch.Creates, 0)
	problems = append(problems, NormalizeInventory(batch.Updates, len(batch.Creates))...)
	problems = append(problems, checkUpdateIDs(batch.Updates, func(r InventoryItem) int64 { return r.ID }, len(batch.Creates))...)
	if err := validationErr(problems); err != nil {
		return BatchResult[InventoryItem]{}, err
	}

	ensureCategories := func(ctx context.Context, tx pgx.Tx) error {
		for _, rows := range [][]InventoryItem{batch.Creates, batch.Updates} {
			for _, row := range rows {
				if row.CategoryName == "" {
					continue
				}
				if _, err := tx.Exec(ctx, `INSERT INTO `+categoriesTable+` (category_name) VALUES ($1) ON CONFLICT DO NOTHING`, row.CategoryName); err != nil {
					return fmt.Errorf("ensure category: %w", err)
				}
			}
		}
		return nil
	}
	return applyBatch(ctx, s, inventoryOps, batch, ensureCategories)
}

// ApplyRotaBatch saves one staff rota edit session atomically.
func (s *PostgresStore) ApplyRotaBatch(ctx context.Context, batch Batch[RotaShift]) (BatchResult[RotaShift], error) {
	batch = batch.clone()
	problems := NormalizeRota(batch.Creates, 0)
	problems = append(problems, NormalizeRota(batch.Updates, len(batch.Creates))...)
	problems = append(problems, checkUpdateIDs(batch.Updates, func(r RotaShift) int64 { return r.ID }, len(batch.Creates))...)
	if err := validationErr(problems); err != nil {
		return BatchResult[RotaShift]{}, err
	}
	return applyBatch(ctx, s, rotaOps, batch, nil)
}

// ApplyBookingBatch saves one bookings edit session atomically.
func (s *PostgresStore) ApplyBookingBatch(ctx context.Context, batch Batch[Booking]) (BatchResult[Booking], error) {
	batch = batch.clone()
	problems := NormalizeBookings(batch.Creates, 0)
	problems = append(problems, NormalizeBookings(batch.Updates, len(batch.Creates))...)
	problems = append(problems, checkUpdateIDs(batch.Updates, func(r Booking) int64 { return r.ID }, len(batch.Creates))...)
	if err := validationErr(problems); err != nil {
		return BatchResult[Booking]{}, err
	}
	return applyBatch(ctx, s, bookingOps, batch, nil)
}

// rowOps binds a row type to its table.
type rowOps[T any] struct {
	table     string
	insertSQL string
	updateSQL string
	args      func(T) []any
	scan      func(pgx.Row) (T, error)
	id        func(T) int64
}

func applyBatch[T any](ctx context.Context, s *PostgresStore, ops rowOps[T], batch Batch[T], prepare func(context.Context, pgx.Tx) error) (BatchResult[T], error) {
	result := BatchResult[T]{Created: make([]T, 0, len(batch.Creates))}
	if s == nil || s.pool == nil {
		return result, fmt.Errorf("sheet store not initialized")
	}
	if batch.Empty() {
		return result, nil
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if prepare != nil {
			if err := prepare(ctx, tx); err != nil {
				return err
			}
		}
		for _, id := range batch.Deletes {
			tag, err := tx.Exec(ctx, `DELETE FROM `+ops.table+` WHERE id = $1`, id)
			if err != nil {
				return fmt.Errorf("delete %s %d: %w", ops.table, id, err)
			}
			result.Deleted += int(tag.RowsAffected())
		}
		for _, row := range batch.Updates {
			args := append([]any{ops.id(row)}, ops.args(row)...)
			tag, err := tx.Exec(ctx, ops.updateSQL, args...)
			if err != nil {
				return fmt.Errorf("update %s %d: %w", ops.table, ops.id(row), err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("%w: %s row %d", ErrNotFound, ops.table, ops.id(row))
			}
			result.Updated++
		}
		for _, row := range batch.Creates {
			created, err := ops.scan(tx.QueryRow(ctx, ops.insertSQL, ops.args(row)...))
			if err != nil {
				return fmt.Errorf("insert %s: %w", ops.table, err)
			}
			result.Created = append(result.Created, created)
		}
		return nil
	})
	if err != nil {
		return BatchResult[T]{}, err
	}
	s.logger.Info("Saved %s batch: created=%d updated=%d deleted=%d",
		ops.table, len(result.Created), result.Updated, result.Deleted)
	return result, nil
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error), op string) ([]T, error) {
	defer rows.Close()
	out := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// nullable stores empty strings as NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var inventoryOps = rowOps[InventoryItem]{
	table: inventoryTable,
	insertSQL: `
INSERT INTO ` + inventoryTable + ` (item_name, quantity, unit, status, item_date, category_name)
VALUES ($1, $2, $3, $4, $5::date, $6)
RETURNING id, item_name, quantity, unit, status,
          COALESCE(item_date::text, ''), COALESCE(category_name, '')`,
	updateSQL: `
UPDATE ` + inventoryTable + `
SET item_name = $2, quantity = $3, unit = $4, status = $5, item_date = $6::date, category_name = $7
WHERE id = $1`,
	args: func(r InventoryItem) []any {
		return []any{r.ItemName, r.Quantity, r.Unit, r.Status, nullable(r.Date), nullable(r.CategoryName)}
	},
	scan: scanInventory,
	id:   func(r InventoryItem) int64 { return r.ID },
}

var rotaOps = rowOps[RotaShift]{
	table: rotaTable,
	insertSQL: `
INSERT INTO ` + rotaTable + ` (employee_name, position, shift_date, start_time, end_time, location, status)
VALUES ($1, $2, $3::date, $4::time, $5::time, $6, $7)
RETURNING id, employee_name, position, shift_date::text, start_time::text,
          end_time::text, COALESCE(location, ''), status`,
	updateSQL: `
UPDATE ` + rotaTable + `
SET employee_name = $2, position = $3, shift_date = $4::date, start_time = $5::time,
    end_time = $6::time, location = $7, status = $8
WHERE id = $1`,
	args: func(r RotaShift) []any {
		return []any{r.EmployeeName, r.Position, r.ShiftDate, r.StartTime, r.EndTime, nullable(r.Location), r.Status}
	},
	scan: scanRota,
	id:   func(r RotaShift) int64 { return r.ID },
}

var bookingOps = rowOps[Booking]{
	table: bookingsTable,
	insertSQL: `
INSERT INTO ` + bookingsTable + ` (customer_name, number_of_people, allergies, booking_date, booking_time,
                                   phone_number, email, special_requests, status)
VALUES ($1, $2, $3, $4::date, $5::time, $6, $7, $8, $9)
RETURNING id, customer_name, number_of_people, COALESCE(allergies, ''),
          booking_date::text, booking_time::text, COALESCE(phone_number, ''),
          COALESCE(email, ''), COALESCE(special_requests, ''), status`,
	updateSQL: `
UPDATE ` + bookingsTable + `
SET customer_name = $2, number_of_people = $3, allergies = $4, booking_date = $5::date,
    booking_time = $6::time, phone_number = $7, email = $8, special_requests = $9, status = $10
WHERE id = $1`,
	args: func(r Booking) []any {
		return []any{r.CustomerName, r.NumberOfPeople, nullable(r.Allergies), r.BookingDate, r.BookingTime,
			nullable(r.PhoneNumber), nullable(r.Email), nullable(r.SpecialRequests), r.Status}
	},
	scan: scanBooking,
	id:   func(r Booking) int64 { return r.ID },
}

func scanInventory(row pgx.Row) (InventoryItem, error) {
	var item InventoryItem
	err := row.Scan(&item.ID, &item.ItemName, &item.Quantity, &item.Unit, &item.Status, &item.Date, &item.CategoryName)
	return item, err
}

func scanRota(row pgx.Row) (RotaShift, error) {
	var shift RotaShift
	err := row.Scan(&shift.ID, &shift.EmployeeName, &shift.Position, &shift.ShiftDate,
		&shift.StartTime, &shift.EndTime, &shift.Location, &shift.Status)
	return shift, err
}

func scanBooking(row pgx.Row) (Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.CustomerName, &b.NumberOfPeople, &b.Allergies, &b.BookingDate,
		&b.BookingTime, &b.PhoneNumber, &b.Email, &b.SpecialRequests, &b.Status)
	return b, err
}

// IsNotFound reports whether err is a missing sheet or row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, pgx.ErrNoRows)
}
