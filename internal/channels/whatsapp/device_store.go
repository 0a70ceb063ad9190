package whatsapp

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"smartsheet/internal/shared/logging"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	_ "modernc.org/sqlite"
)

const deviceDBFile = "whatsapp.db"

// StoreConfig selects where linked-device credentials are persisted.
type StoreConfig struct {
	// Dialect is "sqlite" or "postgres".
	Dialect string
	// DataDir holds the sqlite database file.
	DataDir string
	// DSN is the postgres connection string.
	DSN string
}

// DeviceStore persists the linked-device identity across restarts so a
// scanned session survives process restarts.
type DeviceStore struct {
	db        *sql.DB
	container *sqlstore.Container
}

// OpenDeviceStore opens and migrates the credential store.
func OpenDeviceStore(ctx context.Context, cfg StoreConfig, logger logging.Logger) (*DeviceStore, error) {
	driver, dialect, dsn, err := storeSource(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s credential store: %w", dialect, err)
	}
	if dialect == "sqlite" {
		// whatsmeow serialises writes; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s credential store: %w", dialect, err)
	}

	container := sqlstore.NewWithDB(db, dialect, newWALogger(logger, "Store"))
	if err := container.Upgrade(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate credential store: %w", err)
	}
	return &DeviceStore{db: db, container: container}, nil
}

func storeSource(cfg StoreConfig) (driver, dialect, dsn string, err error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Dialect)) {
	case "", "sqlite", "sqlite3":
		dir := strings.TrimSpace(cfg.DataDir)
		if dir == "" {
			dir = "."
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return "", "", "", fmt.Errorf("create data dir %s: %w", dir, err)
		}
		path := filepath.Join(dir, deviceDBFile)
		return "sqlite", "sqlite", "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", nil
	case "postgres", "postgresql", "pgx":
		if strings.TrimSpace(cfg.DSN) == "" {
			return "", "", "", fmt.Errorf("postgres credential store requires a DSN")
		}
		return "pgx", "postgres", cfg.DSN, nil
	default:
		return "", "", "", fmt.Errorf("unsupported credential store dialect %q", cfg.Dialect)
	}
}

// Device returns the stored device, or a fresh unpaired one when nothing has
// been linked yet.
func (s *DeviceStore) Device(ctx context.Context) (*store.Device, error) {
	device, err := s.container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("load device: %w", err)
	}
	return device, nil
}

// Close releases the database handle.
func (s *DeviceStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
