package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"pawnest/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// DB is the booking document store. One handle is created at startup and
// shared across requests; per-document reads and updates are atomic at the
// sqlite layer.
type DB struct {
	db       *sql.DB
	logger   *zerolog.Logger
	mu       sync.RWMutex
	shelters map[string]models.Shelter
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{db: db, logger: logger, shelters: make(map[string]models.Shelter)}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS bookings (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL,
            shelter_id TEXT NOT NULL,
            amount REAL,
            currency TEXT NOT NULL DEFAULT 'EGP',
            booking_status TEXT NOT NULL DEFAULT 'pending',
            payment_status TEXT NOT NULL DEFAULT 'pending',
            provider_order_id INTEGER,
            transaction_id TEXT,
            paid_at DATETIME,
            created_at DATETIME NOT NULL,
            status_updated_at DATETIME,
            status_updated_by TEXT,
            accepted_at DATETIME,
            rejected_at DATETIME,
            status_note TEXT,
            customer_first_name TEXT NOT NULL DEFAULT '',
            customer_last_name TEXT NOT NULL DEFAULT '',
            customer_email TEXT NOT NULL DEFAULT '',
            customer_phone TEXT NOT NULL DEFAULT '',
            location TEXT,
            from_date DATETIME,
            to_date DATETIME,
            nights INTEGER,
            pet_count INTEGER,
            pet_ids TEXT NOT NULL DEFAULT '[]',
            booking_data TEXT
        )`,
		`CREATE TABLE IF NOT EXISTS sync_queue (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            task_type TEXT NOT NULL,
            booking_id TEXT NOT NULL,
            payload TEXT,
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at DATETIME NOT NULL,
            processed_at DATETIME,
            next_retry_at DATETIME
        )`,

		// provider_order_id is deliberately NOT unique: the fallback lookup
		// takes the oldest match (see FindByProviderOrder).
		`CREATE INDEX IF NOT EXISTS idx_bookings_provider_order_id ON bookings(provider_order_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_payment_status ON bookings(payment_status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_booking_status ON bookings(booking_status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_created_at ON bookings(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_queue_status ON sync_queue(status)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// SetShelters устанавливает каталог приютов для проверки заявок
func (db *DB) SetShelters(shelters []models.Shelter) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.shelters = make(map[string]models.Shelter, len(shelters))
	for _, shelter := range shelters {
		db.shelters[shelter.ID] = shelter
	}
}

// GetShelter returns a catalog entry by id.
func (db *DB) GetShelter(id string) (models.Shelter, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	shelter, ok := db.shelters[id]
	return shelter, ok
}

// HasShelters reports whether a catalog was configured at all.
func (db *DB) HasShelters() bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.shelters) > 0
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

func (db *DB) Close() error {
	return db.db.Close()
}
