// internal/storage/sqlite.go
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Pragmas are applied per connection through the DSN. Write transactions
// take the database lock up front so two writers never deadlock on upgrade.
const dsnParams = "?_pragma=busy_timeout(10000)" +
	"&_pragma=journal_mode(WAL)" +
	"&_pragma=foreign_keys(1)" +
	"&_pragma=synchronous(NORMAL)" +
	"&_txlock=immediate"

type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Queries holds every read and write the application performs. It is bound
// either to the database handle or to an open transaction.
type Queries struct {
	q querier
}

// SQLiteStorage is the SQLite-backed store for foods, the diary and the
// derived food pair associations.
type SQLiteStorage struct {
	*Queries
	db   *sql.DB
	path string
}

// Tx is a Queries bound to a write transaction, see SQLiteStorage.WithTx.
type Tx struct {
	*Queries
}

func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	storage := &SQLiteStorage{Queries: &Queries{q: db}, db: db, path: dbPath}
	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) Path() string {
	return s.path
}

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// WithTx runs fn inside a single write transaction. The transaction commits
// only when fn returns nil; any error rolls back every write fn made.
func (s *SQLiteStorage) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w: %v", ErrStoreUnavailable, err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{Queries: &Queries{q: sqlTx}}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return classify(err, "commit transaction")
	}
	return nil
}

// BackupTo writes a consistent copy of the database to dest, which must not
// exist yet.
func (s *SQLiteStorage) BackupTo(ctx context.Context, dest string) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		return classify(err, "vacuum into backup file")
	}
	return nil
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS foods (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL UNIQUE,
        category TEXT NOT NULL DEFAULT 'unknown',
        brand TEXT NOT NULL DEFAULT '',
        calories REAL NOT NULL DEFAULT 0,
        protein REAL NOT NULL DEFAULT 0,
        carbohydrates REAL NOT NULL DEFAULT 0,
        fat REAL NOT NULL DEFAULT 0,
        fiber REAL NOT NULL DEFAULT 0,
        sugar REAL NOT NULL DEFAULT 0,
        saturated_fat REAL NOT NULL DEFAULT 0,
        unsaturated_fat REAL NOT NULL DEFAULT 0,
        cholesterol REAL NOT NULL DEFAULT 0,
        sodium REAL NOT NULL DEFAULT 0,
        potassium REAL NOT NULL DEFAULT 0,
        calcium REAL NOT NULL DEFAULT 0,
        iron REAL NOT NULL DEFAULT 0,
        vitamin_a REAL NOT NULL DEFAULT 0,
        vitamin_c REAL NOT NULL DEFAULT 0,
        vitamin_d REAL NOT NULL DEFAULT 0,
        vitamin_b12 REAL NOT NULL DEFAULT 0,
        magnesium REAL NOT NULL DEFAULT 0,
        used INTEGER NOT NULL DEFAULT 0,
        last_used TEXT,
        last_portion REAL NOT NULL DEFAULT 1,
        created_at TEXT NOT NULL,
        updated_at TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS diary_entries (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        date TEXT NOT NULL,
        meal_type TEXT NOT NULL,
        food_id INTEGER NOT NULL REFERENCES foods(id) ON DELETE RESTRICT,
        amount_grams REAL NOT NULL DEFAULT 100,
        notes TEXT NOT NULL DEFAULT '',
        created_at TEXT NOT NULL,
        updated_at TEXT NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_diary_date_meal ON diary_entries(date, meal_type);
    CREATE INDEX IF NOT EXISTS idx_diary_food_meal ON diary_entries(food_id, meal_type);

    CREATE TABLE IF NOT EXISTS food_associations (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        meal_type TEXT NOT NULL,
        food_low_id INTEGER NOT NULL REFERENCES foods(id) ON DELETE CASCADE,
        food_high_id INTEGER NOT NULL REFERENCES foods(id) ON DELETE CASCADE,
        co_occurrence_count INTEGER NOT NULL DEFAULT 0,
        total_occurrences_food_low INTEGER NOT NULL DEFAULT 0,
        total_occurrences_food_high INTEGER NOT NULL DEFAULT 0,
        confidence REAL NOT NULL DEFAULT 0,
        reverse_confidence REAL NOT NULL DEFAULT 0,
        support REAL NOT NULL DEFAULT 0,
        created_at TEXT NOT NULL,
        updated_at TEXT NOT NULL,
        CHECK (food_low_id < food_high_id)
    );

    CREATE UNIQUE INDEX IF NOT EXISTS idx_meal_food_pair ON food_associations(meal_type, food_low_id, food_high_id);
    CREATE INDEX IF NOT EXISTS idx_meal_confidence ON food_associations(meal_type, confidence);
    CREATE INDEX IF NOT EXISTS idx_assoc_high ON food_associations(meal_type, food_high_id);

    CREATE TABLE IF NOT EXISTS exercises (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        date TEXT NOT NULL,
        name TEXT NOT NULL,
        duration_minutes REAL NOT NULL DEFAULT 0,
        calories_burned REAL NOT NULL DEFAULT 0
    );

    CREATE INDEX IF NOT EXISTS idx_exercises_date ON exercises(date);

    CREATE TABLE IF NOT EXISTS weights (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        date TEXT NOT NULL,
        weight_kg REAL NOT NULL
    );

    CREATE TABLE IF NOT EXISTS user_goals (
        id INTEGER PRIMARY KEY CHECK (id = 1),
        daily_calories REAL NOT NULL,
        protein_target REAL NOT NULL,
        carbs_target REAL NOT NULL,
        fat_target REAL NOT NULL
    );

    CREATE TABLE IF NOT EXISTS user_settings (
        id INTEGER PRIMARY KEY CHECK (id = 1),
        data TEXT NOT NULL,
        created_at TEXT NOT NULL,
        updated_at TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS nutrients (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL UNIQUE,
        calories_per_gram REAL NOT NULL,
        description TEXT NOT NULL DEFAULT ''
    );
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

func now() time.Time {
	return time.Now().UTC()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}
