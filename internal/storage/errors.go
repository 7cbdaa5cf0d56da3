// internal/storage/errors.go
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrSelfPair         = errors.New("a food cannot be paired with itself")
	ErrDuplicate        = errors.New("already exists")
	ErrInUse            = errors.New("still referenced")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// classify maps driver errors onto the package's sentinel errors while
// keeping the original error in the chain.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
	}

	var serr *sqlite.Error
	if errors.As(err, &serr) {
		switch serr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_CANTOPEN,
			sqlite3.SQLITE_IOERR, sqlite3.SQLITE_FULL, sqlite3.SQLITE_READONLY:
			return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
		case sqlite3.SQLITE_CONSTRAINT:
			return classifyConstraint(serr.Code(), err, op)
		}
	}
	if strings.Contains(err.Error(), "database is closed") {
		return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func classifyConstraint(code int, err error, op string) error {
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return fmt.Errorf("%s: %w: %v", op, ErrDuplicate, err)
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return fmt.Errorf("%s: %w: %v", op, ErrInUse, err)
	}
	// primary result code only
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%s: %w: %v", op, ErrDuplicate, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%s: %w: %v", op, ErrInUse, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
