// Package ledger owns the roster and attendance records in SQLite. All
// rows are scoped to an admin (owner) so two institutions sharing one
// database never see each other's students.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// MarkResult reports what MarkPresent did.
type MarkResult int

const (
	// Inserted means a new attendance row was written.
	Inserted MarkResult = iota
	// AlreadyMarked means the identity already had a row for the day.
	// This is a success, not an error.
	AlreadyMarked
)

// DB is the SQLite-backed attendance ledger and roster.
type DB struct {
	sql     *sql.DB
	path    string
	adminID int
}

const schema = `
CREATE TABLE IF NOT EXISTS students (
	student_id INTEGER NOT NULL,
	name       TEXT NOT NULL,
	admin_id   INTEGER NOT NULL,
	PRIMARY KEY (student_id, admin_id)
);
CREATE TABLE IF NOT EXISTS attendance (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	student_id INTEGER NOT NULL,
	date       TEXT NOT NULL,
	status     TEXT NOT NULL,
	admin_id   INTEGER NOT NULL,
	UNIQUE (student_id, date, admin_id)
);
`

// Open opens (creating if needed) the ledger database. All subsequent
// operations are scoped to adminID.
func Open(path string, adminID int) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &DB{sql: sqlDB, path: path, adminID: adminID}, nil
}

func (db *DB) Close() error {
	return db.sql.Close()
}

// RegisterStudent adds an identity to the roster, updating the display
// name if the identity is being re-enrolled.
func (db *DB) RegisterStudent(ctx context.Context, studentID int, name string) error {
	_, err := db.sql.ExecContext(ctx, `
		INSERT INTO students (student_id, name, admin_id) VALUES (?, ?, ?)
		ON CONFLICT (student_id, admin_id) DO UPDATE SET name = excluded.name`,
		studentID, name, db.adminID)
	if err != nil {
		return fmt.Errorf("failed to register student %d: %w", studentID, err)
	}
	return nil
}

// MarkPresent records a "Present" mark for the identity on the given day
// (YYYY-MM-DD). The unique constraint makes the call idempotent: a repeat
// for the same key reports AlreadyMarked.
func (db *DB) MarkPresent(ctx context.Context, studentID int, date string) (MarkResult, error) {
	res, err := db.sql.ExecContext(ctx, `
		INSERT OR IGNORE INTO attendance (student_id, date, status, admin_id)
		VALUES (?, ?, 'Present', ?)`,
		studentID, date, db.adminID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark attendance for %d: %w", studentID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check attendance insert: %w", err)
	}
	if n == 0 {
		return AlreadyMarked, nil
	}
	return Inserted, nil
}

// ResolveDisplayName looks up a student's name, falling back to "Unknown"
// for identities missing from the roster.
func (db *DB) ResolveDisplayName(ctx context.Context, studentID int) string {
	var name string
	err := db.sql.QueryRowContext(ctx,
		`SELECT name FROM students WHERE student_id = ? AND admin_id = ?`,
		studentID, db.adminID).Scan(&name)
	if err != nil {
		return "Unknown"
	}
	return name
}

// Wipe deletes every roster and attendance row for this admin scope.
func (db *DB) Wipe(ctx context.Context) error {
	if _, err := db.sql.ExecContext(ctx, `DELETE FROM attendance WHERE admin_id = ?`, db.adminID); err != nil {
		return fmt.Errorf("failed to wipe attendance: %w", err)
	}
	if _, err := db.sql.ExecContext(ctx, `DELETE FROM students WHERE admin_id = ?`, db.adminID); err != nil {
		return fmt.Errorf("failed to wipe roster: %w", err)
	}
	return nil
}
