package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db         *sql.DB
	dbPath     string
	maxPerUser int
}

// NewSQLiteStore creates a new SQLite history store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string, maxPerUser int) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:         db,
		dbPath:     dbPath,
		maxPerUser: maxPerUser,
	}, nil
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS assessments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		assessment_id TEXT NOT NULL UNIQUE,
		risk_score REAL NOT NULL,
		category TEXT NOT NULL,
		payload BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_assessments_user_id ON assessments(user_id);
	CREATE INDEX IF NOT EXISTS idx_assessments_created_at ON assessments(created_at);
	`

	_, err := db.Exec(schema)
	return err
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRecord scans a row into a Record struct.
func scanRecord(s scanner) (*Record, error) {
	r := &Record{}
	err := s.Scan(&r.ID, &r.UserID, &r.AssessmentID, &r.RiskScore, &r.Category, &r.Payload, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Save persists a record, then prunes the user's oldest entries beyond the
// retention cap.
func (s *SQLiteStore) Save(ctx context.Context, record *Record) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO assessments (user_id, assessment_id, risk_score, category, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		record.UserID,
		record.AssessmentID,
		record.RiskScore,
		record.Category,
		record.Payload,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert ID: %w", err)
	}
	record.ID = id

	if s.maxPerUser > 0 {
		_, err = s.db.ExecContext(ctx, `
			DELETE FROM assessments
			WHERE user_id = ? AND id NOT IN (
				SELECT id FROM assessments
				WHERE user_id = ?
				ORDER BY created_at DESC, id DESC
				LIMIT ?
			)
		`, record.UserID, record.UserID, s.maxPerUser)
		if err != nil {
			return fmt.Errorf("failed to prune: %w", err)
		}
	}

	return nil
}

// ListByUser returns a user's records, newest first.
func (s *SQLiteStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, assessment_id, risk_score, category, payload, created_at
		FROM assessments
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var result []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// CountByUser returns how many records a user has.
func (s *SQLiteStore) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM assessments WHERE user_id = ?", userID,
	).Scan(&count)
	return count, err
}

// DeleteByUser removes all of a user's records.
func (s *SQLiteStore) DeleteByUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM assessments WHERE user_id = ?", userID)
	return err
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
