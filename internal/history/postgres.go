package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	db         *sql.DB
	maxPerUser int
}

// NewPostgresStore creates a new PostgreSQL history store.
// It expects the schema to already exist (created via migrations).
func NewPostgresStore(db *sql.DB, maxPerUser int) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db, maxPerUser: maxPerUser}, nil
}

// NewPostgresStoreFromURL creates a new PostgreSQL history store from a
// connection URL.
func NewPostgresStoreFromURL(databaseURL string, maxPerUser int) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db, maxPerUser)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Save persists a record, then prunes the user's oldest entries beyond the
// retention cap.
func (s *PostgresStore) Save(ctx context.Context, record *Record) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO assessments (user_id, assessment_id, risk_score, category, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`,
		record.UserID,
		record.AssessmentID,
		record.RiskScore,
		record.Category,
		record.Payload,
		record.CreatedAt,
	).Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("failed to save assessment: %w", err)
	}

	if s.maxPerUser > 0 {
		_, err = s.db.ExecContext(ctx, `
			DELETE FROM assessments
			WHERE user_id = $1 AND id NOT IN (
				SELECT id FROM assessments
				WHERE user_id = $1
				ORDER BY created_at DESC, id DESC
				LIMIT $2
			)
		`, record.UserID, s.maxPerUser)
		if err != nil {
			return fmt.Errorf("failed to prune: %w", err)
		}
	}

	return nil
}

// ListByUser returns a user's records, newest first.
func (s *PostgresStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, assessment_id, risk_score, category, payload, created_at
		FROM assessments
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	var result []*Record
	for rows.Next() {
		r := &Record{}
		err := rows.Scan(&r.ID, &r.UserID, &r.AssessmentID, &r.RiskScore, &r.Category, &r.Payload, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, r)
	}

	return result, rows.Err()
}

// CountByUser returns how many records a user has.
func (s *PostgresStore) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM assessments WHERE user_id = $1", userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count assessments: %w", err)
	}
	return count, nil
}

// DeleteByUser removes all of a user's records.
func (s *PostgresStore) DeleteByUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM assessments WHERE user_id = $1", userID)
	if err != nil {
		return fmt.Errorf("failed to delete assessments: %w", err)
	}
	return nil
}

// Close closes the store and releases resources.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
