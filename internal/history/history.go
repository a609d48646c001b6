// Package history persists completed risk assessments per user so intake
// collaborators can review longitudinal trends. The store is an optional
// host concern: the engine itself never retains state between calls.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cardio-risk-engine/internal/domain"
)

// Record is one persisted assessment envelope. Payload carries the full
// serialized RiskAssessment; the scalar columns exist for querying without
// deserializing.
type Record struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	AssessmentID string    `json:"assessment_id"`
	RiskScore    float64   `json:"risk_score"`
	Category     string    `json:"category"`
	Payload      []byte    `json:"payload"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewRecord builds a history record from a completed assessment.
func NewRecord(userID string, assessment *domain.RiskAssessment) (*Record, error) {
	payload, err := json.Marshal(assessment)
	if err != nil {
		return nil, fmt.Errorf("marshaling assessment: %w", err)
	}
	return &Record{
		UserID:       userID,
		AssessmentID: assessment.AssessmentID,
		RiskScore:    assessment.DisplayScore,
		Category:     assessment.Stratification.Category.String(),
		Payload:      payload,
		CreatedAt:    assessment.CreatedAt,
	}, nil
}

// Assessment deserializes the stored payload.
func (r *Record) Assessment() (*domain.RiskAssessment, error) {
	var assessment domain.RiskAssessment
	if err := json.Unmarshal(r.Payload, &assessment); err != nil {
		return nil, fmt.Errorf("unmarshaling assessment payload: %w", err)
	}
	return &assessment, nil
}

// Store is the assessment history persistence interface.
type Store interface {
	// Save persists a record and prunes the user's oldest entries beyond
	// the retention cap.
	Save(ctx context.Context, record *Record) error
	// ListByUser returns a user's records, newest first.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Record, error)
	// CountByUser returns how many records a user has.
	CountByUser(ctx context.Context, userID string) (int64, error)
	// DeleteByUser removes all of a user's records.
	DeleteByUser(ctx context.Context, userID string) error
	Close() error
}
