package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardio-risk-engine/internal/domain"
)

func TestRecordRoundTrip(t *testing.T) {
	assessment := &domain.RiskAssessment{
		AssessmentID: "abc-123",
		CreatedAt:    time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC),
		RiskScore:    46.3,
		DisplayScore: 46.3,
		Stratification: domain.Stratification{
			Category: domain.MODERATE,
		},
	}

	record, err := NewRecord("user-1", assessment)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", record.AssessmentID)
	assert.Equal(t, 46.3, record.RiskScore)
	assert.Equal(t, "moderate", record.Category)

	restored, err := record.Assessment()
	require.NoError(t, err)
	assert.Equal(t, assessment.AssessmentID, restored.AssessmentID)
	assert.Equal(t, assessment.Stratification.Category, restored.Stratification.Category)
}

// failingStore always errors, to drive the breaker open.
type failingStore struct{}

func (failingStore) Save(context.Context, *Record) error { return errors.New("db down") }
func (failingStore) ListByUser(context.Context, string, int, int) ([]*Record, error) {
	return nil, errors.New("db down")
}
func (failingStore) CountByUser(context.Context, string) (int64, error) {
	return 0, errors.New("db down")
}
func (failingStore) DeleteByUser(context.Context, string) error { return errors.New("db down") }
func (failingStore) Close() error                               { return nil }

func TestBreakerStore_OpensAfterRepeatedFailures(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	store := NewBreakerStore(failingStore{}, logger)

	ctx := context.Background()
	record := &Record{UserID: "u", AssessmentID: "a", Payload: []byte(`{}`)}

	for i := 0; i < 10; i++ {
		err := store.Save(ctx, record)
		require.Error(t, err)
	}

	// After enough consecutive failures the breaker short-circuits.
	err := store.Save(ctx, record)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}
