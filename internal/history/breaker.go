package history

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// BreakerStore wraps a Store with a circuit breaker so a degraded database
// sheds history writes quickly instead of stalling every assessment
// request. History persistence is best-effort; assessment responses never
// depend on it.
type BreakerStore struct {
	inner   Store
	breaker *gobreaker.CircuitBreaker
	log     *logrus.Logger
}

// NewBreakerStore wraps the given store with circuit breaking.
func NewBreakerStore(inner Store, logger *logrus.Logger) *BreakerStore {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "history",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("History store circuit breaker state changed")
		},
	})

	return &BreakerStore{inner: inner, breaker: breaker, log: logger}
}

func (s *BreakerStore) Save(ctx context.Context, record *Record) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.inner.Save(ctx, record)
	})
	return err
}

func (s *BreakerStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Record, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.inner.ListByUser(ctx, userID, limit, offset)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*Record), nil
}

func (s *BreakerStore) CountByUser(ctx context.Context, userID string) (int64, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.inner.CountByUser(ctx, userID)
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

func (s *BreakerStore) DeleteByUser(ctx context.Context, userID string) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.inner.DeleteByUser(ctx, userID)
	})
	return err
}

func (s *BreakerStore) Close() error {
	return s.inner.Close()
}
