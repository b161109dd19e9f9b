package cache

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/config"
)

// BreakerStore stops calling an unhealthy backend after repeated failures.
// While open every call fails fast with gobreaker.ErrOpenState, which the
// appointment cache treats as a miss.
type BreakerStore struct {
	next Store
	cb   *gobreaker.CircuitBreaker[any]
}

func NewBreakerStore(next Store, cfg config.CacheConfig, log *zap.Logger) *BreakerStore {
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	settings := gobreaker.Settings{
		Name:        "cache",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrMiss)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("cache circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &BreakerStore{next: next, cb: gobreaker.NewCircuitBreaker[any](settings)}
}

func (s *BreakerStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.cb.Execute(func() (any, error) {
		return s.next.Get(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (s *BreakerStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := s.cb.Execute(func() (any, error) {
		return nil, s.next.Set(ctx, key, value, ttl)
	})
	return err
}

func (s *BreakerStore) Delete(ctx context.Context, keys ...string) error {
	_, err := s.cb.Execute(func() (any, error) {
		return nil, s.next.Delete(ctx, keys...)
	})
	return err
}

func (s *BreakerStore) DeletePattern(ctx context.Context, pattern string) (int, error) {
	v, err := s.cb.Execute(func() (any, error) {
		return s.next.DeletePattern(ctx, pattern)
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// State exposes the breaker state for health reporting.
func (s *BreakerStore) State() gobreaker.State {
	return s.cb.State()
}
