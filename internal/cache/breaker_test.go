package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/config"
)

type failingStore struct {
	calls int
}

var errBackend = errors.New("backend down")

func (f *failingStore) Get(context.Context, string) ([]byte, error) {
	f.calls++
	return nil, errBackend
}

func (f *failingStore) Set(context.Context, string, []byte, time.Duration) error {
	f.calls++
	return errBackend
}

func (f *failingStore) Delete(context.Context, ...string) error {
	f.calls++
	return errBackend
}

func (f *failingStore) DeletePattern(context.Context, string) (int, error) {
	f.calls++
	return 0, errBackend
}

func TestBreakerStore_OpensAfterConsecutiveFailures(t *testing.T) {
	backend := &failingStore{}
	s := NewBreakerStore(backend, config.CacheConfig{BreakerFailures: 3, BreakerOpenTimeout: time.Minute}, zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := s.Get(context.Background(), "k")
		assert.ErrorIs(t, err, errBackend)
	}
	assert.Equal(t, gobreaker.StateOpen, s.State())

	_, err := s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, backend.calls)
}

func TestBreakerStore_MissIsNotAFailure(t *testing.T) {
	s := NewBreakerStore(NewMemoryStore(), config.CacheConfig{BreakerFailures: 1, BreakerOpenTimeout: time.Minute}, zap.NewNop())

	for i := 0; i < 5; i++ {
		_, err := s.Get(context.Background(), "absent")
		assert.ErrorIs(t, err, ErrMiss)
	}
	assert.Equal(t, gobreaker.StateClosed, s.State())
}

func TestBreakerStore_PassesThrough(t *testing.T) {
	s := NewBreakerStore(NewMemoryStore(), config.CacheConfig{}, zap.NewNop())
	storeContract(t, s)
	require.Equal(t, gobreaker.StateClosed, s.State())
}
