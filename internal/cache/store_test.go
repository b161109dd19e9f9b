package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

// storeContract runs the same behaviour checks against every Store.
func storeContract(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.Get(ctx, "absent")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.Set(ctx, "appointment:1", []byte(`{"id":"1"}`), time.Minute))
	got, err := s.Get(ctx, "appointment:1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"1"}`, string(got))

	require.NoError(t, s.Set(ctx, "patient_appointments:p1:a", []byte("a"), time.Minute))
	require.NoError(t, s.Set(ctx, "patient_appointments:p1:b", []byte("b"), time.Minute))
	require.NoError(t, s.Set(ctx, "patient_appointments:p2:a", []byte("c"), time.Minute))

	n, err := s.DeletePattern(ctx, "patient_appointments:p1:*")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = s.Get(ctx, "patient_appointments:p1:a")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = s.Get(ctx, "patient_appointments:p2:a")
	assert.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "appointment:1", "never-set"))
	_, err = s.Get(ctx, "appointment:1")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStore_Contract(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestRedisStore_Contract(t *testing.T) {
	s, _ := newRedisStore(t)
	storeContract(t, s)
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(context.Background(), "k", []byte("v"), 5*time.Minute))
	now = now.Add(5 * time.Minute)

	_, err := s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStore_SweepsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	for i := 0; i < 1000; i++ {
		require.NoError(t, s.Set(ctx, "patient_appointments:p"+strconv.Itoa(i)+":a", []byte("x"), time.Minute))
	}
	require.NoError(t, s.Set(ctx, "appointment:long", []byte("x"), 3*time.Hour))
	assert.Len(t, s.entries, 1001)

	now = now.Add(time.Hour)
	require.NoError(t, s.Set(ctx, "appointment:fresh", []byte("y"), time.Minute))

	assert.Len(t, s.entries, 2)
	assert.Contains(t, s.entries, "appointment:long")
	assert.Contains(t, s.entries, "appointment:fresh")
}

func TestRedisStore_Expiry(t *testing.T) {
	s, mr := newRedisStore(t)
	require.NoError(t, s.Set(context.Background(), "k", []byte("v"), 5*time.Minute))

	mr.FastForward(5*time.Minute + time.Second)

	_, err := s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisStore_DeletePatternManyKeys(t *testing.T) {
	s, mr := newRedisStore(t)
	for i := 0; i < scanBatch*2+7; i++ {
		require.NoError(t, mr.Set("doctor_appointments:d1:"+strconv.Itoa(i), "x"))
	}
	require.NoError(t, mr.Set("doctor_appointments:d2:x", "x"))

	n, err := s.DeletePattern(context.Background(), "doctor_appointments:d1:*")
	require.NoError(t, err)
	assert.Equal(t, scanBatch*2+7, n)
	assert.True(t, mr.Exists("doctor_appointments:d2:x"))
}

func TestRedisStore_ServerDown(t *testing.T) {
	s, mr := newRedisStore(t)
	mr.Close()

	_, err := s.Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}
