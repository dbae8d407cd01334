package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(client, time.Hour, nil), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	st, err := store.Get(ctx, "user:u1")
	require.NoError(t, err)
	assert.Nil(t, st)

	saved := New(PhaseMedicineSchedule)
	saved.MergeCollected(map[string]string{"medicineName": "Vitamin C"})
	saved.DoseTimes = []string{"9:00 AM", "6:00 PM"}
	saved.Resolved = &ResolvedEntity{ID: "m1", Name: "Vitamin C", Quantity: 40}
	require.NoError(t, store.Save(ctx, "user:u1", saved))

	got, err := store.Get(ctx, "user:u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, PhaseMedicineSchedule, got.Phase)
	assert.Equal(t, "Vitamin C", got.Collected["medicineName"])
	assert.Equal(t, []string{"9:00 AM", "6:00 PM"}, got.DoseTimes)
	require.NotNil(t, got.Resolved)
	assert.Equal(t, 40, got.Resolved.Quantity)

	require.NoError(t, store.Evict(ctx, "user:u1"))
	got, err = store.Get(ctx, "user:u1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStoreTTL(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "chat:c1", New(PhaseVaccine)))
	require.True(t, mr.Exists("session:chat:c1"))

	mr.FastForward(2 * time.Hour)

	got, err := store.Get(ctx, "chat:c1")
	require.NoError(t, err)
	assert.Nil(t, got, "expired session reads as absent")
}
