package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairs-lab/internal/domain"
	"pairs-lab/internal/storage"
)

var koPep = domain.PairKey{AssetY: "KO", AssetX: "PEP"}

func newTestStore(t *testing.T, ttl time.Duration) (*ZScoreSnapshotStore, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewZScoreSnapshotStore(client, ttl), server
}

func TestZScoreSnapshotStore_PutGet(t *testing.T) {
	store, server := newTestStore(t, 0)
	ctx := context.Background()

	d0 := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	points := []domain.ZScorePoint{
		{Date: d0, Spread: 0.12},
		{Date: d0.AddDate(0, 0, 1), Spread: 0.15, Value: 2.1, Defined: true},
		{Date: d0.AddDate(0, 0, 2), Spread: 0.09, Value: -0.4, Defined: true},
	}
	require.NoError(t, store.Put(ctx, koPep, points))
	assert.True(t, server.Exists(DefaultKeyPrefix+"KO/PEP"))

	got, err := store.Get(ctx, koPep)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.False(t, got[0].Defined)
	assert.True(t, got[1].Defined)
	assert.InDelta(t, 2.1, got[1].Value, 1e-12)
	assert.True(t, got[2].Date.Equal(d0.AddDate(0, 0, 2)))
	assert.InDelta(t, 0.09, got[2].Spread, 1e-12)
}

func TestZScoreSnapshotStore_PutOverwrites(t *testing.T) {
	store, _ := newTestStore(t, 0)
	ctx := context.Background()

	d0 := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Put(ctx, koPep, []domain.ZScorePoint{{Date: d0}, {Date: d0.AddDate(0, 0, 1)}}))
	require.NoError(t, store.Put(ctx, koPep, []domain.ZScorePoint{{Date: d0, Value: 1, Defined: true}}))

	got, err := store.Get(ctx, koPep)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestZScoreSnapshotStore_NotFound(t *testing.T) {
	store, _ := newTestStore(t, 0)

	_, err := store.Get(context.Background(), domain.PairKey{AssetY: "MISSING", AssetX: "X"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestZScoreSnapshotStore_InvalidPair(t *testing.T) {
	store, _ := newTestStore(t, 0)

	err := store.Put(context.Background(), domain.PairKey{AssetY: "KO"}, nil)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestZScoreSnapshotStore_TTL(t *testing.T) {
	store, server := newTestStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, koPep, nil))
	assert.Equal(t, time.Hour, server.TTL(DefaultKeyPrefix+"KO/PEP"))

	server.FastForward(2 * time.Hour)
	_, err := store.Get(ctx, koPep)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestZScoreSnapshotStore_UnderscoreTickersDistinct(t *testing.T) {
	store, server := newTestStore(t, 0)
	ctx := context.Background()
	d0 := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)

	a := domain.PairKey{AssetY: "BRK_B", AssetX: "C"}
	b := domain.PairKey{AssetY: "BRK", AssetX: "B_C"}
	require.Equal(t, a.Name(), b.Name())

	require.NoError(t, store.Put(ctx, a, []domain.ZScorePoint{{Date: d0, Value: 1, Defined: true}}))
	require.NoError(t, store.Put(ctx, b, []domain.ZScorePoint{{Date: d0, Value: 2, Defined: true}}))
	assert.Len(t, server.Keys(), 2)

	got, err := store.Get(ctx, a)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1.0, got[0].Value)
}

func TestZScoreSnapshotStore_EscapesSeparator(t *testing.T) {
	store, server := newTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, domain.PairKey{AssetY: "A/B", AssetX: "C"}, nil))
	require.NoError(t, store.Put(ctx, domain.PairKey{AssetY: "A", AssetX: "B/C"}, nil))
	assert.Len(t, server.Keys(), 2)
}
