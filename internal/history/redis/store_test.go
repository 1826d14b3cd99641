package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T, limit int) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client, limit), mr
}

func TestStore_Recent_Empty(t *testing.T) {
	store, _ := setupTestRedis(t, 5)

	list, err := store.Recent(context.Background(), "user-001")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_Push_DedupesAndCaps(t *testing.T) {
	store, mr := setupTestRedis(t, 3)
	ctx := context.Background()

	for _, q := range []string{"serum", "toner", "gel", "serum", "lip balm"} {
		_, err := store.Push(ctx, "user-001", q)
		require.NoError(t, err)
	}

	list, err := store.Recent(ctx, "user-001")
	require.NoError(t, err)
	assert.Equal(t, []string{"lip balm", "serum", "gel"}, list)

	raw, err := mr.Get("discovery:recent-searches:user-001")
	require.NoError(t, err)
	assert.JSONEq(t, `["lip balm","serum","gel"]`, raw)
}

func TestStore_Push_UsersAreIsolated(t *testing.T) {
	store, _ := setupTestRedis(t, 5)
	ctx := context.Background()

	_, err := store.Push(ctx, "a", "serum")
	require.NoError(t, err)

	list, err := store.Recent(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_Clear(t *testing.T) {
	store, mr := setupTestRedis(t, 5)
	ctx := context.Background()

	_, err := store.Push(ctx, "user-001", "serum")
	require.NoError(t, err)
	require.NoError(t, store.Clear(ctx, "user-001"))

	assert.False(t, mr.Exists("discovery:recent-searches:user-001"))
}

func TestStore_Recent_CorruptValue(t *testing.T) {
	store, mr := setupTestRedis(t, 5)
	require.NoError(t, mr.Set("discovery:recent-searches:user-001", "not-json"))

	_, err := store.Recent(context.Background(), "user-001")
	assert.Error(t, err)
}

func TestStore_Recent_ConnectionError(t *testing.T) {
	store, mr := setupTestRedis(t, 5)
	mr.Close()

	_, err := store.Recent(context.Background(), "user-001")
	assert.Error(t, err)
}

func TestStore_Popular(t *testing.T) {
	store, _ := setupTestRedis(t, 5)
	ctx := context.Background()

	for _, q := range []string{"Serum", "toner", "serum ", "aloe", "serum", "toner"} {
		require.NoError(t, store.Record(ctx, q))
	}

	top, err := store.Top(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"serum", "toner"}, top)

	none, err := store.Top(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_Ping(t *testing.T) {
	store, _ := setupTestRedis(t, 5)
	assert.NoError(t, store.Ping(context.Background()))
}
