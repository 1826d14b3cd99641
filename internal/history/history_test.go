package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPush_DedupesAndMovesToFront(t *testing.T) {
	list := Push(nil, "serum", 5)
	list = Push(list, "toner", 5)
	list = Push(list, "Serum", 5)

	assert.Equal(t, []string{"Serum", "toner"}, list)
}

func TestPush_NeverExceedsCap(t *testing.T) {
	var list []string
	for _, q := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		list = Push(list, q, DefaultRecentLimit)
		assert.LessOrEqual(t, len(list), DefaultRecentLimit)
	}
	assert.Equal(t, []string{"g", "f", "e", "d", "c"}, list)
}

func TestPush_IgnoresBlank(t *testing.T) {
	list := []string{"serum"}
	assert.Equal(t, list, Push(list, "   ", 5))
}

func TestPush_DoesNotMutateInput(t *testing.T) {
	list := []string{"a", "b"}
	_ = Push(list, "b", 5)
	assert.Equal(t, []string{"a", "b"}, list)
}

func TestMergePopular(t *testing.T) {
	got := MergePopular([]string{"vitamin c", "onion oil"}, []string{"Vitamin C", "sunscreen", "retinol"}, 4)
	assert.Equal(t, []string{"vitamin c", "onion oil", "sunscreen", "retinol"}, got)

	assert.Len(t, MergePopular(nil, []string{"a", "b", "c"}, 2), 2)
}

func TestMemoryStore_Recent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)

	_, err := s.Push(ctx, "u1", "serum")
	require.NoError(t, err)
	_, err = s.Push(ctx, "u1", "toner")
	require.NoError(t, err)
	list, err := s.Push(ctx, "u1", "gel")
	require.NoError(t, err)
	assert.Equal(t, []string{"gel", "toner"}, list)

	other, err := s.Recent(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, s.Clear(ctx, "u1"))
	list, err = s.Recent(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryStore_Popular(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(5)

	for _, q := range []string{"serum", "Serum ", "toner", "aloe", "toner", "serum"} {
		require.NoError(t, s.Record(ctx, q))
	}
	require.NoError(t, s.Record(ctx, "  "))

	top, err := s.Top(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"serum", "toner"}, top)

	top, err = s.Top(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"serum", "toner", "aloe"}, top)
}
