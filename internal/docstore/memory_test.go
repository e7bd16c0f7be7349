package docstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetMissing(t *testing.T) {
	m := NewMemory()
	_, ok, err := m.Get(context.Background(), "users", "nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_SetMerge(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "users", "u1", map[string]any{"a": 1, "b": 2}, false))
	require.NoError(t, m.Set(ctx, "users", "u1", map[string]any{"b": 3, "c": 4}, true))

	doc, ok, err := m.Get(ctx, "users", "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"a": 1, "b": 3, "c": 4}, doc.Data)

	require.NoError(t, m.Set(ctx, "users", "u1", map[string]any{"z": true}, false))
	doc, _, _ = m.Get(ctx, "users", "u1")
	assert.Equal(t, map[string]any{"z": true}, doc.Data, "non-merge set replaces")
}

func TestMemory_CopiesData(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	in := map[string]any{"a": 1}
	require.NoError(t, m.Set(ctx, "c", "id", in, false))
	in["a"] = 2

	doc, _, _ := m.Get(ctx, "c", "id")
	doc.Data["a"] = 3

	again, _, _ := m.Get(ctx, "c", "id")
	assert.Equal(t, 1, again.Data["a"])
}

func TestMemory_AddQuery(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id1, err := m.Add(ctx, "transactions", map[string]any{"userId": "u1", "amount": 10.0})
	require.NoError(t, err)
	_, err = m.Add(ctx, "transactions", map[string]any{"userId": "u2", "amount": 5.0})
	require.NoError(t, err)
	id3, err := m.Add(ctx, "transactions", map[string]any{"userId": "u1", "amount": 7.0})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)

	docs, err := m.Query(ctx, "transactions", "userId", "u1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	ids := []string{docs[0].ID, docs[1].ID}
	assert.ElementsMatch(t, []string{id1, id3}, ids)

	none, err := m.Query(ctx, "transactions", "userId", "u9")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemory_FailWith(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	boom := errors.New("boom")

	m.FailWith(boom)
	_, _, err := m.Get(ctx, "users", "u1")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, m.Set(ctx, "users", "u1", nil, true), boom)
	_, err = m.Add(ctx, "users", nil)
	assert.ErrorIs(t, err, boom)
	_, err = m.Query(ctx, "users", "x", 1)
	assert.ErrorIs(t, err, boom)

	m.FailWith(nil)
	_, _, err = m.Get(ctx, "users", "u1")
	assert.NoError(t, err)
}
