package store

import (
	"context"
	"testing"

	"github.com/shivamghaware/BlogIn/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestBadger(t *testing.T) *BadgerKV {
	t.Helper()
	kv, err := OpenBadger(BadgerConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func TestBadgerGetSetDelete(t *testing.T) {
	ctx := context.Background()
	kv := openTestBadger(t)

	_, err := kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, kv.Set(ctx, "key", []byte("value")))
	v, err := kv.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), v)

	require.NoError(t, kv.Delete(ctx, "key"))
	_, err = kv.Get(ctx, "key")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestBadgerSetMany(t *testing.T) {
	ctx := context.Background()
	kv := openTestBadger(t)
	require.NoError(t, kv.Set(ctx, "old", []byte("x")))

	require.NoError(t, kv.SetMany(ctx, []Entry{
		{Key: "following-a", Value: []byte(`["b"]`)},
		{Key: "followedBy-b", Value: []byte(`["a"]`)},
		{Key: "old", Delete: true},
	}))

	v, err := kv.Get(ctx, "followedBy-b")
	require.NoError(t, err)
	assert.JSONEq(t, `["a"]`, string(v))
	_, err = kv.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestBadgerBehindAdapter(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(openTestBadger(t), nil)

	require.NoError(t, a.Write(ctx, KeyPosts, []string{"p1", "p2"}, events.Ref{Kind: events.KindPost, ID: "p1"}))
	assert.Equal(t, []string{"p1", "p2"}, ReadOr[[]string](ctx, a, KeyPosts, nil))
}

func TestOpenBadgerRequiresPath(t *testing.T) {
	_, err := OpenBadger(BadgerConfig{})
	assert.Error(t, err)
}

func TestMemoryValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	in := []byte("abc")
	require.NoError(t, kv.Set(ctx, "k", in))
	in[0] = 'z'

	out, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	out[1] = 'z'

	again, _ := kv.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), again)
}
