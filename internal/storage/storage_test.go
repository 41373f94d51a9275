package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStorage runs the behaviour every backend shares
func exerciseStorage(t *testing.T, s Storage) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "cart:a", []byte(`[{"id":"1","quantity":2}]`)))
	got, err := s.Get(ctx, "cart:a")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1","quantity":2}]`, string(got))

	require.NoError(t, s.Set(ctx, "cart:a", []byte(`[]`)))
	got, err = s.Get(ctx, "cart:a")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))

	require.NoError(t, s.Delete(ctx, "cart:a"))
	_, err = s.Get(ctx, "cart:a")
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting an absent key is not an error
	assert.NoError(t, s.Delete(ctx, "cart:a"))
}

func TestMemoryStorage(t *testing.T) {
	exerciseStorage(t, NewMemoryStorage())
}

func TestMemoryStorage_FailWith(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()
	boom := errors.New("quota exceeded")

	m.FailWith("set", boom)
	assert.ErrorIs(t, m.Set(ctx, "k", []byte("v")), boom)
	assert.Equal(t, 0, m.Len())

	m.FailWith("set", nil)
	require.NoError(t, m.Set(ctx, "k", []byte("v")))
	assert.Equal(t, 1, m.Len())

	m.FailWith("get", boom)
	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, boom)
}

func TestMemoryStorage_CopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()
	v := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", v))
	v[0] = 'x'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestSQLiteStorage(t *testing.T) {
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "nested", "cart.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	exerciseStorage(t, s)
}

func TestSQLiteStorage_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cart.db")

	s, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "cart:b", []byte(`[{"id":"7"}]`)))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.Get(ctx, "cart:b")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"7"}]`, string(got))
}

func TestS3Storage_ObjectKey(t *testing.T) {
	assert.Equal(t, "carts/indianCoinCart:abc.json", NewS3StorageFromClient(nil, "b", "/carts/").objectKey("indianCoinCart:abc"))
	assert.Equal(t, "k.json", NewS3StorageFromClient(nil, "b", "").objectKey("k"))
}
