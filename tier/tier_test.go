package tier

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the Store contract against one implementation.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Read(ctx, "MISSING")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Write(ctx, "A_X", "one"))
	v, ok, err := s.Read(ctx, "A_X")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "one", v)

	require.NoError(t, s.Write(ctx, "A_X", "two"))
	v, _, _ = s.Read(ctx, "A_X")
	assert.Equal(t, "two", v)

	require.NoError(t, s.Remove(ctx, "A_X"))
	_, ok, _ = s.Read(ctx, "A_X")
	assert.False(t, ok)

	// removing an absent key is a no-op
	require.NoError(t, s.Remove(ctx, "A_X"))
}

func TestMemoryStore(t *testing.T) {
	m := NewMemory()
	exerciseStore(t, m)
	assert.Equal(t, int64(0), m.Size())
}

func TestBoundedStore(t *testing.T) {
	exerciseStore(t, NewBounded(10))
}

func TestBoundedStoreDropsWhenFull(t *testing.T) {
	ctx := context.Background()
	b := NewBounded(2)

	require.NoError(t, b.Write(ctx, "k1", "1"))
	require.NoError(t, b.Write(ctx, "k2", "2"))
	require.NoError(t, b.Write(ctx, "k3", "3"))

	assert.Equal(t, 2, b.Len())
	v, ok, _ := b.Read(ctx, "k3")
	assert.True(t, ok)
	assert.Equal(t, "3", v)
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	exerciseStore(t, s)
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, "GLOBAL_CONDITIONS_10001", `{"value":1,"createdAt":0}`))
	require.NoError(t, s.Write(ctx, "GLOBAL_FORECASTS_10001", `{"value":2,"createdAt":0}`))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Read(ctx, "GLOBAL_CONDITIONS_10001")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"value":1,"createdAt":0}`, v)

	keys, err := s.Keys(ctx, "GLOBAL_CONDITIONS_")
	require.NoError(t, err)
	assert.Equal(t, []string{"GLOBAL_CONDITIONS_10001"}, keys)
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	_, err := OpenSQLite("  ")
	assert.Error(t, err)
}
