package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_Migration_CreatesTablesAndVersion(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	var version int
	err := s.db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), version)
}

func TestSQLiteStore_SetAndGet(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.Set(KeyTimeEntries, []byte(`[{"id":"a"}]`)))

	got, ok, err := s.Get(KeyTimeEntries)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`[{"id":"a"}]`), got)
}

func TestSQLiteStore_GetMissingKey(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, ok, err := s.Get("no_such_key")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore_SetOverwrites(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.Set(KeyBudgets, []byte(`{"42":1.5}`)))
	require.NoError(t, s.Set(KeyBudgets, []byte(`{"42":3}`)))

	got, ok, err := s.Get(KeyBudgets)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`{"42":3}`), got)
}

func TestSQLiteStore_DeleteIsIdempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.Set(KeyAccessToken, []byte("tok")))
	require.NoError(t, s.Delete(KeyAccessToken))
	require.NoError(t, s.Delete(KeyAccessToken))

	_, ok, err := s.Get(KeyAccessToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "deskbridge.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(KeyRefreshToken, []byte("refresh-1")))
	require.NoError(t, s.Close())

	s2, err := NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s2.Close() })

	got, ok, err := s2.Get(KeyRefreshToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("refresh-1"), got)
}
