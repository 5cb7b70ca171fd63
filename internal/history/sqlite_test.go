package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteMigrationAndInsertList(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := NewSQLiteStore(dbPath, 30)
	require.NoError(t, err)
	defer store.Close()

	base := int64(1_700_000_000_000)
	require.NoError(t, store.Save(rec("s1", base)))
	require.NoError(t, store.Save(rec("s2", base+10)))

	listed, err := store.List(10, 0, false)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "s2", listed[0].Signature)
	assert.Equal(t, "s1", listed[1].Signature)
}

func TestSQLitePurgeOnSave(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := NewSQLiteStore(dbPath, 30)
	require.NoError(t, err)
	defer store.Close()

	now := int64(1_700_000_000_000)
	old := now - int64(31)*24*60*60*1000
	require.NoError(t, store.Save(rec("old", old)))
	require.NoError(t, store.Save(rec("new", now)))

	listed, err := store.List(10, 0, false)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "new", listed[0].Signature)
}

func TestSQLiteUpsertBySignature(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := NewSQLiteStore(dbPath, 30)
	require.NoError(t, err)
	defer store.Close()

	base := int64(1_700_000_000_000)
	first := rec("dup", base)
	require.NoError(t, store.Save(first))

	second := rec("dup", base+50)
	second.Input = "replayed"
	require.NoError(t, store.Save(second))

	listed, err := store.List(10, 0, false)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "replayed", listed[0].Input)
}

func TestSQLitePaginationAfter(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := NewSQLiteStore(dbPath, 30)
	require.NoError(t, err)
	defer store.Close()

	base := int64(1_700_000_000_000)
	require.NoError(t, store.Save(rec("s1", base)))
	require.NoError(t, store.Save(rec("s2", base+10)))
	require.NoError(t, store.Save(rec("s3", base+20)))

	listed, err := store.List(10, base+10, true)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "s3", listed[0].Signature)
}

func TestSQLiteListZeroLimit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := NewSQLiteStore(dbPath, 30)
	require.NoError(t, err)
	defer store.Close()

	listed, err := store.List(0, 0, false)
	require.NoError(t, err)
	assert.Empty(t, listed)
}
