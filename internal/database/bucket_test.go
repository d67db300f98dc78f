package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/feeltime/internal/domain"
)

func TestMemoryBucket(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBucket()

	require.NoError(t, b.Write(ctx, "feeltime/events/b.json", []byte(`{"id":"b"}`), "application/json"))
	require.NoError(t, b.Write(ctx, "feeltime/events/a.json", []byte(`{"id":"a"}`), "application/json"))
	require.NoError(t, b.Write(ctx, "feeltime/departments.json", []byte(`[]`), "application/json"))

	keys, err := b.List(ctx, "feeltime/events/")
	require.NoError(t, err)
	assert.Equal(t, []string{"feeltime/events/a.json", "feeltime/events/b.json"}, keys)

	data, err := b.Read(ctx, "feeltime/events/a.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a"}`, string(data))

	_, err = b.Read(ctx, "feeltime/missing.json")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, b.Delete(ctx, "feeltime/events/a.json"))
	assert.ErrorIs(t, b.Delete(ctx, "feeltime/events/a.json"), domain.ErrNotFound)

	keys, err = b.List(ctx, "nothing/")
	require.NoError(t, err)
	assert.NotNil(t, keys)
	assert.Empty(t, keys)

	assert.NoError(t, b.Ping(ctx))
}

func TestMemoryBucketCopiesData(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBucket()

	buf := []byte("abc")
	require.NoError(t, b.Write(ctx, "k", buf, ""))
	buf[0] = 'x'

	data, err := b.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}

func TestNewSQLiteDBCreatesParentDirs(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "dir", "dev.db")

	db, err := NewSQLiteDB(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	var fk int
	require.NoError(t, db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	var mode string
	require.NoError(t, db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}
