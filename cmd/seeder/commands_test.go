package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/feeltime/internal/database"
	"github.com/locvowork/feeltime/internal/domain"
	"github.com/locvowork/feeltime/internal/repository"
)

// sharedStore hands out one in-memory store and ignores Close so state survives across commands.
type sharedStore struct {
	domain.EmotionStore
}

func (sharedStore) Close() error { return nil }

func newOpener(t *testing.T) (StoreOpener, domain.EmotionStore) {
	t.Helper()
	store, err := repository.NewObjectStore(context.Background(), database.NewMemoryBucket())
	require.NoError(t, err)
	return func(context.Context) (domain.EmotionStore, error) {
		return sharedStore{store}, nil
	}, store
}

func run(t *testing.T, open StoreOpener, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd(open)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInitCommand(t *testing.T) {
	open, store := newOpener(t)

	out, err := run(t, open, "init", "--preset", "small", "--seed", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 280 events for 10 employees in 2 departments.")

	out, err = run(t, open, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "skipping")

	depts, err := store.GetDepartments(context.Background())
	require.NoError(t, err)
	assert.Len(t, depts, 2)

	_, err = run(t, open, "init", "--preset", "huge")
	assert.Error(t, err)
}

func TestEmployeeAndResetCommands(t *testing.T) {
	open, store := newOpener(t)
	ctx := context.Background()

	out, err := run(t, open, "employee", "-e", "E9", "-d", "3", "--start", "2024-02-01")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 12 events for employee E9 over 3 days.")

	rows, err := store.GetRecent(ctx, "E9", 100)
	require.NoError(t, err)
	assert.Len(t, rows, 12)

	_, err = run(t, open, "employee", "--start", "02/01/2024")
	assert.Error(t, err)

	out, err = run(t, open, "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Store cleared.")

	rows, err = store.GetRecent(ctx, "E9", 100)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
