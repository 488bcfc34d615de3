package store

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/pkg/errors"
	"libdb.so/boss-reminder/schedule"
)

const testInput = `13/01/2026 08:14 น. — [60] เวนาตัส
-----
13/01/2026 12:29 น. — [75] อาราเนโอ(12:27 น.)`

func testSnapshot(t *testing.T) Snapshot {
	now := time.Date(2026, time.January, 12, 0, 0, 0, 0, time.Local)
	s := schedule.Build(testInput, schedule.BuildOpts{Now: now})
	assert.Equal(t, 2, len(s))

	return Snapshot{
		Input:    testInput,
		Schedule: s,
		SavedAt:  now,
	}
}

func testStore(t *testing.T, store Store) {
	ctx := context.Background()

	_, ok, err := store.Load(ctx)
	assert.NoError(t, err)
	assert.False(t, ok)

	expect := testSnapshot(t)
	assert.NoError(t, store.Save(ctx, expect))

	got, ok, err := store.Load(ctx)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, expect.Input, got.Input)
	assert.True(t, expect.SavedAt.Equal(got.SavedAt))
	assert.Equal(t, len(expect.Schedule), len(got.Schedule))
	for i := range expect.Schedule {
		assert.True(t, expect.Schedule[i].At.Equal(got.Schedule[i].At))
		assert.Equal(t, expect.Schedule[i], got.Schedule[i])
	}

	t.Run("overwrite", func(t *testing.T) {
		next := Snapshot{Input: "x", Schedule: schedule.Schedule{}}
		assert.NoError(t, store.Save(ctx, next))

		got, ok, err := store.Load(ctx)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "x", got.Input)
		assert.Equal(t, 0, len(got.Schedule))
	})

	t.Run("clear", func(t *testing.T) {
		assert.NoError(t, store.Clear(ctx))
		assert.NoError(t, store.Clear(ctx))

		_, ok, err := store.Load(ctx)
		assert.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestFile(t *testing.T) {
	store, err := Open(Config{Driver: "file", Path: filepath.Join(t.TempDir(), "state", "notiboss.json")})
	assert.NoError(t, err)
	defer store.Close()

	testStore(t, store)
}

func TestSQLite(t *testing.T) {
	store, err := Open(Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "notiboss.db")})
	assert.NoError(t, err)
	defer store.Close()

	testStore(t, store)
}

func TestMemory(t *testing.T) {
	store, err := Open(Config{Driver: "memory"})
	assert.NoError(t, err)
	defer store.Close()

	testStore(t, store)
}

func TestOpen_unknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "redis"})
	assert.Error(t, err)
}

func TestFile_corrupt(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notiboss.json")

	t.Run("not_json", func(t *testing.T) {
		assert.NoError(t, os.WriteFile(path, []byte("{nope"), 0o600))

		store, err := OpenFile(path)
		assert.NoError(t, err)

		_, _, err = store.Load(ctx)
		assert.True(t, errors.Is(err, ErrCorrupt))
	})

	t.Run("bad_schedule_keeps_input", func(t *testing.T) {
		data := `{"notiboss_input": "hello", "notiboss_schedule": "[{\"at\": 5}]"}`
		assert.NoError(t, os.WriteFile(path, []byte(data), 0o600))

		store, err := OpenFile(path)
		assert.NoError(t, err)

		snap, ok, err := store.Load(ctx)
		assert.True(t, errors.Is(err, ErrCorrupt))
		assert.True(t, ok)
		assert.Equal(t, "hello", snap.Input)
	})
	t.Run("bad_saved_at", func(t *testing.T) {
		var logs bytes.Buffer
		defaultLogger := slog.Default()
		slog.SetDefault(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
		t.Cleanup(func() { slog.SetDefault(defaultLogger) })

		data := `{"notiboss_input": "hello", "notiboss_saved_at": "yesterday"}`
		assert.NoError(t, os.WriteFile(path, []byte(data), 0o600))

		store, err := OpenFile(path)
		assert.NoError(t, err)

		snap, ok, err := store.Load(ctx)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "hello", snap.Input)
		assert.True(t, snap.SavedAt.IsZero())
		assert.Contains(t, logs.String(), "ignoring unreadable saved_at")
	})
}
