// Package store persists the raw schedule text and the last built schedule
// between runs.
package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
	"libdb.so/boss-reminder/schedule"
)

// ErrCorrupt is returned by Load when saved data exists but cannot be
// decoded.
var ErrCorrupt = errors.New("saved schedule is corrupt")

// Snapshot is what a Store saves.
type Snapshot struct {
	// Input is the schedule text as the user typed it.
	Input string `json:"input"`
	// Schedule is the schedule built from Input.
	Schedule schedule.Schedule `json:"schedule"`
	// SavedAt is when the snapshot was saved.
	SavedAt time.Time `json:"saved_at"`
}

// IsZero returns true if there is nothing in the snapshot.
func (s Snapshot) IsZero() bool {
	return s.Input == "" && len(s.Schedule) == 0
}

// Store saves and loads snapshots.
type Store interface {
	// Save replaces the saved snapshot.
	Save(ctx context.Context, snap Snapshot) error
	// Load returns the saved snapshot. A missing snapshot is not an error;
	// it returns false.
	Load(ctx context.Context) (Snapshot, bool, error)
	// Clear deletes the saved snapshot.
	Clear(ctx context.Context) error
	Close() error
}

// Config selects and configures a Store driver.
type Config struct {
	// Driver is one of "file", "sqlite" or "memory". Defaults to "file".
	Driver string `json:"driver"`
	// Path is the file or database path. Ignored by the memory driver.
	Path string `json:"path"`
}

// Default paths per driver.
const (
	DefaultFilePath   = "notiboss.json"
	DefaultSQLitePath = "notiboss.db"
)

// Open opens the store described by cfg.
func Open(cfg Config) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "file":
		if cfg.Path == "" {
			cfg.Path = DefaultFilePath
		}
		return OpenFile(cfg.Path)
	case "sqlite":
		if cfg.Path == "" {
			cfg.Path = DefaultSQLitePath
		}
		return OpenSQLite(cfg.Path)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, errors.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// Stored field names. The file and sqlite drivers both store the input and
// the schedule separately, so a corrupt schedule never loses the input.
const (
	keyInput    = "notiboss_input"
	keySchedule = "notiboss_schedule"
	keySavedAt  = "notiboss_saved_at"
)

func encodeSchedule(s schedule.Schedule) (string, error) {
	if s == nil {
		s = schedule.Schedule{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode schedule")
	}
	return string(b), nil
}

// decodeSchedule decodes a saved schedule and moves its timestamps back to
// local time.
func decodeSchedule(data string) (schedule.Schedule, error) {
	if data == "" {
		return nil, nil
	}
	var s schedule.Schedule
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "%v", err)
	}
	return s.Local(), nil
}

// decodeSavedAt parses a saved timestamp. SavedAt is informational, so an
// unreadable one is logged and left zero.
func decodeSavedAt(ctx context.Context, data string) time.Time {
	if data == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, data)
	if err != nil {
		slog.DebugContext(ctx,
			"ignoring unreadable saved_at",
			"saved_at", data,
			"err", err)
		return time.Time{}
	}
	return t
}
