package store

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// File stores the snapshot as a JSON object in a single file. Writes are
// atomic: the file is written next to the target and renamed over it.
type File struct {
	path string
	mu   sync.Mutex
}

var _ Store = (*File)(nil)

// OpenFile opens a file store at path. The file is created on first save.
func OpenFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("store path is empty")
	}
	return &File{path: path}, nil
}

// fileRecord is the on-disk layout. The schedule is a JSON string, not an
// embedded object, mirroring how the key-value drivers store it.
type fileRecord map[string]string

// Save implements Store.
func (f *File) Save(ctx context.Context, snap Snapshot) error {
	sched, err := encodeSchedule(snap.Schedule)
	if err != nil {
		return err
	}
	if snap.SavedAt.IsZero() {
		snap.SavedAt = time.Now()
	}

	data, err := json.MarshalIndent(fileRecord{
		keyInput:    snap.Input,
		keySchedule: sched,
		keySavedAt:  snap.SavedAt.Format(time.RFC3339Nano),
	}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode snapshot")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return writeFileAtomic(f.path, data)
}

// Load implements Store.
func (f *File) Load(ctx context.Context) (Snapshot, bool, error) {
	f.mu.Lock()
	data, err := os.ReadFile(f.path)
	f.mu.Unlock()

	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, errors.Wrap(err, "failed to read snapshot")
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Snapshot{}, false, errors.Wrapf(ErrCorrupt, "%v", err)
	}

	snap := Snapshot{Input: rec[keyInput]}
	snap.SavedAt = decodeSavedAt(ctx, rec[keySavedAt])

	// Keep the input even when the schedule cannot be decoded.
	snap.Schedule, err = decodeSchedule(rec[keySchedule])
	if err != nil {
		return snap, !snap.IsZero(), err
	}

	return snap, !snap.IsZero(), nil
}

// Clear implements Store.
func (f *File) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, "failed to remove snapshot")
	}
	return nil
}

// Close implements Store.
func (f *File) Close() error { return nil }

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "failed to create store directory")
	}

	tmp, err := os.CreateTemp(dir, ".notiboss-*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close temp file")
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return errors.Wrap(err, "failed to chmod temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrap(err, "failed to replace snapshot")
	}
	return nil
}
