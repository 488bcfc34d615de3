package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// watchDebounce is how long the input file must stay quiet before it is
// read again. Editors often write a file in several steps.
const watchDebounce = 250 * time.Millisecond

// watchFile calls onChange with the new contents of path every time it
// changes, until ctx is done. The directory is watched rather than the file,
// so editors that replace the file on save are handled.
func watchFile(ctx context.Context, path string, onChange func(ctx context.Context, text string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer w.Close()

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return errors.Wrapf(err, "failed to watch %s", dir)
	}

	file := filepath.Base(path)

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()

		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(watchDebounce, func() {
			b, err := os.ReadFile(path)
			if err != nil {
				slog.WarnContext(ctx,
					"failed to read changed input file",
					"path", path,
					"err", err)
				return
			}
			onChange(ctx, string(b))
		})
	}
	defer func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return errors.New("file watcher closed")
			}
			if filepath.Base(ev.Name) != file {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			slog.DebugContext(ctx,
				"input file changed",
				"path", path,
				"op", ev.Op.String())
			debounce()

		case err, ok := <-w.Errors:
			if !ok {
				return errors.New("file watcher closed")
			}
			slog.WarnContext(ctx,
				"file watcher error",
				"path", path,
				"err", err)
		}
	}
}
