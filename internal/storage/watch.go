package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the burst of events one write produces
// (create temp, write, chmod, rename).
const watchDebounce = 150 * time.Millisecond

// Watch signals on the returned channel whenever the storage at path changes.
// path may be a database file or a FileKV directory; for a directory only the
// files of keys count, since logs and config can share it. The channel is
// closed when ctx is done.
func Watch(ctx context.Context, path string, keys ...string) (<-chan struct{}, error) {
	if path == "" {
		return nil, fmt.Errorf("storage: nothing to watch")
	}

	dir := path
	var match func(base string) bool
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		dir = filepath.Dir(path)
		name := filepath.Base(path)
		// database files also change through -wal / -shm / -journal siblings
		match = func(base string) bool { return strings.HasPrefix(base, name) }
	} else {
		if len(keys) == 0 {
			return nil, fmt.Errorf("storage: no keys to watch in %s", path)
		}
		files := make(map[string]bool, len(keys))
		for _, key := range keys {
			files[keyFile(key)] = true
		}
		match = func(base string) bool { return files[base] }
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("storage: create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("storage: watch %s: %w", dir, err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer func() { _ = watcher.Close() }()

		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !relevant(ev, match) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(watchDebounce)
				} else {
					timer.Reset(watchDebounce)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				select {
				case out <- struct{}{}:
				default:
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return out, nil
}

func relevant(ev fsnotify.Event, match func(base string) bool) bool {
	if !match(filepath.Base(ev.Name)) {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove)
}
