// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package param

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the preset file at path into s whenever
// the file is written or replaced, until ctx is done.
// The directory of path is watched, so that editors that
// save through a rename are handled.
// Reload failures are logged and do not stop watching.
// It returns nil when ctx is done.
func (s *Store) Watch(ctx context.Context, path string, log *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	path = filepath.Clean(path)
	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if err := s.Load(path); err != nil {
				log.Warn("preset reload failed", "path", path, "err", err)
				continue
			}
			log.Info("preset reloaded", "path", path)
			s.notify()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("preset watcher error", "err", err)
		}
	}
}

// OnReload registers a function to be called after every
// successful reload made by Watch.
// It replaces any previously registered function.
func (s *Store) OnReload(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reload = fn
}

func (s *Store) notify() {
	s.mu.RLock()
	fn := s.reload
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}
