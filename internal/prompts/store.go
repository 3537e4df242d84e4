package prompts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Store serves the current profile and reloads it when its file changes.
type Store struct {
	mu      sync.RWMutex
	profile *Profile
	path    string
	logger  *slog.Logger
}

// NewStore creates a store backed by path. A missing file keeps the defaults.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{profile: Default(), path: path, logger: logger}
	if path == "" {
		return s, nil
	}
	if err := s.Reload(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return s, nil
}

// Current returns the active profile. Callers must not modify it.
func (s *Store) Current() *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Reload re-reads the profile file. On error the previous profile stays active.
func (s *Store) Reload() error {
	p, err := LoadFile(s.path)
	if err != nil {
		return fmt.Errorf("loading prompt profile %s: %w", s.path, err)
	}
	s.mu.Lock()
	s.profile = p
	s.mu.Unlock()
	s.logger.Info("prompt profile loaded", "path", s.path)
	return nil
}

// Watch reloads the profile whenever its file is written or replaced. The
// parent directory is watched so editors that rename over the file are seen.
// It returns once the watcher is running; the watch stops with ctx.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return err
	}

	target := filepath.Clean(s.path)
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if err := s.Reload(); err != nil {
					s.logger.Warn("prompt profile reload failed", "error", err)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Warn("prompt profile watcher error", "error", err)
			}
		}
	}()
	return nil
}
