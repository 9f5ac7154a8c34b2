package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses bursts of file events into one reload.
const DefaultDebounce = 200 * time.Millisecond

// FileSource reads the menu payload from a local JSON file holding either
// the API envelope or a bare record array.
type FileSource struct {
	path     string
	debounce time.Duration
}

// NewFileSource returns a source for path.
func NewFileSource(path string) (*FileSource, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	return &FileSource{path: abs, debounce: DefaultDebounce}, nil
}

// Path returns the absolute file path.
func (s *FileSource) Path() string {
	return s.path
}

// Fetch reads and unwraps the file.
func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read menu file: %w", err)
	}

	return Unwrap(body)
}

// Watch calls onChange after the file is written or created, until ctx is
// done. The parent directory is watched so editors that
// replace the file atomically are picked up.
func (s *FileSource) Watch(ctx context.Context, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.path, err)
	}

	slog.Info("watching menu file", "path", s.path)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				timer.Reset(s.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			slog.Debug("menu file changed", "path", s.path)
			onChange()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("menu file watcher error", "path", s.path, "error", err)
		}
	}
}
