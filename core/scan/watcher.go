package scan

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"MusicFlow/logger"
)

// debounce window for filesystem bursts; copying an album in touches
// many files within a few seconds
const watchDebounce = 10 * time.Second

// Watcher observes the music directory and triggers a repair scan after
// files are added, renamed or removed.
type Watcher struct {
	musicDir string
	orch     *Orchestrator
	fsw      *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a recursive watcher over the music directory.
func NewWatcher(musicDir string, orch *Orchestrator) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}

	w := &Watcher{musicDir: musicDir, orch: orch, fsw: fsw}
	if err := w.addRecursive(musicDir); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// Run consumes events until ctx is cancelled. Blocking; callers start it
// in a goroutine.
func (w *Watcher) Run(ctx context.Context) {
	logger.Info("Music directory watcher started", logger.String("dir", w.musicDir))
	defer w.fsw.Close()

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("Watcher error", logger.ErrorField(err))
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	// new directories need their own watch before files land in them
	if event.Op.Has(fsnotify.Create) {
		if err := w.addRecursive(event.Name); err != nil {
			logger.Debug("Could not extend watch", logger.String("path", event.Name))
		}
	}

	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) && !event.Op.Has(fsnotify.Remove) {
		return
	}
	if !isMusicFile(event.Name) && !event.Op.Has(fsnotify.Create) {
		return
	}

	logger.Debug("Filesystem change observed",
		logger.String("path", event.Name), logger.String("op", event.Op.String()))

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(watchDebounce, func() {
		if ctx.Err() != nil {
			return
		}
		summary, err := w.orch.Repair(ctx)
		if err != nil {
			if err != ErrScanInProgress {
				logger.Error("Watcher-triggered repair failed", logger.ErrorField(err))
			}
			return
		}
		logger.Info("Watcher-triggered repair finished",
			logger.Int("repaired", summary.Completed), logger.Int("failed", summary.Failed))
	})
}
