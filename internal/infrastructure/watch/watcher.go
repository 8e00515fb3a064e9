package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 500 * time.Millisecond

// DirWatcher calls OnChange once a burst of writes to matching files in one
// directory has settled.
type DirWatcher struct {
	dir      string
	suffix   string
	debounce time.Duration
	onChange func(ctx context.Context)
	logger   *slog.Logger
}

type Options struct {
	// Suffix limits the watched files, e.g. ".json". Empty matches everything.
	Suffix   string
	Debounce time.Duration
	Logger   *slog.Logger
}

func NewDirWatcher(dir string, onChange func(ctx context.Context), options Options) *DirWatcher {
	debounce := options.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DirWatcher{
		dir:      dir,
		suffix:   strings.ToLower(options.Suffix),
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
	}
}

// Run blocks until ctx is done.
func (w *DirWatcher) Run(ctx context.Context) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsWatcher.Close()

	if err := fsWatcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info("directory_watch_started", "dir", w.dir, "suffix", w.suffix)

	var (
		mu       sync.Mutex
		debounce *time.Timer
	)
	defer func() {
		mu.Lock()
		if debounce != nil {
			debounce.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("directory_watch_event", "file", event.Name, "op", event.Op.String())
			mu.Lock()
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(w.debounce, func() {
				if ctx.Err() != nil {
					return
				}
				w.onChange(ctx)
			})
			mu.Unlock()
		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("directory_watch_error", "dir", w.dir, "error", err)
		}
	}
}

func (w *DirWatcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return w.suffix == "" || strings.HasSuffix(strings.ToLower(base), w.suffix)
}
