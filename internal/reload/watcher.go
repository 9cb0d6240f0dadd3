// Package reload rebuilds the conversion service when the crosswalk file changes.
package reload

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"gopkg.in/fsnotify.v1"

	"grade-platform/internal/services"
	"grade-platform/pkg/logging"
	"grade-platform/pkg/metrics"
)

// DefaultDebounce collapses the burst of events editors emit on save
const DefaultDebounce = 250 * time.Millisecond

// Resetter drops cached scale data before a rebuild
type Resetter interface {
	Reset()
}

// Watcher swaps a freshly built ConversionService into a holder whenever the
// watched file is written or recreated. A failed rebuild keeps the previous service.
type Watcher struct {
	path     string
	loader   *services.ScaleLoader
	holder   *services.ServiceHolder
	cache    Resetter
	debounce time.Duration
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector

	fs *fsnotify.Watcher
}

// Option configures a Watcher
type Option func(*Watcher)

// WithCache resets cache before every rebuild
func WithCache(cache Resetter) Option {
	return func(w *Watcher) {
		w.cache = cache
	}
}

// WithDebounce overrides DefaultDebounce
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// New starts watching the directory containing path
func New(
	path string,
	loader *services.ScaleLoader,
	holder *services.ServiceHolder,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
	opts ...Option,
) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	w := &Watcher{
		path:     abs,
		loader:   loader,
		holder:   holder,
		debounce: DefaultDebounce,
		logger:   logger,
		metrics:  metricsCollector,
	}
	for _, opt := range opts {
		opt(w)
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// editors replace files by rename, so watch the directory rather than the file
	if err := fs.Add(filepath.Dir(abs)); err != nil {
		fs.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	w.fs = fs

	return w, nil
}

// Run processes file events until ctx is cancelled or Close is called
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info(ctx, "[RELOAD_WATCH] Watching crosswalk for changes", logging.Fields{
		"path":     w.path,
		"debounce": w.debounce.String(),
	})

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.logger.Debug(ctx, "[RELOAD_EVENT] Crosswalk changed", logging.Fields{
				"op": event.Op.String(),
			})
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			// failures are logged and counted in Reload; keep serving the old registry
			_ = w.Reload(ctx)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn(ctx, "[RELOAD_WATCH_ERROR] File watcher error", logging.Fields{
				"error": err.Error(),
			})
		}
	}
}

// Reload rebuilds the service now and swaps it in on success
func (w *Watcher) Reload(ctx context.Context) error {
	if w.cache != nil {
		w.cache.Reset()
	}

	svc, err := w.loader.Build(ctx, nil)
	if err != nil {
		w.metrics.RecordReload("failure")
		w.logger.Error(ctx, "[RELOAD_FAILED] Keeping previous scale registry", logging.Fields{
			"path": w.path,
		}, err)
		return fmt.Errorf("failed to rebuild conversion service: %w", err)
	}

	previous := w.holder.Swap(svc)
	w.metrics.RecordReload("success")

	fields := logging.Fields{
		"path":   w.path,
		"scales": len(svc.Scales()),
	}
	if previous != nil {
		fields["previous_scales"] = len(previous.Scales())
	}
	w.logger.Info(ctx, "[RELOAD_SUCCESS] Scale registry reloaded", fields)
	return nil
}

// Close stops the underlying file watcher; Run returns once its channels close
func (w *Watcher) Close() error {
	return w.fs.Close()
}
