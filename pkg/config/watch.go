package config

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher hot-reloads configuration from configDir whenever config.yaml
// or config.local.yaml changes on disk. Grounded on the log-capture
// example's fsnotify-based config reloader, trimmed to this system's
// single-directory, single-document config surface and adapted to the
// teacher's slog-based logging instead of logrus.
type Watcher struct {
	configDir string
	debounce  time.Duration
	onReload  func(*Config)

	current atomic.Pointer[Config]

	fsw    *fsnotify.Watcher
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatcher builds a Watcher seeded with initial, the already-loaded
// configuration returned by a prior Initialize call.
func NewWatcher(configDir string, initial *Config, onReload func(*Config)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(configDir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		configDir: configDir,
		debounce:  500 * time.Millisecond,
		onReload:  onReload,
		fsw:       fsw,
		done:      make(chan struct{}),
	}
	w.current.Store(initial)
	return w, nil
}

// Current returns the most recently successfully loaded configuration.
func (w *Watcher) Current() *Config {
	return w.current.Load()
}

// Start runs the watch loop until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	go func() {
		defer close(w.done)
		defer w.fsw.Close()

		var timer *time.Timer
		var timerC <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				if !relevant(event) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(w.debounce)
				timerC = timer.C

			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", "error", err)

			case <-timerC:
				timerC = nil
				w.reload(ctx)
			}
		}
	}()
}

// Stop ends the watch loop and waits for it to exit.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	<-w.done
}

func (w *Watcher) reload(ctx context.Context) {
	cfg, err := Initialize(ctx, w.configDir)
	if err != nil {
		slog.Warn("config reload failed, keeping previous configuration", "error", err)
		return
	}
	w.current.Store(cfg)
	slog.Info("configuration reloaded")
	if w.onReload != nil {
		w.onReload(cfg)
	}
}

func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	base := event.Name
	return hasSuffixAny(base, "config.yaml", "config.local.yaml")
}

func hasSuffixAny(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if len(s) >= len(suf) && s[len(s)-len(suf):] == suf {
			return true
		}
	}
	return false
}
