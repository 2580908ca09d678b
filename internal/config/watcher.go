package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce coalesces bursts of writes from editors into one reload.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads the settings file when it changes and notifies subscribers.
type Watcher struct {
	fs       *fsnotify.Watcher
	log      zerolog.Logger
	path     string
	debounce time.Duration

	mu   sync.Mutex
	subs []func(*Config)
}

// NewWatcher watches the directory holding the settings file. Watching the
// directory survives editors that replace the file instead of writing it.
func NewWatcher(log zerolog.Logger) (*Watcher, error) {
	if err := EnsureDataDir(); err != nil {
		return nil, err
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	path := SettingsPath()
	if err := fs.Add(filepath.Dir(path)); err != nil {
		_ = fs.Close()
		return nil, err
	}
	return &Watcher{
		fs:       fs,
		log:      log.With().Str("component", "config-watcher").Logger(),
		path:     path,
		debounce: DefaultDebounce,
	}, nil
}

// Subscribe registers fn to run with the new configuration after each reload.
func (w *Watcher) Subscribe(fn func(*Config)) {
	w.mu.Lock()
	w.subs = append(w.subs, fn)
	w.mu.Unlock()
}

// Run processes file events until ctx is cancelled. It closes the underlying watcher on return.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fs.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("Settings watcher error")
		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Reload()
	if err != nil {
		w.log.Warn().Err(err).Msg("Failed to reload settings, keeping previous configuration")
		return
	}
	w.log.Info().Int("port", cfg.WorkerPort).Str("backend", string(cfg.Backend)).Msg("Settings reloaded")

	w.mu.Lock()
	subs := append(([]func(*Config))(nil), w.subs...)
	w.mu.Unlock()
	for _, fn := range subs {
		fn(cfg)
	}
}
