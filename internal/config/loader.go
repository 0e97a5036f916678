package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Loader reads the YAML rule file and watches it for changes. A config is
// validated before it is installed, so Config never returns a file that
// failed validation.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *File
	onChange []func(*File)
	watcher  *fsnotify.Watcher
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// Config returns the current (latest) configuration.
func (l *Loader) Config() *File {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the config reloads.
func (l *Loader) OnChange(fn func(*File)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the config on file
// changes. Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", l.path, err)
	}
	l.watcher = w

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					cfg, err := l.load()
					if err != nil {
						// Keep serving the old config.
						continue
					}
					l.install(cfg)
				}
			case <-w.Errors:
				// Ignore watcher errors.
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

// Reload forces an immediate re-read of the config file.
func (l *Loader) Reload() (*File, error) {
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.install(cfg)
	return cfg, nil
}

func (l *Loader) install(cfg *File) {
	l.mu.Lock()
	l.current = cfg
	callbacks := make([]func(*File), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(cfg)
	}
}

func (l *Loader) load() (*File, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", l.path, err)
	}
	var cfg File
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", l.path, err)
	}
	ApplyDefaults(&cfg.Engine)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", l.path, err)
	}
	return &cfg, nil
}

// ApplyDefaults fills zero-valued engine settings.
func ApplyDefaults(e *EngineConf) {
	if e.SweepWorkers == 0 {
		e.SweepWorkers = 8
	}
	if e.ActionTimeoutMs == 0 {
		e.ActionTimeoutMs = 10000
	}
	if e.SubjectKind == "" {
		e.SubjectKind = "client"
	}
	if e.SweepCron == "" {
		e.SweepCron = "0 * * * *"
	}
}
