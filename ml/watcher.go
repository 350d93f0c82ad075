package ml

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads a model artifact when the file changes on disk and publishes
// the new predictor on a Handle. A reload that fails keeps the previous model.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	handle   *Handle
	logger   *zap.Logger
	kind     string
	path     string
	debounce time.Duration
	pending  time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool

	// OnReload, if set, is called after every reload attempt.
	OnReload func(m *Model, err error)
}

func NewWatcher(handle *Handle, modelType, path string, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		watcher:  fw,
		handle:   handle,
		logger:   logger,
		kind:     modelType,
		path:     filepath.Clean(path),
		debounce: 250 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start watches the directory holding the artifact, so that editors and
// deploy tools that replace the file by rename are picked up too.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	w.logger.Info("watching model artifact", zap.String("path", w.path))

	go w.run(ctx)
	return nil
}

func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.watcher.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("closing model watcher", zap.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("model watcher error", zap.Error(err))
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	w.mu.Lock()
	w.pending = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if w.pending.IsZero() || time.Since(w.pending) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = time.Time{}
	w.mu.Unlock()

	w.Reload()
}

// Reload loads the artifact now and publishes it on success.
func (w *Watcher) Reload() (*Model, error) {
	p, err := LoadModel(w.kind, w.path)
	if err != nil {
		w.logger.Warn("model reload failed, keeping previous model",
			zap.String("path", w.path), zap.Error(err))
		if w.OnReload != nil {
			w.OnReload(nil, err)
		}
		return nil, err
	}
	m := w.handle.Publish(p, w.kind, w.path)
	w.logger.Info("model reloaded",
		zap.String("path", w.path), zap.Uint64("generation", m.Generation))
	if w.OnReload != nil {
		w.OnReload(m, nil)
	}
	return m, nil
}
