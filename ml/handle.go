package ml

import (
	"sync/atomic"
	"time"
)

// Model is one published, immutable predictor together with what it was
// loaded from. Generation increases every time a new predictor is published.
type Model struct {
	Predictor  Predictor
	Type       string
	Path       string
	Generation uint64
	LoadedAt   time.Time
}

// Handle is the process-wide owner of the loaded predictor. Readers take a
// snapshot with Current; a handle that was never published reports not loaded.
type Handle struct {
	current    atomic.Pointer[Model]
	generation atomic.Uint64
}

func NewHandle() *Handle {
	return &Handle{}
}

// Publish makes p the predictor served to subsequent readers.
func (h *Handle) Publish(p Predictor, modelType, path string) *Model {
	m := &Model{
		Predictor:  p,
		Type:       modelType,
		Path:       path,
		Generation: h.generation.Add(1),
		LoadedAt:   time.Now(),
	}
	h.current.Store(m)
	return m
}

// Current returns the published model, or false when nothing loaded.
func (h *Handle) Current() (*Model, bool) {
	if h == nil {
		return nil, false
	}
	m := h.current.Load()
	return m, m != nil
}

func (h *Handle) Loaded() bool {
	_, ok := h.Current()
	return ok
}

// Open loads the artifact and returns a handle publishing it. When loading
// fails the returned handle is empty and the error is returned alongside it,
// so callers can keep serving in a degraded state.
func Open(modelType, path string) (*Handle, error) {
	h := NewHandle()
	p, err := LoadModel(modelType, path)
	if err != nil {
		return h, err
	}
	h.Publish(p, modelType, path)
	return h, nil
}
