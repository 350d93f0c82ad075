package pipeline

import (
	"errors"
	"fmt"
	"math"
	"time"

	"diabetesapi/ml"
)

// Adapter exposes the shared predictor to the pipeline. Every error it
// returns is a *Error tagged model_not_loaded or prediction_failed.
type Adapter struct {
	handle   *ml.Handle
	cache    *Cache
	observer Observer
}

func NewAdapter(handle *ml.Handle, cache *Cache, observer Observer) *Adapter {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Adapter{handle: handle, cache: cache, observer: observer}
}

// Classify returns the predicted label for v.
func (a *Adapter) Classify(v ml.FeatureVector) (int, error) {
	m, ok := a.handle.Current()
	if !ok {
		return 0, errModelNotLoaded()
	}
	return a.classify(m, v)
}

// ClassProbabilities returns [p(no diabetes), p(diabetes)] for v.
func (a *Adapter) ClassProbabilities(v ml.FeatureVector) ([]float64, error) {
	m, ok := a.handle.Current()
	if !ok {
		return nil, errModelNotLoaded()
	}
	return a.probabilities(m, v)
}

// Infer runs both predictor operations against one model snapshot, so a
// concurrent reload cannot split label and probabilities across two models.
// The cache is consulted first.
func (a *Adapter) Infer(v ml.FeatureVector) (Inference, error) {
	m, ok := a.handle.Current()
	if !ok {
		return Inference{}, errModelNotLoaded()
	}
	if inf, hit := a.cache.Get(m.Generation, v); hit {
		a.observer.ObserveCache(true)
		return inf, nil
	}
	if a.cache != nil {
		a.observer.ObserveCache(false)
	}

	start := time.Now()
	label, err := a.classify(m, v)
	if err == nil {
		var probs []float64
		probs, err = a.probabilities(m, v)
		if err == nil {
			inf := Inference{Label: label, Probabilities: probs}
			a.observer.ObserveInference(time.Since(start), nil)
			a.cache.Add(m.Generation, v, inf)
			return inf, nil
		}
	}
	a.observer.ObserveInference(time.Since(start), err)
	return Inference{}, err
}

func (a *Adapter) classify(m *ml.Model, v ml.FeatureVector) (int, error) {
	var label int
	err := a.guard(func() (err error) {
		label, err = m.Predictor.Predict(v)
		return err
	})
	if err != nil {
		return 0, err
	}
	if label != 0 && label != 1 {
		return 0, errPrediction(fmt.Errorf("predictor returned non-binary label %d", label))
	}
	return label, nil
}

func (a *Adapter) probabilities(m *ml.Model, v ml.FeatureVector) ([]float64, error) {
	var probs []float64
	err := a.guard(func() (err error) {
		probs, err = m.Predictor.PredictProba(v)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := checkProbabilities(probs); err != nil {
		return nil, errPrediction(err)
	}
	return probs, nil
}

func (a *Adapter) guard(call func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errPrediction(fmt.Errorf("predictor panicked: %v", r))
		}
	}()
	if err := call(); err != nil {
		return errPrediction(err)
	}
	return nil
}

func checkProbabilities(probs []float64) error {
	if len(probs) != 2 {
		return fmt.Errorf("expected 2 class probabilities, got %d", len(probs))
	}
	for _, p := range probs {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 1 {
			return errors.New("class probabilities out of range")
		}
	}
	if math.Abs(probs[0]+probs[1]-1) > 1e-6 {
		return fmt.Errorf("class probabilities sum to %v", probs[0]+probs[1])
	}
	return nil
}
