package pipeline

import "time"

// Observer receives pipeline events for metrics.
type Observer interface {
	ObserveOutcome(status Status)
	ObserveInference(d time.Duration, err error)
	ObserveCache(hit bool)
}

type nopObserver struct{}

func (nopObserver) ObserveOutcome(Status) {}

func (nopObserver) ObserveInference(time.Duration, error) {}

func (nopObserver) ObserveCache(bool) {}
