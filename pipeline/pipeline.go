// Package pipeline validates prediction requests and runs them through the
// loaded model.
//
// A request moves through schema check, range check, feature vector
// construction, inference and formatting. The first failing stage ends the
// run with a *Error whose Status tells the caller what went wrong.
package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

type Pipeline struct {
	adapter  *Adapter
	logger   *zap.Logger
	observer Observer
	now      func() time.Time
}

type Option func(*Pipeline)

func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(p *Pipeline) {
		if observer != nil {
			p.observer = observer
		}
	}
}

// WithClock overrides the result timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

func New(adapter *Adapter, opts ...Option) *Pipeline {
	p := &Pipeline{
		adapter:  adapter,
		logger:   zap.NewNop(),
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run validates payload and predicts on it. Any error returned is a *Error.
func (p *Pipeline) Run(ctx context.Context, payload Payload) (*PredictionResult, error) {
	result, err := p.run(ctx, payload)
	if err != nil {
		var perr *Error
		if !errors.As(err, &perr) {
			perr = &Error{Status: StatusInternalError, Message: err.Error(), Cause: err}
		}
		p.observer.ObserveOutcome(perr.Status)
		p.logFailure(ctx, perr)
		return nil, perr
	}
	p.observer.ObserveOutcome(StatusSuccess)
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, payload Payload) (*PredictionResult, error) {
	if len(payload) == 0 {
		return nil, errNoData()
	}
	if missing := MissingFields(payload); len(missing) > 0 {
		return nil, errMissingFeatures(missing)
	}
	if outcome := ValidateRanges(payload); !outcome.Valid() {
		return nil, errValidation(outcome.Violations)
	}
	vec := BuildFeatureVector(payload)
	inf, err := p.adapter.Infer(vec)
	if err != nil {
		return nil, err
	}
	return FormatResult(inf.Label, inf.Probabilities, p.now(), languageFrom(ctx)), nil
}

func (p *Pipeline) logFailure(ctx context.Context, err *Error) {
	fields := []zap.Field{
		zap.String("status", string(err.Status)),
		zap.String("message", err.Message),
	}
	if id := RequestIDFrom(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	switch err.Status {
	case StatusPredictionFailed, StatusInternalError:
		p.logger.Warn("prediction request failed", append(fields, zap.Error(err.Cause))...)
	default:
		p.logger.Info("prediction request rejected", fields...)
	}
}

type requestIDKey struct{}

// WithRequestID tags ctx so pipeline logs can be correlated with access logs.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
