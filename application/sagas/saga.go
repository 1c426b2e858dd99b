// Package sagas runs multi-step graph merges that must unwind cleanly.
// A deep exploration start merges several expansion batches into one
// session; if a later batch fails, the earlier ones are compensated in
// reverse so the graph ends up where a single failed expansion would
// leave it.
package sagas

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	pkgerrors "github.com/Anidipta/Node-Learner/pkg/errors"
)

// SagaStep is one unit of a saga. Execute receives the previous step's
// output and returns its own. Compensate, when set, undoes the step's
// effects; it receives the data the step produced.
type SagaStep struct {
	Name       string
	Execute    func(ctx context.Context, data interface{}) (interface{}, error)
	Compensate func(ctx context.Context, data interface{}) error
	Attempts   int
	RetryDelay time.Duration
}

// Saga executes its steps in order and, on failure, runs the completed
// steps' compensations in reverse. Compensation is best effort: a
// compensation error is logged and the remaining ones still run, because
// a half-unwound graph is better than an untouched one.
type Saga struct {
	id     string
	name   string
	steps  []SagaStep
	logger *zap.Logger
}

type registeredCompensation struct {
	step string
	run  func(ctx context.Context) error
}

// Execute runs the steps in order. The returned error is the failing
// step's error; compensation outcomes only appear in logs.
func (s *Saga) Execute(ctx context.Context, initialData interface{}) (interface{}, error) {
	s.logger.Info("Starting saga",
		zap.String("sagaID", s.id),
		zap.String("saga", s.name),
		zap.Int("steps", len(s.steps)),
	)

	var compensations []registeredCompensation
	data := initialData

	for _, step := range s.steps {
		result, err := s.runStep(ctx, step, data)
		if err != nil {
			s.logger.Error("Saga step failed, unwinding",
				zap.String("sagaID", s.id),
				zap.String("step", step.Name),
				zap.Error(err),
			)
			s.compensate(ctx, compensations)
			return nil, fmt.Errorf("saga %s failed at step %s: %w", s.name, step.Name, err)
		}

		if step.Compensate != nil {
			compensate, produced := step.Compensate, result
			compensations = append(compensations, registeredCompensation{
				step: step.Name,
				run: func(ctx context.Context) error {
					return compensate(ctx, produced)
				},
			})
		}
		data = result
	}

	s.logger.Info("Saga completed",
		zap.String("sagaID", s.id),
		zap.String("saga", s.name),
	)
	return data, nil
}

// runStep retries a step up to its attempt budget. Non-retryable
// failures (validation, graph caps) stop immediately; a second try
// cannot change their outcome.
func (s *Saga) runStep(ctx context.Context, step SagaStep, data interface{}) (interface{}, error) {
	attempts := step.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := step.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := step.Execute(ctx, data)
		if err == nil {
			return result, nil
		}
		lastErr = err

		s.logger.Warn("Saga step attempt failed",
			zap.String("sagaID", s.id),
			zap.String("step", step.Name),
			zap.Int("attempt", attempt),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)

		if !pkgerrors.IsRetryable(err) {
			break
		}
	}

	return nil, lastErr
}

func (s *Saga) compensate(ctx context.Context, compensations []registeredCompensation) {
	for i := len(compensations) - 1; i >= 0; i-- {
		c := compensations[i]
		if err := c.run(ctx); err != nil {
			s.logger.Error("Saga compensation failed",
				zap.String("sagaID", s.id),
				zap.String("step", c.step),
				zap.Error(err),
			)
		}
	}
}

// SagaBuilder assembles a saga step by step.
type SagaBuilder struct {
	saga *Saga
}

// NewSagaBuilder creates a builder for a named saga.
func NewSagaBuilder(name string, logger *zap.Logger) *SagaBuilder {
	return &SagaBuilder{
		saga: &Saga{
			id:     uuid.NewString(),
			name:   name,
			logger: logger,
		},
	}
}

// WithRetryableStep adds a step retried up to attempts times with a
// fixed delay between tries.
func (b *SagaBuilder) WithRetryableStep(
	name string,
	execute func(context.Context, interface{}) (interface{}, error),
	attempts int,
	retryDelay time.Duration,
) *SagaBuilder {
	b.saga.steps = append(b.saga.steps, SagaStep{
		Name:       name,
		Execute:    execute,
		Attempts:   attempts,
		RetryDelay: retryDelay,
	})
	return b
}

// WithCompensableStep adds a step whose effects compensate can undo.
func (b *SagaBuilder) WithCompensableStep(
	name string,
	execute func(context.Context, interface{}) (interface{}, error),
	compensate func(context.Context, interface{}) error,
) *SagaBuilder {
	b.saga.steps = append(b.saga.steps, SagaStep{
		Name:       name,
		Execute:    execute,
		Compensate: compensate,
	})
	return b
}

// Build returns the assembled saga.
func (b *SagaBuilder) Build() *Saga {
	return b.saga
}
