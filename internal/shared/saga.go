package shared

import (
	"context"
	"log/slog"
)

// SagaStep pairs an action with its compensating undo. Undo runs only for
// steps whose action already succeeded, in reverse order.
type SagaStep struct {
	Name string
	Do   func(ctx context.Context) error
	Undo func(ctx context.Context) error
}

// Saga sequences multi-store writes that cannot share a database transaction,
// such as an object-storage upload followed by a metadata insert.
type Saga struct {
	logger *slog.Logger
	steps  []SagaStep
}

// NewSaga constructs an empty saga.
func NewSaga(logger *slog.Logger) *Saga {
	return &Saga{logger: logger}
}

// Step appends a step and returns the saga for chaining.
func (s *Saga) Step(step SagaStep) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Run executes each step in order. On failure it runs the undo functions of
// completed steps in reverse and returns the original error. Undo failures
// are logged, not returned: the primary failure is what the caller acts on.
func (s *Saga) Run(ctx context.Context) error {
	done := make([]SagaStep, 0, len(s.steps))
	for _, step := range s.steps {
		if step.Do == nil {
			continue
		}
		if err := step.Do(ctx); err != nil {
			for i := len(done) - 1; i >= 0; i-- {
				undo := done[i]
				if undo.Undo == nil {
					continue
				}
				if undoErr := undo.Undo(ctx); undoErr != nil && s.logger != nil {
					s.logger.Error("saga compensation failed",
						slog.String("step", undo.Name),
						slog.Any("error", undoErr))
				}
			}
			return err
		}
		done = append(done, step)
	}
	return nil
}
