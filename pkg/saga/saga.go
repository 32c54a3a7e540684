// Package saga runs multi-step operations that span call boundaries the
// database cannot wrap in one transaction (identity provider plus store).
// Each step carries a compensation; on failure the already-applied steps are
// compensated in reverse order. If a compensation itself fails the saga
// reports a partial failure so operators know manual cleanup is required.
package saga

import (
	"context"
	"fmt"

	"github.com/medicore/hospital-api/pkg/errors"
	"github.com/medicore/hospital-api/pkg/logger"
)

// Step is one unit of a saga. Compensate may be nil for steps that are safe
// to leave applied (e.g. the terminal step).
type Step struct {
	Name       string
	Run        func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

type Saga struct {
	name           string
	steps          []Step
	logger         *logger.Logger
	onCompensation func(step string)
}

func New(name string, logger *logger.Logger) *Saga {
	return &Saga{name: name, logger: logger}
}

func (s *Saga) AddStep(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// OnCompensation registers a hook invoked once per executed compensation,
// whether or not the compensation succeeded. Callers use it to count
// rollbacks.
func (s *Saga) OnCompensation(fn func(step string)) *Saga {
	s.onCompensation = fn
	return s
}

// Execute runs the steps in order. On the first failure it compensates the
// previously applied steps in reverse order and returns the step error. If
// any compensation fails, the returned error is a PartialFailure instead.
func (s *Saga) Execute(ctx context.Context) error {
	for i, step := range s.steps {
		if err := step.Run(ctx); err != nil {
			s.logger.Error(err, "saga step failed",
				"saga", s.name, "step", step.Name)
			if compErr := s.compensate(ctx, i-1); compErr != nil {
				return errors.PartialFailure(
					fmt.Sprintf("%s failed and rollback was incomplete", s.name),
					fmt.Errorf("step %s: %w (compensation: %v)", step.Name, err, compErr),
				)
			}
			return err
		}
	}
	return nil
}

func (s *Saga) compensate(ctx context.Context, from int) error {
	var failed error
	for i := from; i >= 0; i-- {
		step := s.steps[i]
		if step.Compensate == nil {
			continue
		}
		if s.onCompensation != nil {
			s.onCompensation(step.Name)
		}
		if err := step.Compensate(ctx); err != nil {
			s.logger.Error(err, "saga compensation failed",
				"saga", s.name, "step", step.Name)
			// Keep compensating the remaining steps; report the first failure.
			if failed == nil {
				failed = fmt.Errorf("compensate %s: %w", step.Name, err)
			}
		}
	}
	return failed
}
