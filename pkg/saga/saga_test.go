package saga

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/medicore/hospital-api/pkg/errors"
	"github.com/medicore/hospital-api/pkg/logger"
)

func TestExecuteRunsAllSteps(t *testing.T) {
	var order []string
	s := New("test", logger.NewLogger(nil)).
		AddStep(Step{Name: "one", Run: func(ctx context.Context) error {
			order = append(order, "one")
			return nil
		}}).
		AddStep(Step{Name: "two", Run: func(ctx context.Context) error {
			order = append(order, "two")
			return nil
		}})

	require.NoError(t, s.Execute(context.Background()))
	assert.Equal(t, []string{"one", "two"}, order)
}

func TestExecuteCompensatesInReverseOrder(t *testing.T) {
	var compensated []string
	s := New("test", logger.NewLogger(nil)).
		AddStep(Step{
			Name: "one",
			Run:  func(ctx context.Context) error { return nil },
			Compensate: func(ctx context.Context) error {
				compensated = append(compensated, "one")
				return nil
			},
		}).
		AddStep(Step{
			Name: "two",
			Run:  func(ctx context.Context) error { return nil },
			Compensate: func(ctx context.Context) error {
				compensated = append(compensated, "two")
				return nil
			},
		}).
		AddStep(Step{
			Name: "three",
			Run:  func(ctx context.Context) error { return errors.New("boom") },
		})

	err := s.Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"two", "one"}, compensated)
}

func TestExecuteFailedStepIsNotCompensated(t *testing.T) {
	var compensated bool
	s := New("test", logger.NewLogger(nil)).
		AddStep(Step{
			Name: "only",
			Run:  func(ctx context.Context) error { return errors.New("boom") },
			Compensate: func(ctx context.Context) error {
				compensated = true
				return nil
			},
		})

	require.Error(t, s.Execute(context.Background()))
	assert.False(t, compensated)
}

func TestExecuteCompensationFailureIsPartialFailure(t *testing.T) {
	s := New("test", logger.NewLogger(nil)).
		AddStep(Step{
			Name:       "one",
			Run:        func(ctx context.Context) error { return nil },
			Compensate: func(ctx context.Context) error { return errors.New("rollback failed") },
		}).
		AddStep(Step{
			Name: "two",
			Run:  func(ctx context.Context) error { return errors.New("boom") },
		})

	err := s.Execute(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrPartialFailure))
}

func TestExecutePreservesStepError(t *testing.T) {
	stepErr := apperrors.Conflict("taken")
	s := New("test", logger.NewLogger(nil)).
		AddStep(Step{Name: "one", Run: func(ctx context.Context) error { return stepErr }})

	err := s.Execute(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestOnCompensationFiresPerRollback(t *testing.T) {
	var counted []string
	s := New("test", logger.NewLogger(nil)).
		OnCompensation(func(step string) { counted = append(counted, step) }).
		AddStep(Step{
			Name:       "one",
			Run:        func(ctx context.Context) error { return nil },
			Compensate: func(ctx context.Context) error { return nil },
		}).
		AddStep(Step{
			Name:       "two",
			Run:        func(ctx context.Context) error { return nil },
			Compensate: func(ctx context.Context) error { return errors.New("rollback broke") },
		}).
		AddStep(Step{
			Name: "three",
			Run:  func(ctx context.Context) error { return errors.New("boom") },
		})

	err := s.Execute(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrPartialFailure))

	// The hook fires for every attempted compensation, even the one that
	// failed, in reverse step order.
	assert.Equal(t, []string{"two", "one"}, counted)
}
