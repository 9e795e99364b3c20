package operate

import (
	"context"
	"fmt"
	"time"

	"github.com/tailored-agentic-units/course-agent/observability"
)

// StepProcessor applies one item and returns the updated accumulated state.
// An error stops the chain.
type StepProcessor[TItem, TState any] func(
	ctx context.Context,
	item TItem,
	state TState,
) (TState, error)

// ProgressFunc is called after each successful step with the number of steps
// completed so far (1-indexed). It is not called when a step fails.
type ProgressFunc[TState any] func(
	completed int,
	total int,
	state TState,
)

// ChainResult contains the results of chain execution. Final is the state
// after all steps on success, or the initial state on failure; the state at
// the point of failure is carried by ChainError.
type ChainResult[TState any] struct {
	Final TState
	Steps int
}

// ProcessChain runs items in order, folding state from step to step.
// Processing stops on the first error (fail-fast): later items are never
// processed and nothing already processed is undone. Context cancellation is
// checked at the start of each step.
//
// Errors are wrapped in ChainError carrying the 0-based step index, the item,
// and the state accumulated before it.
//
// Events:
//   - EventOperationStep before each step
//   - EventOperationStepDone after each successful step
//   - EventOperationStepFailed when a step fails or is cancelled
func ProcessChain[TItem, TState any](
	ctx context.Context,
	observer observability.Observer,
	items []TItem,
	initial TState,
	processor StepProcessor[TItem, TState],
	progress ProgressFunc[TState],
) (ChainResult[TState], error) {
	if observer == nil {
		observer = observability.Discard
	}
	result := ChainResult[TState]{Final: initial}
	emit := func(typ observability.EventType, level observability.Level, data map[string]any) {
		observer.OnEvent(ctx, observability.Event{
			Type:      typ,
			Level:     level,
			Timestamp: time.Now(),
			Source:    "operate.ProcessChain",
			SessionID: observability.SessionID(ctx),
			Data:      data,
		})
	}

	state := initial

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			emit(observability.EventOperationStepFailed, observability.LevelWarning, map[string]any{
				"step_index":  i,
				"total_steps": len(items),
				"error_type":  "cancellation",
			})
			return result, &ChainError[TItem, TState]{
				StepIndex: i,
				Item:      item,
				State:     state,
				Err:       fmt.Errorf("processing cancelled: %w", err),
			}
		}

		emit(observability.EventOperationStep, observability.LevelVerbose, map[string]any{
			"step_index":  i,
			"total_steps": len(items),
		})

		updated, err := processor(ctx, item, state)
		if err != nil {
			emit(observability.EventOperationStepFailed, observability.LevelWarning, map[string]any{
				"step_index":  i,
				"total_steps": len(items),
				"error_type":  "processor",
				"error":       err.Error(),
			})
			return result, &ChainError[TItem, TState]{
				StepIndex: i,
				Item:      item,
				State:     state,
				Err:       err,
			}
		}

		state = updated

		emit(observability.EventOperationStepDone, observability.LevelVerbose, map[string]any{
			"step_index":  i,
			"total_steps": len(items),
		})

		if progress != nil {
			progress(i+1, len(items), state)
		}
	}

	result.Final = state
	result.Steps = len(items)
	return result, nil
}
