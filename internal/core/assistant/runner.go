package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRunFailed reports a run that ended in failed, expired, or cancelled.
// Fatal for the turn; the caller decides whether to retry the whole
// send+run sequence.
var ErrRunFailed = errors.New("run ended without completing")

// DefaultPollInterval is the fixed polling cadence for run status.
const DefaultPollInterval = 500 * time.Millisecond

// Dispatcher executes a batch of pending tool calls and returns one output
// per call, in the same order.
type Dispatcher interface {
	Dispatch(ctx context.Context, calls []ToolCall) []ToolOutput
}

// Observer receives run progress notifications. The assistant's reply is
// delivered through OnAssistantMessage rather than a return value: message
// arrival is an asynchronous notification from the remote side, independent
// of the blocking call that triggered it.
type Observer interface {
	OnStatus(status RunStatus)
	OnAssistantMessage(text string)
}

// Runner drives a run from creation to a terminal state, dispatching tool
// calls as they surface. One run at a time; the poll loop blocks while a
// dispatch cycle executes.
type Runner struct {
	client   Client
	interval time.Duration
	obs      Observer
}

// NewRunner creates a runner. A zero interval selects DefaultPollInterval.
func NewRunner(client Client, interval time.Duration, obs Observer) *Runner {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Runner{client: client, interval: interval, obs: obs}
}

// Drive creates a run and polls it until completion. On requires_action it
// invokes the dispatcher synchronously, submits the outputs under the same
// run identifier, and keeps polling. On completion it fetches the latest
// message and, when assistant-authored, forwards it to the observer.
func (r *Runner) Drive(ctx context.Context, threadID, assistantID string, disp Dispatcher) error {
	handle, err := r.client.CreateRun(ctx, threadID, assistantID)
	if err != nil {
		return fmt.Errorf("drive run: %w", err)
	}

	// Each distinct status is surfaced at most once per dispatch cycle.
	reported := make(map[RunStatus]bool)

poll:
	for {
		state, err := r.client.PollRun(ctx, handle)
		if err != nil {
			return fmt.Errorf("drive run: %w", err)
		}

		if !reported[state.Status] && state.Status != RunStatusRequiresAction {
			if r.obs != nil {
				r.obs.OnStatus(state.Status)
			}
			reported[state.Status] = true
		}

		switch state.Status {
		case RunStatusCompleted:
			break poll
		case RunStatusRequiresAction:
			outputs := disp.Dispatch(ctx, state.ToolCalls)
			if err := r.client.SubmitToolOutputs(ctx, handle, outputs); err != nil {
				return fmt.Errorf("drive run: %w", err)
			}
			// The run is re-armed; allow the next status cycle to be
			// reported again.
			reported = make(map[RunStatus]bool)
		case RunStatusFailed, RunStatusExpired, RunStatusCancelled:
			return fmt.Errorf("drive run: status %s: %w", state.Status, ErrRunFailed)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.interval):
		}
	}

	msg, fromAssistant, err := r.client.LatestAssistantMessage(ctx, threadID)
	if err != nil {
		return fmt.Errorf("drive run: %w", err)
	}
	if fromAssistant && r.obs != nil {
		r.obs.OnAssistantMessage(msg.Text)
	}
	return nil
}
