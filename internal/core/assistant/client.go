// Package assistant wraps the remote conversational-inference backend:
// thread and run lifecycle, message posting, and tool-output submission.
package assistant

import (
	"context"
	"errors"
)

// ErrNotFound reports that a remote thread or assistant no longer exists.
// Callers treat it as a consistency failure and repair by creating a
// replacement rather than aborting the session.
var ErrNotFound = errors.New("remote resource not found")

// RunStatus is the remote run's state machine position.
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusFailed         RunStatus = "failed"
	RunStatusExpired        RunStatus = "expired"
	RunStatusCancelled      RunStatus = "cancelled"
)

// Terminal reports whether the run can make no further progress.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusExpired, RunStatusCancelled:
		return true
	}
	return false
}

// RunHandle identifies one run on one thread.
type RunHandle struct {
	ID       string
	ThreadID string
}

// ToolCall is a structured function invocation requested by the remote
// inference process mid-run.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // serialized JSON payload
}

// ToolOutput is the locally produced result for one tool call, tagged with
// the originating call's identifier.
type ToolOutput struct {
	CallID string
	Output string
}

// RunState is a snapshot of a polled run.
type RunState struct {
	Status    RunStatus
	ToolCalls []ToolCall // populated when Status is requires_action
}

// Message is an assistant or user message on a thread.
type Message struct {
	Role string
	Text string
}

// ToolDefinition advertises one invocable operation to the remote service.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON schema
}

// AssistantConfig describes the remote agent to create.
type AssistantConfig struct {
	Name         string
	Instructions string
	Model        string
	Tools        []ToolDefinition
}

// Client is the synchronous boundary to the remote service. Every call
// blocks; failures surface as errors (or booleans for probe calls) and the
// caller decides on recovery.
type Client interface {
	// CreateAssistant provisions a remote agent and returns its identifier.
	CreateAssistant(ctx context.Context, cfg AssistantConfig) (string, error)
	// VerifyAssistant probes whether the assistant still exists.
	VerifyAssistant(ctx context.Context, assistantID string) bool

	// CreateThread creates a conversation thread and returns its identifier.
	CreateThread(ctx context.Context) (string, error)
	// VerifyThread probes whether the thread still exists. Read-only.
	VerifyThread(ctx context.Context, threadID string) bool

	// SendMessage posts a user message to the thread.
	SendMessage(ctx context.Context, threadID, text string) error

	// CreateRun starts a run of the assistant against the thread.
	CreateRun(ctx context.Context, threadID, assistantID string) (RunHandle, error)
	// PollRun retrieves the run's current state.
	PollRun(ctx context.Context, h RunHandle) (RunState, error)
	// CancelRun requests cancellation of a run. Best-effort.
	CancelRun(ctx context.Context, h RunHandle) bool
	// ListActiveRuns returns runs on the thread not yet in a terminal state.
	ListActiveRuns(ctx context.Context, threadID string) ([]RunHandle, error)
	// SubmitToolOutputs posts the batch of tool outputs for a run awaiting
	// action, re-arming it.
	SubmitToolOutputs(ctx context.Context, h RunHandle, outputs []ToolOutput) error

	// LatestAssistantMessage fetches the single most recent message on the
	// thread. The boolean is false when the latest message was not authored
	// by the assistant.
	LatestAssistantMessage(ctx context.Context, threadID string) (Message, bool, error)
}
