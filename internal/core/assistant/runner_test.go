package assistant

import (
	"context"
	"errors"
	"testing"
	"time"
)

// scriptedClient replays a fixed sequence of run states and records the
// order of client calls.
type scriptedClient struct {
	states    []RunState
	pollIdx   int
	calls     []string
	submitted [][]ToolOutput
	message   Message
	fromAsst  bool
}

func (c *scriptedClient) CreateAssistant(ctx context.Context, cfg AssistantConfig) (string, error) {
	return "asst_test", nil
}
func (c *scriptedClient) VerifyAssistant(ctx context.Context, id string) bool { return true }
func (c *scriptedClient) CreateThread(ctx context.Context) (string, error)    { return "thread_test", nil }
func (c *scriptedClient) VerifyThread(ctx context.Context, id string) bool    { return true }
func (c *scriptedClient) SendMessage(ctx context.Context, threadID, text string) error {
	c.calls = append(c.calls, "send")
	return nil
}
func (c *scriptedClient) CreateRun(ctx context.Context, threadID, assistantID string) (RunHandle, error) {
	c.calls = append(c.calls, "create_run")
	return RunHandle{ID: "run_1", ThreadID: threadID}, nil
}
func (c *scriptedClient) PollRun(ctx context.Context, h RunHandle) (RunState, error) {
	c.calls = append(c.calls, "poll")
	if c.pollIdx >= len(c.states) {
		return RunState{}, errors.New("polled past end of script")
	}
	state := c.states[c.pollIdx]
	c.pollIdx++
	return state, nil
}
func (c *scriptedClient) CancelRun(ctx context.Context, h RunHandle) bool { return true }
func (c *scriptedClient) ListActiveRuns(ctx context.Context, threadID string) ([]RunHandle, error) {
	return nil, nil
}
func (c *scriptedClient) SubmitToolOutputs(ctx context.Context, h RunHandle, outputs []ToolOutput) error {
	c.calls = append(c.calls, "submit")
	c.submitted = append(c.submitted, outputs)
	return nil
}
func (c *scriptedClient) LatestAssistantMessage(ctx context.Context, threadID string) (Message, bool, error) {
	c.calls = append(c.calls, "fetch_message")
	return c.message, c.fromAsst, nil
}

type recordingDispatcher struct {
	invocations int
	received    [][]ToolCall
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, calls []ToolCall) []ToolOutput {
	d.invocations++
	d.received = append(d.received, calls)
	outputs := make([]ToolOutput, 0, len(calls))
	for _, call := range calls {
		outputs = append(outputs, ToolOutput{CallID: call.ID, Output: `{"status":"success"}`})
	}
	return outputs
}

type recordingObserver struct {
	statuses []RunStatus
	messages []string
}

func (o *recordingObserver) OnStatus(s RunStatus)          { o.statuses = append(o.statuses, s) }
func (o *recordingObserver) OnAssistantMessage(msg string) { o.messages = append(o.messages, msg) }

func TestDriveDispatchesToolCallsOnce(t *testing.T) {
	client := &scriptedClient{
		states: []RunState{
			{Status: RunStatusQueued},
			{Status: RunStatusInProgress},
			{Status: RunStatusRequiresAction, ToolCalls: []ToolCall{
				{ID: "call_1", Name: "generate_suggestions", Arguments: `{}`},
			}},
			{Status: RunStatusInProgress},
			{Status: RunStatusCompleted},
		},
		message:  Message{Role: "assistant", Text: "What is the main objective?"},
		fromAsst: true,
	}
	disp := &recordingDispatcher{}
	obs := &recordingObserver{}
	runner := NewRunner(client, time.Millisecond, obs)

	if err := runner.Drive(context.Background(), "thread_test", "asst_test", disp); err != nil {
		t.Fatalf("Drive() error = %v", err)
	}

	if disp.invocations != 1 {
		t.Errorf("dispatcher invoked %d times, want 1", disp.invocations)
	}
	if len(client.submitted) != 1 || len(client.submitted[0]) != 1 || client.submitted[0][0].CallID != "call_1" {
		t.Errorf("submitted outputs = %+v, want single output for call_1", client.submitted)
	}

	// Outputs must be submitted before the next poll.
	submitAt, pollsBefore, pollsAfter := -1, 0, 0
	for i, call := range client.calls {
		switch call {
		case "submit":
			submitAt = i
		case "poll":
			if submitAt == -1 {
				pollsBefore++
			} else {
				pollsAfter++
			}
		}
	}
	if submitAt == -1 {
		t.Fatal("tool outputs never submitted")
	}
	if pollsBefore != 3 || pollsAfter != 2 {
		t.Errorf("polls before/after submit = %d/%d, want 3/2 (calls: %v)", pollsBefore, pollsAfter, client.calls)
	}

	// The surfaced message is the post-completion fetch.
	if len(obs.messages) != 1 || obs.messages[0] != "What is the main objective?" {
		t.Errorf("observer messages = %v, want the completed-run message", obs.messages)
	}
	if client.calls[len(client.calls)-1] != "fetch_message" {
		t.Errorf("message fetched before the run completed (calls: %v)", client.calls)
	}
}

func TestDriveDeduplicatesStatusReports(t *testing.T) {
	client := &scriptedClient{
		states: []RunState{
			{Status: RunStatusInProgress},
			{Status: RunStatusInProgress},
			{Status: RunStatusInProgress},
			{Status: RunStatusCompleted},
		},
		message:  Message{Role: "assistant", Text: "done"},
		fromAsst: true,
	}
	obs := &recordingObserver{}
	runner := NewRunner(client, time.Millisecond, obs)

	if err := runner.Drive(context.Background(), "t", "a", &recordingDispatcher{}); err != nil {
		t.Fatalf("Drive() error = %v", err)
	}

	want := []RunStatus{RunStatusInProgress, RunStatusCompleted}
	if len(obs.statuses) != len(want) {
		t.Fatalf("statuses = %v, want %v", obs.statuses, want)
	}
	for i := range want {
		if obs.statuses[i] != want[i] {
			t.Errorf("statuses[%d] = %s, want %s", i, obs.statuses[i], want[i])
		}
	}
}

func TestDriveStatusMemoResetsAfterDispatch(t *testing.T) {
	client := &scriptedClient{
		states: []RunState{
			{Status: RunStatusInProgress},
			{Status: RunStatusRequiresAction, ToolCalls: []ToolCall{{ID: "c1", Name: "save_scope"}}},
			{Status: RunStatusInProgress},
			{Status: RunStatusCompleted},
		},
		message:  Message{Role: "assistant", Text: "saved"},
		fromAsst: true,
	}
	obs := &recordingObserver{}
	runner := NewRunner(client, time.Millisecond, obs)

	if err := runner.Drive(context.Background(), "t", "a", &recordingDispatcher{}); err != nil {
		t.Fatalf("Drive() error = %v", err)
	}

	// in_progress is reported once per dispatch cycle: before and after.
	inProgress := 0
	for _, s := range obs.statuses {
		if s == RunStatusInProgress {
			inProgress++
		}
	}
	if inProgress != 2 {
		t.Errorf("in_progress reported %d times, want 2 (memo cleared after dispatch): %v", inProgress, obs.statuses)
	}
}

func TestDriveTerminalFailure(t *testing.T) {
	tests := []struct {
		name   string
		status RunStatus
	}{
		{"failed", RunStatusFailed},
		{"expired", RunStatusExpired},
		{"cancelled", RunStatusCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &scriptedClient{
				states: []RunState{{Status: RunStatusQueued}, {Status: tt.status}},
			}
			runner := NewRunner(client, time.Millisecond, &recordingObserver{})
			err := runner.Drive(context.Background(), "t", "a", &recordingDispatcher{})
			if !errors.Is(err, ErrRunFailed) {
				t.Errorf("Drive() error = %v, want ErrRunFailed", err)
			}
			for _, call := range client.calls {
				if call == "fetch_message" {
					t.Error("message fetched after a terminal failure")
				}
			}
		})
	}
}

func TestDriveIgnoresNonAssistantMessage(t *testing.T) {
	client := &scriptedClient{
		states:   []RunState{{Status: RunStatusCompleted}},
		message:  Message{Role: "user", Text: "my own message"},
		fromAsst: false,
	}
	obs := &recordingObserver{}
	runner := NewRunner(client, time.Millisecond, obs)

	if err := runner.Drive(context.Background(), "t", "a", &recordingDispatcher{}); err != nil {
		t.Fatalf("Drive() error = %v", err)
	}
	if len(obs.messages) != 0 {
		t.Errorf("observer got %v, want no messages for user-authored latest message", obs.messages)
	}
}
