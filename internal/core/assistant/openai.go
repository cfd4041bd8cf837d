package assistant

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient implements Client against the OpenAI Assistants API.
type OpenAIClient struct {
	api *openai.Client
}

// NewOpenAIClient creates a client using the given API key.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{api: openai.NewClient(apiKey)}
}

// mapErr folds remote 404s into ErrNotFound so callers can route them to the
// consistency-repair path.
func mapErr(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 404 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// CreateAssistant provisions the scoping assistant with its tool schemas.
func (c *OpenAIClient) CreateAssistant(ctx context.Context, cfg AssistantConfig) (string, error) {
	tools := make([]openai.AssistantTool, 0, len(cfg.Tools))
	for _, t := range cfg.Tools {
		tools = append(tools, openai.AssistantTool{
			Type: openai.AssistantToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	name := cfg.Name
	instructions := cfg.Instructions
	a, err := c.api.CreateAssistant(ctx, openai.AssistantRequest{
		Model:        cfg.Model,
		Name:         &name,
		Instructions: &instructions,
		Tools:        tools,
	})
	if err != nil {
		return "", mapErr("create assistant", err)
	}
	return a.ID, nil
}

// VerifyAssistant probes whether the assistant still exists remotely.
func (c *OpenAIClient) VerifyAssistant(ctx context.Context, assistantID string) bool {
	_, err := c.api.RetrieveAssistant(ctx, assistantID)
	return err == nil
}

// CreateThread creates a fresh conversation thread.
func (c *OpenAIClient) CreateThread(ctx context.Context) (string, error) {
	thread, err := c.api.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", mapErr("create thread", err)
	}
	return thread.ID, nil
}

// VerifyThread probes whether the thread still exists remotely.
func (c *OpenAIClient) VerifyThread(ctx context.Context, threadID string) bool {
	_, err := c.api.RetrieveThread(ctx, threadID)
	return err == nil
}

// SendMessage posts a user message to the thread.
func (c *OpenAIClient) SendMessage(ctx context.Context, threadID, text string) error {
	_, err := c.api.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    "user",
		Content: text,
	})
	if err != nil {
		return mapErr("send message", err)
	}
	return nil
}

// CreateRun starts a run of the assistant against the thread.
func (c *OpenAIClient) CreateRun(ctx context.Context, threadID, assistantID string) (RunHandle, error) {
	run, err := c.api.CreateRun(ctx, threadID, openai.RunRequest{AssistantID: assistantID})
	if err != nil {
		return RunHandle{}, mapErr("create run", err)
	}
	return RunHandle{ID: run.ID, ThreadID: threadID}, nil
}

// PollRun retrieves the run's status and any pending tool calls.
func (c *OpenAIClient) PollRun(ctx context.Context, h RunHandle) (RunState, error) {
	run, err := c.api.RetrieveRun(ctx, h.ThreadID, h.ID)
	if err != nil {
		return RunState{}, mapErr("retrieve run", err)
	}
	state := RunState{Status: RunStatus(run.Status)}
	if state.Status == RunStatusRequiresAction &&
		run.RequiredAction != nil && run.RequiredAction.SubmitToolOutputs != nil {
		for _, tc := range run.RequiredAction.SubmitToolOutputs.ToolCalls {
			state.ToolCalls = append(state.ToolCalls, ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
	}
	return state, nil
}

// CancelRun requests cancellation of a run. Best-effort.
func (c *OpenAIClient) CancelRun(ctx context.Context, h RunHandle) bool {
	_, err := c.api.CancelRun(ctx, h.ThreadID, h.ID)
	return err == nil
}

// ListActiveRuns returns runs on the thread not yet in a terminal state.
func (c *OpenAIClient) ListActiveRuns(ctx context.Context, threadID string) ([]RunHandle, error) {
	limit := 20
	runs, err := c.api.ListRuns(ctx, threadID, openai.Pagination{Limit: &limit})
	if err != nil {
		return nil, mapErr("list runs", err)
	}
	var active []RunHandle
	for _, run := range runs.Runs {
		if !RunStatus(run.Status).Terminal() {
			active = append(active, RunHandle{ID: run.ID, ThreadID: threadID})
		}
	}
	return active, nil
}

// SubmitToolOutputs posts the batch of tool outputs for a run awaiting action.
func (c *OpenAIClient) SubmitToolOutputs(ctx context.Context, h RunHandle, outputs []ToolOutput) error {
	outs := make([]openai.ToolOutput, 0, len(outputs))
	for _, o := range outputs {
		outs = append(outs, openai.ToolOutput{ToolCallID: o.CallID, Output: o.Output})
	}
	_, err := c.api.SubmitToolOutputs(ctx, h.ThreadID, h.ID, openai.SubmitToolOutputsRequest{
		ToolOutputs: outs,
	})
	if err != nil {
		return mapErr("submit tool outputs", err)
	}
	return nil
}

// LatestAssistantMessage fetches the most recent message on the thread.
func (c *OpenAIClient) LatestAssistantMessage(ctx context.Context, threadID string) (Message, bool, error) {
	limit := 1
	order := "desc"
	list, err := c.api.ListMessage(ctx, threadID, &limit, &order, nil, nil, nil)
	if err != nil {
		return Message{}, false, mapErr("list messages", err)
	}
	if len(list.Messages) == 0 {
		return Message{}, false, nil
	}
	latest := list.Messages[0]
	msg := Message{Role: latest.Role}
	for _, content := range latest.Content {
		if content.Text != nil {
			msg.Text = content.Text.Value
			break
		}
	}
	return msg, msg.Role == "assistant", nil
}
