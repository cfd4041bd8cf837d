// Package tools decodes and executes the structured tool calls the remote
// assistant emits mid-run: project name generation, category suggestions,
// and scope-document saves.
package tools

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/romgenie/scope-agent/internal/core/assistant"
	"github.com/romgenie/scope-agent/internal/core/events"
	"github.com/romgenie/scope-agent/internal/core/models"
)

// toolName enumerates the closed set of operations advertised to the remote
// service. The remote schema is the only producer of call names, so the set
// never grows at runtime.
type toolName string

const (
	toolGenerateProjectNames toolName = "generate_project_names"
	toolGenerateSuggestions  toolName = "generate_suggestions"
	toolSaveScope            toolName = "save_scope"
)

// Pending is the suggestion set offered for the current turn. It is produced
// by a dispatch cycle and handed to the turn-processing code as an explicit
// value; it never outlives the turn it belongs to.
type Pending struct {
	Category    models.Category
	Question    string
	Suggestions []models.SuggestionItem
	AllowCustom bool
}

// SuggestionsReadyEvent is published when a dispatch cycle produced
// suggestions for the presentation layer to render.
type SuggestionsReadyEvent struct {
	Category    models.Category
	Suggestions []models.SuggestionItem
	AllowCustom bool
}

// ScopeSavedEvent is published when the assistant submitted a valid scope
// document.
type ScopeSavedEvent struct {
	Scope map[string]any
}

// Dispatcher validates tool-call payloads against their schemas and produces
// one typed output per call. Side effects are published on the event bus;
// the suggestion slot for the cycle is collected via TakePending.
type Dispatcher struct {
	bus     *events.Bus
	log     *slog.Logger
	pending *Pending
}

// NewDispatcher creates a dispatcher publishing on bus.
func NewDispatcher(bus *events.Bus, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{bus: bus, log: log}
}

// Dispatch processes a batch of pending calls and returns one output per
// call, in order, each tagged with the originating call id. A decode or
// validation failure degrades only the offending call's output; the rest of
// the batch still succeeds.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []assistant.ToolCall) []assistant.ToolOutput {
	outputs := make([]assistant.ToolOutput, 0, len(calls))
	for _, call := range calls {
		outputs = append(outputs, assistant.ToolOutput{
			CallID: call.ID,
			Output: d.execute(call),
		})
	}
	return outputs
}

// TakePending returns the suggestion set collected during the last dispatch
// cycle and clears the slot, transferring ownership to the caller.
func (d *Dispatcher) TakePending() *Pending {
	p := d.pending
	d.pending = nil
	return p
}

func (d *Dispatcher) execute(call assistant.ToolCall) string {
	switch toolName(call.Name) {
	case toolGenerateProjectNames:
		return d.generateProjectNames(call.Arguments)
	case toolGenerateSuggestions:
		return d.generateSuggestions(call.Arguments)
	case toolSaveScope:
		return d.saveScope(call.Arguments)
	default:
		// Unreachable when the advertised schema is the only producer of
		// call names; degrade to an error response regardless.
		d.log.Error("unknown tool call", "name", call.Name, "id", call.ID)
		return marshalOutput(models.SuggestionResponse{Status: "error"})
	}
}

func (d *Dispatcher) generateProjectNames(args string) string {
	var req models.ProjectNameRequest
	if err := json.Unmarshal([]byte(args), &req); err != nil {
		d.log.Error("decode generate_project_names payload", "error", err)
		return marshalOutput(models.SuggestionResponse{Status: "error"})
	}
	for i := range req.Suggestions {
		req.Suggestions[i].EnsureID()
	}

	d.pending = &Pending{
		Category:    models.CategoryProjectName,
		Suggestions: req.Suggestions,
		AllowCustom: req.AllowCustom(),
	}
	d.publishSuggestions()

	return marshalOutput(models.SuggestionResponse{
		Status:         "success",
		Rendered:       true,
		NumSuggestions: len(req.Suggestions),
	})
}

func (d *Dispatcher) generateSuggestions(args string) string {
	var req models.SuggestionRequest
	if err := json.Unmarshal([]byte(args), &req); err != nil {
		d.log.Error("decode generate_suggestions payload", "error", err)
		return marshalOutput(models.SuggestionResponse{Status: "error"})
	}
	if err := req.Validate(); err != nil {
		d.log.Error("invalid generate_suggestions payload", "error", err)
		return marshalOutput(models.SuggestionResponse{Status: "error"})
	}
	for i := range req.Suggestions {
		req.Suggestions[i].EnsureID()
	}

	d.pending = &Pending{
		Category:    req.Category,
		Question:    req.Question,
		Suggestions: req.Suggestions,
		AllowCustom: req.AllowCustom(),
	}
	d.publishSuggestions()

	return marshalOutput(models.SuggestionResponse{
		Status:         "success",
		Rendered:       true,
		NumSuggestions: len(req.Suggestions),
	})
}

// saveScope soft-fails on a malformed payload so an incomplete scope
// document never aborts the conversation.
func (d *Dispatcher) saveScope(args string) string {
	var payload models.ScopePayload
	if err := json.Unmarshal([]byte(args), &payload); err != nil || payload.Scope == nil {
		d.log.Warn("scope document not complete yet", "error", err)
		return marshalOutput(models.ScopeResponse{
			Status:  "partial",
			Message: "Progress saved, but complete scope document not available yet",
		})
	}

	if d.bus != nil {
		d.bus.Publish(events.TopicScopeSaved, ScopeSavedEvent{Scope: payload.Scope})
	}
	return marshalOutput(models.ScopeResponse{
		Status:  "success",
		Message: "Project scope saved successfully",
	})
}

func (d *Dispatcher) publishSuggestions() {
	if d.bus == nil || d.pending == nil {
		return
	}
	d.bus.Publish(events.TopicSuggestionsReady, SuggestionsReadyEvent{
		Category:    d.pending.Category,
		Suggestions: d.pending.Suggestions,
		AllowCustom: d.pending.AllowCustom,
	})
}

func marshalOutput(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return `{"status":"error"}`
	}
	return string(data)
}
