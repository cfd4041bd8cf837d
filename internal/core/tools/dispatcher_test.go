package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/romgenie/scope-agent/internal/core/assistant"
	"github.com/romgenie/scope-agent/internal/core/events"
	"github.com/romgenie/scope-agent/internal/core/models"
)

func decodeSuggestionResponse(t *testing.T, out string) models.SuggestionResponse {
	t.Helper()
	var resp models.SuggestionResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("output is not a suggestion response: %v (%s)", err, out)
	}
	return resp
}

func decodeScopeResponse(t *testing.T, out string) models.ScopeResponse {
	t.Helper()
	var resp models.ScopeResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("output is not a scope response: %v (%s)", err, out)
	}
	return resp
}

func TestDispatchGenerateSuggestions(t *testing.T) {
	bus := events.NewBus(nil)
	var published []SuggestionsReadyEvent
	bus.Subscribe(events.TopicSuggestionsReady, func(p any) {
		published = append(published, p.(SuggestionsReadyEvent))
	})

	d := NewDispatcher(bus, nil)
	args := `{"category":"objective","question":"What is the goal?","suggestions":[{"id":"o1","text":"Ship fast"},{"text":"Ship safe"}]}`
	outputs := d.Dispatch(context.Background(), []assistant.ToolCall{
		{ID: "call_1", Name: "generate_suggestions", Arguments: args},
	})

	if len(outputs) != 1 || outputs[0].CallID != "call_1" {
		t.Fatalf("outputs = %+v, want one output for call_1", outputs)
	}
	resp := decodeSuggestionResponse(t, outputs[0].Output)
	if resp.Status != "success" || !resp.Rendered || resp.NumSuggestions != 2 {
		t.Errorf("response = %+v, want success/rendered/2", resp)
	}

	pending := d.TakePending()
	if pending == nil {
		t.Fatal("no pending suggestions after dispatch")
	}
	if pending.Category != models.CategoryObjective || len(pending.Suggestions) != 2 {
		t.Errorf("pending = %+v, want objective with 2 suggestions", pending)
	}
	if pending.Suggestions[1].ID == "" {
		t.Error("suggestion without id was not assigned one")
	}
	if !pending.AllowCustom {
		t.Error("allow_custom should default to true when omitted")
	}
	if d.TakePending() != nil {
		t.Error("TakePending did not clear the slot")
	}
	if len(published) != 1 || published[0].Category != models.CategoryObjective {
		t.Errorf("published events = %+v, want one suggestions.ready for objective", published)
	}
}

func TestDispatchProjectNames(t *testing.T) {
	d := NewDispatcher(events.NewBus(nil), nil)
	args := `{"project_description":"a widget tracker","suggestions":[{"id":"n1","text":"\"Acme Tracker\""}]}`
	outputs := d.Dispatch(context.Background(), []assistant.ToolCall{
		{ID: "call_9", Name: "generate_project_names", Arguments: args},
	})

	resp := decodeSuggestionResponse(t, outputs[0].Output)
	if resp.Status != "success" || resp.NumSuggestions != 1 {
		t.Errorf("response = %+v, want success with 1 suggestion", resp)
	}
	pending := d.TakePending()
	if pending == nil || pending.Category != models.CategoryProjectName {
		t.Fatalf("pending = %+v, want project_name category", pending)
	}
}

func TestDispatchDegradesOffendingCallOnly(t *testing.T) {
	d := NewDispatcher(events.NewBus(nil), nil)
	outputs := d.Dispatch(context.Background(), []assistant.ToolCall{
		{ID: "bad", Name: "generate_suggestions", Arguments: `{not json`},
		{ID: "good", Name: "generate_suggestions", Arguments: `{"category":"risk","question":"Risks?","suggestions":[{"text":"None"}]}`},
	})

	if len(outputs) != 2 {
		t.Fatalf("got %d outputs, want 2", len(outputs))
	}
	if outputs[0].CallID != "bad" || outputs[1].CallID != "good" {
		t.Errorf("output order/tags wrong: %+v", outputs)
	}
	if resp := decodeSuggestionResponse(t, outputs[0].Output); resp.Status != "error" {
		t.Errorf("bad call status = %q, want error", resp.Status)
	}
	if resp := decodeSuggestionResponse(t, outputs[1].Output); resp.Status != "success" {
		t.Errorf("good call status = %q, want success", resp.Status)
	}
}

func TestDispatchRejectsInvalidCategory(t *testing.T) {
	d := NewDispatcher(events.NewBus(nil), nil)
	outputs := d.Dispatch(context.Background(), []assistant.ToolCall{
		{ID: "c", Name: "generate_suggestions", Arguments: `{"category":"velocity","question":"?","suggestions":[]}`},
	})
	if resp := decodeSuggestionResponse(t, outputs[0].Output); resp.Status != "error" {
		t.Errorf("status = %q, want error for out-of-enum category", resp.Status)
	}
}

func TestSaveScope(t *testing.T) {
	tests := []struct {
		name       string
		args       string
		wantStatus string
		wantEvent  bool
	}{
		{
			name:       "valid payload",
			args:       `{"scope":{"objective":"ship it","timeline":"Q4"}}`,
			wantStatus: "success",
			wantEvent:  true,
		},
		{
			name:       "missing scope field",
			args:       `{"notes":"incomplete"}`,
			wantStatus: "partial",
			wantEvent:  false,
		},
		{
			name:       "malformed json",
			args:       `{`,
			wantStatus: "partial",
			wantEvent:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := events.NewBus(nil)
			var saved []ScopeSavedEvent
			bus.Subscribe(events.TopicScopeSaved, func(p any) {
				saved = append(saved, p.(ScopeSavedEvent))
			})

			d := NewDispatcher(bus, nil)
			outputs := d.Dispatch(context.Background(), []assistant.ToolCall{
				{ID: "c", Name: "save_scope", Arguments: tt.args},
			})

			resp := decodeScopeResponse(t, outputs[0].Output)
			if resp.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", resp.Status, tt.wantStatus)
			}
			if (len(saved) > 0) != tt.wantEvent {
				t.Errorf("scope.saved published = %v, want %v", len(saved) > 0, tt.wantEvent)
			}
		})
	}
}

func TestDispatchUnknownToolDegrades(t *testing.T) {
	d := NewDispatcher(events.NewBus(nil), nil)
	outputs := d.Dispatch(context.Background(), []assistant.ToolCall{
		{ID: "c", Name: "not_a_tool", Arguments: `{}`},
	})
	if resp := decodeSuggestionResponse(t, outputs[0].Output); resp.Status != "error" {
		t.Errorf("status = %q, want error", resp.Status)
	}
}

func TestDefinitionsCoverClosedToolSet(t *testing.T) {
	defs := Definitions()
	if len(defs) != 3 {
		t.Fatalf("got %d definitions, want 3", len(defs))
	}
	names := map[string]bool{}
	for _, def := range defs {
		names[def.Name] = true
		if def.Parameters["type"] != "object" {
			t.Errorf("%s schema root type = %v, want object", def.Name, def.Parameters["type"])
		}
	}
	for _, want := range []string{"generate_project_names", "generate_suggestions", "save_scope"} {
		if !names[want] {
			t.Errorf("missing definition for %s", want)
		}
	}
}
