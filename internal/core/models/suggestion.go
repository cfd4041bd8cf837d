package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Category tags a scoping question or scope slot
type Category string

const (
	CategoryProjectName   Category = "project_name"
	CategoryObjective     Category = "objective"
	CategoryAudience      Category = "audience"
	CategoryDeliverable   Category = "deliverable"
	CategoryTimeline      Category = "timeline"
	CategoryResource      Category = "resource"
	CategoryRisk          Category = "risk"
	CategorySuccessMetric Category = "success_metric"
	CategoryBestPractice  Category = "best_practice"
)

// RequiredCategories are the slots that count toward scope completion.
// Anything outside this list lands in the additional-categories map.
var RequiredCategories = []Category{
	CategoryProjectName,
	CategoryObjective,
	CategoryAudience,
	CategoryDeliverable,
	CategoryTimeline,
	CategoryResource,
	CategoryRisk,
	CategorySuccessMetric,
}

// IsRequired reports whether c is one of the eight required scope slots.
func (c Category) IsRequired() bool {
	for _, rc := range RequiredCategories {
		if c == rc {
			return true
		}
	}
	return false
}

// ValidCategory reports whether c is accepted on a suggestion request.
func ValidCategory(c Category) bool {
	return c.IsRequired() || c == CategoryBestPractice
}

// SuggestionItem is one pre-generated candidate answer offered to the user
type SuggestionItem struct {
	ID           string `json:"id"`
	Text         string `json:"text"`
	Description  string `json:"description,omitempty"`
	BestPractice string `json:"best_practice,omitempty"`
}

// EnsureID assigns a fresh UUID when the remote side omitted one.
func (s *SuggestionItem) EnsureID() {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
}

// SuggestionRequest is the payload of a generate_suggestions tool call
type SuggestionRequest struct {
	Category         Category         `json:"category"`
	Question         string           `json:"question"`
	Suggestions      []SuggestionItem `json:"suggestions"`
	AllowCustomInput *bool            `json:"allow_custom_input,omitempty"`
}

// AllowCustom defaults to true when the field is absent from the payload.
func (r *SuggestionRequest) AllowCustom() bool {
	return r.AllowCustomInput == nil || *r.AllowCustomInput
}

// Validate checks the request against the tool schema.
func (r *SuggestionRequest) Validate() error {
	if !ValidCategory(r.Category) {
		return fmt.Errorf("invalid suggestion category: %q", r.Category)
	}
	if r.Question == "" {
		return fmt.Errorf("suggestion request missing question")
	}
	return nil
}

// ProjectNameRequest is the payload of a generate_project_names tool call
type ProjectNameRequest struct {
	ProjectDescription string           `json:"project_description"`
	Suggestions        []SuggestionItem `json:"suggestions"`
	AllowCustomInput   *bool            `json:"allow_custom_input,omitempty"`
}

// AllowCustom defaults to true when the field is absent from the payload.
func (r *ProjectNameRequest) AllowCustom() bool {
	return r.AllowCustomInput == nil || *r.AllowCustomInput
}

// SuggestionResponse is the typed output for the suggestion tools
type SuggestionResponse struct {
	Status         string `json:"status"`
	Rendered       bool   `json:"rendered"`
	NumSuggestions int    `json:"num_suggestions"`
}

// ScopePayload is the payload of a save_scope tool call
type ScopePayload struct {
	Scope map[string]any `json:"scope"`
}

// ScopeResponse is the typed output for the save_scope tool
type ScopeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
