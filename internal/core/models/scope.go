package models

import (
	"math"
	"strings"
)

// SelectedSuggestion records which suggestion produced a slot's value.
type SelectedSuggestion struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// CategoryData is one named slot in the scope document.
type CategoryData struct {
	Value              *string             `json:"value"`
	Description        *string             `json:"description"`
	Timestamp          *string             `json:"timestamp"`
	RawInput           *string             `json:"raw_input"`
	SelectedSuggestion *SelectedSuggestion `json:"selected_suggestion"`
}

// IsComplete reports whether the slot holds a non-blank value.
func (c *CategoryData) IsComplete() bool {
	return c != nil && c.Value != nil && strings.TrimSpace(*c.Value) != ""
}

// ScopeMetadata carries derived completion state for the scope document.
type ScopeMetadata struct {
	LastUpdated          string            `json:"last_updated"`
	CompletionPercentage float64           `json:"completion_percentage"`
	CompletionStatus     map[string]string `json:"completion_status"`
	Version              int               `json:"version"`
}

// ScopeDocument is the structured output artifact of a scoping session:
// eight required category slots plus an open map of additional categories.
type ScopeDocument struct {
	Metadata   ScopeMetadata            `json:"metadata"`
	Categories map[string]*CategoryData `json:"categories"`
}

// NewScopeDocument returns an empty document with zero completion. The
// recompute bump lands an untouched document on version 1.
func NewScopeDocument() *ScopeDocument {
	doc := &ScopeDocument{
		Metadata: ScopeMetadata{
			LastUpdated: Now(),
		},
		Categories: make(map[string]*CategoryData),
	}
	doc.recompute()
	return doc
}

// CategoryUpdate is one mutation of a scope slot.
type CategoryUpdate struct {
	Value        string
	Description  string
	SuggestionID string
	Timestamp    string
	IsCustom     bool
}

// UpdateCategory resolves the update into the matching required slot, or an
// additional-category entry created on first use, then recomputes the
// derived completion metrics. Every call bumps version and last_updated.
func (d *ScopeDocument) UpdateCategory(category string, upd CategoryUpdate) {
	if d.Categories == nil {
		d.Categories = make(map[string]*CategoryData)
	}
	slot, ok := d.Categories[category]
	if !ok {
		slot = &CategoryData{}
		d.Categories[category] = slot
	}

	value := upd.Value
	if Category(category) == CategoryProjectName {
		value = StripQuotes(value)
	}
	slot.Value = &value

	if upd.Description != "" {
		desc := upd.Description
		slot.Description = &desc
	}
	ts := upd.Timestamp
	if ts == "" {
		ts = Now()
	}
	slot.Timestamp = &ts

	if upd.IsCustom {
		raw := upd.Value
		slot.RawInput = &raw
		slot.SelectedSuggestion = nil
	} else if upd.SuggestionID != "" {
		slot.SelectedSuggestion = &SelectedSuggestion{ID: upd.SuggestionID, Text: value}
		slot.RawInput = nil
	}

	d.recompute()
}

// Value returns the slot value for a category, or "" when unset.
func (d *ScopeDocument) Value(category string) string {
	if slot, ok := d.Categories[category]; ok && slot.Value != nil {
		return *slot.Value
	}
	return ""
}

// CompletionPercentage returns the derived completion over the required slots.
func (d *ScopeDocument) CompletionPercentage() float64 {
	return d.Metadata.CompletionPercentage
}

// IsComplete reports whether every required slot holds a value.
func (d *ScopeDocument) IsComplete() bool {
	return d.Metadata.CompletionPercentage >= 100
}

// recompute refreshes the completion metrics over the eight required slots.
// Additional categories never affect the percentage.
func (d *ScopeDocument) recompute() {
	status := make(map[string]string, len(RequiredCategories))
	completed := 0
	for _, cat := range RequiredCategories {
		if d.Categories[string(cat)].IsComplete() {
			status[string(cat)] = "completed"
			completed++
		} else {
			status[string(cat)] = "incomplete"
		}
	}
	pct := float64(completed) / float64(len(RequiredCategories)) * 100
	d.Metadata.CompletionStatus = status
	d.Metadata.CompletionPercentage = math.Round(pct*100) / 100
	d.Metadata.LastUpdated = Now()
	d.Metadata.Version++
}

// StripQuotes removes surrounding single or double quotes from a value.
func StripQuotes(s string) string {
	return strings.Trim(s, `"'`)
}
