package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
)

// TimeLayout is the timestamp format used across persisted project state.
const TimeLayout = "2006-01-02 15:04:05"

// NoQuestionRecorded is substituted when an assistant message carried no
// usable question text.
const NoQuestionRecorded = "no specific question recorded"

// Now returns the current time in the persisted timestamp format.
func Now() string {
	return time.Now().Format(TimeLayout)
}

// NormalizeQuestion trims question text and substitutes the sentinel for
// empty or punctuation-only input.
func NormalizeQuestion(q string) string {
	stripped := strings.TrimFunc(q, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	if stripped == "" {
		return NoQuestionRecorded
	}
	return strings.TrimSpace(q)
}

// InteractionRecord is one question/answer exchange between the assistant
// and the user. A record may exist unresolved between being asked and
// answered; once resolved, exactly one of Selection/CustomInput is set.
type InteractionRecord struct {
	Timestamp   string           `json:"timestamp"`
	Question    string           `json:"question"`
	Category    Category         `json:"category,omitempty"`
	Suggestions []SuggestionItem `json:"suggestions"`
	Selection   *string          `json:"selection"`
	SelectionID *string          `json:"selection_id"`
	CustomInput *string          `json:"custom_input"`
	IsCustom    bool             `json:"is_custom"`
}

// NewInteractionRecord creates an unresolved record for a question.
func NewInteractionRecord(question string, category Category, suggestions []SuggestionItem) InteractionRecord {
	return InteractionRecord{
		Timestamp:   Now(),
		Question:    NormalizeQuestion(question),
		Category:    category,
		Suggestions: append([]SuggestionItem(nil), suggestions...),
	}
}

// Resolved reports whether the user has answered this question.
func (r *InteractionRecord) Resolved() bool {
	return r.Selection != nil || r.CustomInput != nil
}

// Answer returns the resolved answer text, or "" when unresolved.
func (r *InteractionRecord) Answer() string {
	switch {
	case r.CustomInput != nil:
		return *r.CustomInput
	case r.Selection != nil:
		return *r.Selection
	}
	return ""
}

// Resolution carries the user's answer to a recorded question. Selection and
// CustomInput are mutually exclusive; IsCustom tags which one applies.
type Resolution struct {
	Selection   string
	SelectionID string
	CustomInput string
	IsCustom    bool
}

// SelectSuggestion builds a resolution for a picked suggestion.
func SelectSuggestion(s SuggestionItem) Resolution {
	return Resolution{Selection: s.Text, SelectionID: s.ID}
}

// CustomAnswer builds a resolution for free-text input.
func CustomAnswer(text string) Resolution {
	return Resolution{CustomInput: text, IsCustom: true}
}

// InteractionLedger is the append-only sequence of interaction records for
// one project, indexed by creation order.
type InteractionLedger struct {
	Interactions []InteractionRecord `json:"interactions"`
}

// Append adds a record and returns its index.
func (l *InteractionLedger) Append(rec InteractionRecord) int {
	l.Interactions = append(l.Interactions, rec)
	return len(l.Interactions) - 1
}

// Len returns the number of recorded interactions.
func (l *InteractionLedger) Len() int {
	return len(l.Interactions)
}

// LatestIndex returns the most recently appended index, or -1 when empty.
func (l *InteractionLedger) LatestIndex() int {
	return len(l.Interactions) - 1
}

// Resolve records the user's answer on the record at index. It returns false
// and leaves the ledger unchanged when index is out of range. Exactly one of
// selection/custom input ends up set on the record.
func (l *InteractionLedger) Resolve(index int, res Resolution) bool {
	if index < 0 || index >= len(l.Interactions) {
		return false
	}
	rec := &l.Interactions[index]
	rec.Selection = nil
	rec.SelectionID = nil
	rec.CustomInput = nil
	if res.IsCustom {
		rec.CustomInput = &res.CustomInput
	} else {
		rec.Selection = &res.Selection
		id := res.SelectionID
		rec.SelectionID = &id
	}
	rec.IsCustom = res.IsCustom
	return true
}

// ByCategory returns all records tagged with the category, most recent
// first by timestamp.
func (l *InteractionLedger) ByCategory(category Category) []InteractionRecord {
	var out []InteractionRecord
	for _, rec := range l.Interactions {
		if rec.Category == category {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}

// Summary renders a human-readable transcript of the ledger.
func (l *InteractionLedger) Summary() string {
	var b strings.Builder
	b.WriteString("Interaction History:\n\n")
	for i, rec := range l.Interactions {
		fmt.Fprintf(&b, "Interaction %d:\n", i+1)
		fmt.Fprintf(&b, "  Question: %s\n", rec.Question)
		switch {
		case !rec.Resolved():
			b.WriteString("  (unanswered)\n")
		case rec.IsCustom:
			fmt.Fprintf(&b, "  Custom Response: %s\n", rec.Answer())
		default:
			fmt.Fprintf(&b, "  Selected: %s\n", rec.Answer())
		}
		b.WriteString("\n")
	}
	return b.String()
}
