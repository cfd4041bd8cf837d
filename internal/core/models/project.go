package models

import (
	"errors"
	"fmt"
	"time"
)

// Stage tracks lifecycle progression of a project. Progression is monotonic:
// a project never moves backwards through stages.
type Stage string

const (
	StageInitial  Stage = "initial"
	StageNaming   Stage = "naming"
	StageScoping  Stage = "scoping"
	StageComplete Stage = "complete"
)

var stageRank = map[Stage]int{
	StageInitial:  0,
	StageNaming:   1,
	StageScoping:  2,
	StageComplete: 3,
}

// Valid reports whether s is one of the known lifecycle stages.
func (s Stage) Valid() bool {
	_, ok := stageRank[s]
	return ok
}

// Project is the aggregate root: one scoping project with its remote session
// identifiers, scope document, and interaction ledger.
type Project struct {
	Name         string             `json:"name"`
	CreatedAt    string             `json:"created_at"`
	LastModified string             `json:"last_modified"`
	Status       string             `json:"status"`
	Stage        Stage              `json:"stage"`
	AssistantID  string             `json:"assistant_id,omitempty"`
	ThreadID     string             `json:"thread_id,omitempty"`
	Description  string             `json:"description,omitempty"`
	Scope        *ScopeDocument     `json:"scope"`
	Ledger       *InteractionLedger `json:"interaction_history"`
}

// NewProject creates a project in the initial stage with a generated name.
func NewProject(description string) *Project {
	now := Now()
	return &Project{
		Name:         fmt.Sprintf("Project_%s", time.Now().Format("20060102_150405")),
		CreatedAt:    now,
		LastModified: now,
		Status:       "new",
		Stage:        StageInitial,
		Description:  description,
		Scope:        NewScopeDocument(),
		Ledger:       &InteractionLedger{},
	}
}

// Validate checks invariants that must hold for a loaded project.
func (p *Project) Validate() error {
	if p.Name == "" {
		return errors.New("project name is required")
	}
	if !p.Stage.Valid() {
		return fmt.Errorf("unknown project stage: %q", p.Stage)
	}
	return nil
}

// Normalize backfills zero-value aggregates after deserialization so callers
// never see a nil scope or ledger.
func (p *Project) Normalize() {
	if p.Scope == nil {
		p.Scope = NewScopeDocument()
	}
	if p.Scope.Categories == nil {
		p.Scope.Categories = make(map[string]*CategoryData)
	}
	if p.Ledger == nil {
		p.Ledger = &InteractionLedger{}
	}
	if p.Stage == "" {
		p.Stage = StageInitial
	}
	if p.Status == "" {
		p.Status = "new"
	}
}

// Touch refreshes the last-modified timestamp.
func (p *Project) Touch() {
	p.LastModified = Now()
}

// AdvanceStage moves the lifecycle forward to target. Requests that would
// regress the stage are ignored.
func (p *Project) AdvanceStage(target Stage) {
	if stageRank[target] > stageRank[p.Stage] {
		p.Stage = target
	}
}

// Rename updates the project name, stripping surrounding quotes, and moves
// the lifecycle into the scoping stage.
func (p *Project) Rename(name string) {
	name = StripQuotes(name)
	if name == "" {
		return
	}
	p.Name = name
	p.AdvanceStage(StageScoping)
	p.Touch()
}

// ApplyCategoryUpdate routes an answer into the scope document and applies
// the project-level side effects: project_name updates rename the project,
// and reaching full completion moves the project to the complete stage.
func (p *Project) ApplyCategoryUpdate(category string, upd CategoryUpdate) {
	p.Scope.UpdateCategory(category, upd)

	if Category(category) == CategoryProjectName {
		p.Rename(upd.Value)
	}
	if p.Scope.IsComplete() {
		p.AdvanceStage(StageComplete)
		p.Status = "complete"
	}
	p.Touch()
}

// Continuing reports whether the project already has a named scoping
// conversation to resume rather than a fresh naming flow.
func (p *Project) Continuing() bool {
	return (p.Stage == StageScoping || p.Stage == StageComplete) && p.Name != ""
}
