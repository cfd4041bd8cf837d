// Package engine drives the scoping conversation: it sends user messages,
// runs the assistant to completion, routes tool calls through the dispatcher,
// records every exchange in the project's ledger, and persists the project
// after each mutating step.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/romgenie/scope-agent/internal/core/archive"
	"github.com/romgenie/scope-agent/internal/core/assistant"
	"github.com/romgenie/scope-agent/internal/core/config"
	"github.com/romgenie/scope-agent/internal/core/events"
	"github.com/romgenie/scope-agent/internal/core/models"
	"github.com/romgenie/scope-agent/internal/core/store"
	"github.com/romgenie/scope-agent/internal/core/tools"
)

// turnObserver collects the assistant's reply for the current turn and
// forwards run progress to the event bus for the presentation layer.
type turnObserver struct {
	bus   *events.Bus
	reply string
}

func (o *turnObserver) reset() { o.reply = "" }

func (o *turnObserver) OnStatus(s assistant.RunStatus) {
	if o.bus != nil {
		o.bus.Publish(events.TopicRunStatus, s)
	}
}

func (o *turnObserver) OnAssistantMessage(text string) {
	o.reply = text
	if o.bus != nil {
		o.bus.Publish(events.TopicAssistantMessage, text)
	}
}

// Engine coordinates one project's conversation. It is single-threaded by
// construction: one turn is processed end-to-end before the next input is
// accepted, so no locking guards the project state.
type Engine struct {
	client   assistant.Client
	runner   *assistant.Runner
	disp     *tools.Dispatcher
	store    *store.Store
	archive  *archive.Archive // optional; nil disables history archiving
	bus      *events.Bus
	log      *slog.Logger
	recorder *Recorder
	obs      *turnObserver

	model          string
	maxSuggestions int
	autoSave       bool

	project      *models.Project
	pending      *tools.Pending
	pendingIndex int
}

// New builds an engine over the given collaborators. arc may be nil.
func New(cfg *config.Config, client assistant.Client, st *store.Store, arc *archive.Archive, bus *events.Bus, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	obs := &turnObserver{bus: bus}
	e := &Engine{
		client:         client,
		runner:         assistant.NewRunner(client, cfg.PollInterval, obs),
		disp:           tools.NewDispatcher(bus, log),
		store:          st,
		archive:        arc,
		bus:            bus,
		log:            log,
		recorder:       NewRecorder(log),
		obs:            obs,
		model:          cfg.Model,
		maxSuggestions: cfg.MaxSuggestions,
		autoSave:       cfg.AutoSave,
		pendingIndex:   -1,
	}
	if bus != nil {
		bus.Subscribe(events.TopicScopeSaved, func(payload any) {
			if ev, ok := payload.(tools.ScopeSavedEvent); ok {
				e.mergeScope(ev.Scope)
			}
		})
	}
	return e
}

// SetProject attaches the project the engine works on.
func (e *Engine) SetProject(p *models.Project) {
	p.Normalize()
	e.project = p
	e.pending = nil
	e.pendingIndex = -1
}

// Project returns the attached project, or nil.
func (e *Engine) Project() *models.Project { return e.project }

// Pending returns the suggestions currently offered to the user, or nil.
func (e *Engine) Pending() *tools.Pending { return e.pending }

// EnsureSession verifies the project's remote assistant and thread, creating
// replacements for whichever no longer exists, and persists the identifiers.
func (e *Engine) EnsureSession(ctx context.Context) error {
	p := e.project
	if p == nil {
		return errors.New("no project attached")
	}

	if p.AssistantID == "" || !e.client.VerifyAssistant(ctx, p.AssistantID) {
		instructions, err := assistant.Instructions(e.maxSuggestions)
		if err != nil {
			return fmt.Errorf("render assistant instructions: %w", err)
		}
		id, err := e.client.CreateAssistant(ctx, assistant.AssistantConfig{
			Name:         assistant.AssistantName,
			Instructions: instructions,
			Model:        e.model,
			Tools:        tools.Definitions(),
		})
		if err != nil {
			return fmt.Errorf("create assistant: %w", err)
		}
		p.AssistantID = id
		e.log.Info("created assistant", "id", id)
	}

	if p.ThreadID == "" || !e.client.VerifyThread(ctx, p.ThreadID) {
		id, err := e.client.CreateThread(ctx)
		if err != nil {
			return fmt.Errorf("create thread: %w", err)
		}
		p.ThreadID = id
		e.log.Info("created thread", "id", id)
	}

	e.save()
	return nil
}

// StartConversation opens the dialogue: a continuation prompt for a project
// already in scoping, otherwise the initial description message. Returns the
// assistant's first reply.
func (e *Engine) StartConversation(ctx context.Context) (string, error) {
	if err := e.EnsureSession(ctx); err != nil {
		return "", err
	}
	var (
		msg string
		err error
	)
	if e.project.Continuing() {
		msg, err = assistant.ContinuationMessage(e.project.Name)
	} else {
		msg, err = assistant.NewProjectMessage(e.project.Description)
	}
	if err != nil {
		return "", fmt.Errorf("render opening message: %w", err)
	}
	return e.Send(ctx, msg)
}

// Respond processes the user's answer to the current question. A number
// selecting one of the offered suggestions resolves that suggestion;
// anything else is a custom answer. The answer is recorded in the ledger,
// applied to the scope document, and forwarded to the assistant; the next
// reply is returned.
func (e *Engine) Respond(ctx context.Context, input string) (string, error) {
	input = strings.TrimSpace(input)
	pending := e.pending
	if pending == nil {
		return e.Send(ctx, input)
	}

	res, upd, message := resolveAnswer(pending, input)
	if idx := e.pendingIndex; idx >= 0 && e.recorder.RecordResponse(e.project, idx, res) {
		e.archiveRecord(idx)
	}
	e.applyUpdate(string(pending.Category), upd)
	e.save()

	return e.Send(ctx, message)
}

// Send posts text as a user message and drives the resulting run to
// completion. Recovery per the error policy: a lost assistant or thread is
// repaired and the turn retried once; any other failure gets one bounded
// retry after cancelling active runs. A turn that still fails is abandoned
// with an error; the session survives.
func (e *Engine) Send(ctx context.Context, text string) (string, error) {
	if e.project == nil {
		return "", errors.New("no project attached")
	}

	// A new message supersedes whatever suggestions were on offer.
	e.pending = nil
	e.cancelActiveRuns(ctx)

	err := e.runTurn(ctx, text)
	switch {
	case errors.Is(err, assistant.ErrNotFound):
		if rerr := e.repair(ctx); rerr != nil {
			return "", rerr
		}
		err = e.runTurn(ctx, text)
	case err != nil:
		e.log.Warn("turn failed, retrying once", "error", err)
		e.cancelActiveRuns(ctx)
		err = e.runTurn(ctx, text)
	}
	if err != nil {
		return "", fmt.Errorf("conversation turn abandoned: %w", err)
	}

	reply := e.obs.reply
	e.recordQuestion(reply)
	e.save()
	return reply, nil
}

// SaveProgress persists the project immediately, regardless of the auto-save
// setting, and returns the file path.
func (e *Engine) SaveProgress() (string, error) {
	return e.store.Save(e.project)
}

// Shutdown cancels any in-flight runs and flushes the project to disk. The
// remote assistant is left in place for reuse in future sessions.
func (e *Engine) Shutdown(ctx context.Context) error {
	if e.project == nil {
		return nil
	}
	e.cancelActiveRuns(ctx)
	if _, err := e.store.Save(e.project); err != nil {
		return fmt.Errorf("final save: %w", err)
	}
	e.log.Info("project saved, assistant will be reused in future sessions", "project", e.project.Name)
	return nil
}

func (e *Engine) runTurn(ctx context.Context, text string) error {
	e.obs.reset()
	if err := e.client.SendMessage(ctx, e.project.ThreadID, text); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return e.runner.Drive(ctx, e.project.ThreadID, e.project.AssistantID, e.disp)
}

// recordQuestion appends the turn's question to the ledger. When the turn
// produced suggestions, the tool call's question and category take precedence
// over text extracted from the reply.
func (e *Engine) recordQuestion(reply string) {
	pending := e.disp.TakePending()
	question := ExtractQuestion(reply)
	var (
		category    models.Category
		suggestions []models.SuggestionItem
	)
	if pending != nil {
		if pending.Question != "" {
			question = pending.Question
		}
		category = pending.Category
		suggestions = pending.Suggestions
	}
	e.pendingIndex = e.recorder.RecordQuestion(e.project, question, category, suggestions)
	e.pending = pending
}

// resolveAnswer turns raw input into a ledger resolution, the matching scope
// update, and the message text to forward to the assistant.
func resolveAnswer(p *tools.Pending, input string) (models.Resolution, models.CategoryUpdate, string) {
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(p.Suggestions) {
		s := p.Suggestions[n-1]
		upd := models.CategoryUpdate{Value: s.Text, Description: s.Description, SuggestionID: s.ID}
		return models.SelectSuggestion(s), upd, s.Text
	}
	return models.CustomAnswer(input), models.CategoryUpdate{Value: input, IsCustom: true}, input
}

// applyUpdate routes the answer into the scope document and handles the
// rename side effects of a project_name update.
func (e *Engine) applyUpdate(category string, upd models.CategoryUpdate) {
	if category == "" {
		e.project.Touch()
		return
	}
	if models.Category(category) == models.CategoryTimeline && upd.Description == "" {
		if date, ok := AnnotateTimeline(upd.Value, time.Now()); ok {
			upd.Description = "Target date: " + date
		}
	}

	oldName := e.project.Name
	e.project.ApplyCategoryUpdate(category, upd)

	if e.project.Name != oldName {
		if err := e.store.Remove(oldName); err != nil {
			e.log.Warn("remove renamed project file", "name", oldName, "error", err)
		}
		if e.archive != nil {
			if err := e.archive.Rename(oldName, e.project.Name); err != nil {
				e.log.Warn("rename archived interactions", "error", err)
			}
		}
		if e.bus != nil {
			e.bus.Publish(events.TopicProjectRenamed, e.project.Name)
		}
	}
}

// mergeScope folds a validated save_scope payload into the project: each
// category lands through the normal update path (so renames and completion
// recompute apply), the project moves to the complete stage, and the result
// is persisted. Runs synchronously during the dispatch cycle.
func (e *Engine) mergeScope(scope map[string]any) {
	if e.project == nil {
		return
	}
	for category, raw := range scope {
		value := scopeValueText(raw)
		if strings.TrimSpace(value) == "" {
			continue
		}
		e.applyUpdate(category, models.CategoryUpdate{Value: value})
	}
	e.project.AdvanceStage(models.StageComplete)
	e.project.Status = "complete"
	e.save()
}

// scopeValueText flattens one scope payload entry to its display value. The
// assistant sends plain strings, but an entry may arrive as an object with a
// "value" field or a bare scalar.
func scopeValueText(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any:
		if s, ok := v["value"].(string); ok {
			return s
		}
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (e *Engine) archiveRecord(index int) {
	if e.archive == nil {
		return
	}
	rec := e.project.Ledger.Interactions[index]
	if err := e.archive.Record(e.project.Name, rec); err != nil {
		e.log.Warn("archive interaction", "error", err)
	}
}

// cancelActiveRuns cancels runs racing on the project's thread before a new
// turn starts. Best-effort: failures are logged, never escalated.
func (e *Engine) cancelActiveRuns(ctx context.Context) {
	if e.project.ThreadID == "" {
		return
	}
	runs, err := e.client.ListActiveRuns(ctx, e.project.ThreadID)
	if err != nil {
		e.log.Warn("list active runs", "error", err)
		return
	}
	for _, h := range runs {
		if !e.client.CancelRun(ctx, h) {
			e.log.Warn("cancel run", "run", h.ID)
		}
	}
}

// repair re-provisions whichever remote identifiers no longer resolve and
// re-homes the project onto the replacements.
func (e *Engine) repair(ctx context.Context) error {
	e.log.Warn("remote session lost, provisioning replacements")
	p := e.project
	if p.AssistantID != "" && !e.client.VerifyAssistant(ctx, p.AssistantID) {
		p.AssistantID = ""
	}
	if p.ThreadID != "" && !e.client.VerifyThread(ctx, p.ThreadID) {
		p.ThreadID = ""
	}
	return e.EnsureSession(ctx)
}

func (e *Engine) save() {
	if !e.autoSave || e.project == nil {
		return
	}
	if _, err := e.store.Save(e.project); err != nil {
		e.log.Error("save project", "error", err)
	}
}
