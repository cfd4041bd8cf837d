package engine

import (
	"log/slog"

	"github.com/romgenie/scope-agent/internal/core/models"
)

// Recorder writes questions and answers into a project's interaction ledger.
// Asking and answering are separate calls targeting the same ledger index;
// a project without a ledger makes every operation a logged no-op failure.
type Recorder struct {
	log *slog.Logger
}

// NewRecorder returns a recorder logging failures to log.
func NewRecorder(log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{log: log}
}

// RecordQuestion appends an unresolved record for a question and returns its
// ledger index, or -1 when the project has no ledger.
func (r *Recorder) RecordQuestion(p *models.Project, question string, category models.Category, suggestions []models.SuggestionItem) int {
	if p == nil || p.Ledger == nil {
		r.log.Warn("record question: project has no ledger")
		return -1
	}
	return p.Ledger.Append(models.NewInteractionRecord(question, category, suggestions))
}

// RecordResponse resolves the record at index with the user's answer. It
// returns false when the project has no ledger or the index is out of range.
func (r *Recorder) RecordResponse(p *models.Project, index int, res models.Resolution) bool {
	if p == nil || p.Ledger == nil {
		r.log.Warn("record response: project has no ledger")
		return false
	}
	if !p.Ledger.Resolve(index, res) {
		r.log.Warn("record response: index out of range", "index", index, "len", p.Ledger.Len())
		return false
	}
	return true
}

// LatestIndex returns the index the next answer should resolve, or -1 when
// nothing has been asked.
func (r *Recorder) LatestIndex(p *models.Project) int {
	if p == nil || p.Ledger == nil {
		return -1
	}
	return p.Ledger.LatestIndex()
}
