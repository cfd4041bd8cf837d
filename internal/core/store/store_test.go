package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/romgenie/scope-agent/internal/core/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"alnum passthrough", "AcmeTracker2", "AcmeTracker2"},
		{"spaces", "Acme Tracker", "Acme_Tracker"},
		{"punctuation", "a/b:c's", "a_b_c_s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeName(tt.in); got != tt.want {
				t.Errorf("SafeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)

	p := models.NewProject("track widgets")
	p.ThreadID = "thread_1"
	idx := p.Ledger.Append(models.NewInteractionRecord("Name?", models.CategoryProjectName, nil))
	p.Ledger.Resolve(idx, models.CustomAnswer("Widgeteer"))
	p.ApplyCategoryUpdate("project_name", models.CategoryUpdate{Value: "Widgeteer", IsCustom: true})

	path, err := s.Save(p)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if filepath.Base(path) != "Widgeteer.json" {
		t.Errorf("saved file = %s, want Widgeteer.json", filepath.Base(path))
	}

	got, err := s.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Name != "Widgeteer" || got.ThreadID != "thread_1" || got.Stage != models.StageScoping {
		t.Errorf("loaded project = %+v, want identity preserved", got)
	}
	if got.Ledger.Len() != 1 || !got.Ledger.Interactions[0].Resolved() {
		t.Errorf("ledger not preserved: %+v", got.Ledger)
	}
	if got.Scope.CompletionPercentage() != p.Scope.CompletionPercentage() {
		t.Errorf("completion = %v, want %v", got.Scope.CompletionPercentage(), p.Scope.CompletionPercentage())
	}
}

func TestListSkipsCorruptFiles(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Save(models.NewProject("first")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir(), "broken.json"), []byte("{nope"), 0644); err != nil {
		t.Fatal(err)
	}

	infos, err := s.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(infos) != 1 {
		t.Errorf("List() returned %d entries, want 1 (corrupt file skipped)", len(infos))
	}
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)
	p := models.NewProject("temp")
	if _, err := s.Save(p); err != nil {
		t.Fatal(err)
	}

	if err := s.Remove(p.Name); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(s.Path(p.Name)); !os.IsNotExist(err) {
		t.Error("project file still exists after Remove()")
	}
	// Removing again is not an error.
	if err := s.Remove(p.Name); err != nil {
		t.Errorf("Remove() on missing file error = %v", err)
	}
}
