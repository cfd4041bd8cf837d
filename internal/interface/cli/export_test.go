package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/romgenie/scope-agent/internal/core/models"
)

func sampleProject() *models.Project {
	p := models.NewProject("a tracker")
	p.Rename("Tracker")
	idx := p.Ledger.Append(models.NewInteractionRecord("What is the objective?", models.CategoryObjective, nil))
	p.Ledger.Resolve(idx, models.CustomAnswer("ship v1"))
	p.ApplyCategoryUpdate("objective", models.CategoryUpdate{Value: "ship v1", IsCustom: true})
	return p
}

func TestRenderExportHistoryJSON(t *testing.T) {
	exportScope, exportFormat = false, "json"
	p := sampleProject()

	content, name, err := renderExport(p)
	if err != nil {
		t.Fatalf("renderExport: %v", err)
	}
	if name != "Tracker-history.json" {
		t.Errorf("default name = %q", name)
	}
	var ledger models.InteractionLedger
	if err := json.Unmarshal([]byte(content), &ledger); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if ledger.Len() != 1 || ledger.Interactions[0].Answer() != "ship v1" {
		t.Errorf("exported ledger = %+v", ledger)
	}
}

func TestRenderExportSummary(t *testing.T) {
	exportScope, exportFormat = false, "summary"
	content, name, err := renderExport(sampleProject())
	if err != nil {
		t.Fatalf("renderExport: %v", err)
	}
	if name != "Tracker-history.txt" {
		t.Errorf("default name = %q", name)
	}
	if !strings.Contains(content, "What is the objective?") || !strings.Contains(content, "ship v1") {
		t.Errorf("summary missing exchange:\n%s", content)
	}
}

func TestRenderExportScope(t *testing.T) {
	exportScope, exportFormat = true, "json"
	content, name, err := renderExport(sampleProject())
	exportScope = false
	if err != nil {
		t.Fatalf("renderExport: %v", err)
	}
	if name != "Tracker-scope.json" {
		t.Errorf("default name = %q", name)
	}
	var scope models.ScopeDocument
	if err := json.Unmarshal([]byte(content), &scope); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if v := scope.Value("objective"); v != "ship v1" {
		t.Errorf("objective = %q", v)
	}
}

func TestRenderExportUnknownFormat(t *testing.T) {
	exportScope, exportFormat = false, "yaml"
	if _, _, err := renderExport(sampleProject()); err == nil {
		t.Error("expected error for unknown format")
	}
	exportFormat = "json"
}

func TestRelativeTimeFallback(t *testing.T) {
	if got := relativeTime("not a timestamp"); got != "not a timestamp" {
		t.Errorf("relativeTime = %q", got)
	}
}
