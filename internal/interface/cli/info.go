package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/romgenie/scope-agent/internal/core/models"
	"github.com/romgenie/scope-agent/internal/core/store"
)

var infoCmd = &cobra.Command{
	Use:   "info <project-name>",
	Short: "Show a project's scope document",
	Long: `Show the scope document for one project: every category, its current
value, provenance (suggestion or custom answer), and the completion state.

Examples:
  scope-agent info "Customer Portal"`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := store.New(cfg.ProjectsDir)
	if err != nil {
		return err
	}
	p, err := st.LoadByName(args[0])
	if err != nil {
		return fmt.Errorf("project not found: %w", err)
	}

	fmt.Println(headerStyle.Render(p.Name))
	if p.Description != "" {
		fmt.Println(mutedStyle.Render(p.Description))
	}
	fmt.Printf("Stage: %s   Status: %s\n", p.Stage, p.Status)
	fmt.Printf("Created: %s   Updated: %s\n", p.CreatedAt, relativeTime(p.LastModified))
	fmt.Printf("Scope: %.1f%% complete (version %d)\n\n", p.Scope.CompletionPercentage(), p.Scope.Metadata.Version)

	for _, cat := range models.RequiredCategories {
		printCategory(string(cat), p.Scope.Categories[string(cat)])
	}

	var extra []string
	for name := range p.Scope.Categories {
		if !models.Category(name).IsRequired() {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	if len(extra) > 0 {
		fmt.Println(headerStyle.Render("Additional:"))
		for _, name := range extra {
			printCategory(name, p.Scope.Categories[name])
		}
	}
	return nil
}

func printCategory(name string, data *models.CategoryData) {
	if data == nil || !data.IsComplete() {
		fmt.Printf("  %-15s %s\n", name+":", mutedStyle.Render("(not set)"))
		return
	}
	fmt.Printf("  %-15s %s\n", name+":", *data.Value)
	if data.Description != nil && *data.Description != "" {
		fmt.Printf("  %-15s %s\n", "", mutedStyle.Render(*data.Description))
	}
	switch {
	case data.SelectedSuggestion != nil:
		fmt.Printf("  %-15s %s\n", "", mutedStyle.Render("from suggestion "+data.SelectedSuggestion.ID))
	case data.RawInput != nil:
		fmt.Printf("  %-15s %s\n", "", mutedStyle.Render("custom answer"))
	}
}
