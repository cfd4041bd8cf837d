package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/romgenie/scope-agent/internal/core/archive"
	"github.com/romgenie/scope-agent/internal/core/models"
	"github.com/romgenie/scope-agent/internal/core/store"
)

var (
	historySearch   string
	historyCategory string
	historyLimit    int
)

var historyCmd = &cobra.Command{
	Use:   "history [project-name]",
	Short: "Show recorded questions and answers",
	Long: `Show the interaction history of a project, or search the archive of
resolved interactions across all projects.

Examples:
  scope-agent history "Customer Portal"
  scope-agent history "Customer Portal" --category objective
  scope-agent history --search "timeline"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVar(&historySearch, "search", "", "Search answers across all projects")
	historyCmd.Flags().StringVar(&historyCategory, "category", "", "Only show interactions for one category")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "Maximum number of search results")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if historySearch != "" {
		arc, err := archive.Open(cfg.ArchivePath)
		if err != nil {
			return fmt.Errorf("open interaction archive: %w", err)
		}
		defer func() {
			_ = arc.Close()
		}()
		entries, err := arc.Search(historySearch, historyLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Printf("No archived answers match %q.\n", historySearch)
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s %s\n", headerStyle.Render(e.Project), mutedStyle.Render(e.CreatedAt))
			fmt.Printf("  Q: %s\n", e.Question)
			fmt.Printf("  A: %s\n\n", e.Answer)
		}
		return nil
	}

	if len(args) != 1 {
		return fmt.Errorf("provide a project name, or use --search")
	}
	st, err := store.New(cfg.ProjectsDir)
	if err != nil {
		return err
	}
	p, err := st.LoadByName(args[0])
	if err != nil {
		return fmt.Errorf("project not found: %w", err)
	}

	if historyCategory != "" {
		records := p.Ledger.ByCategory(models.Category(historyCategory))
		if len(records) == 0 {
			fmt.Printf("No interactions recorded for category %q.\n", historyCategory)
			return nil
		}
		for _, rec := range records {
			fmt.Printf("%s\n", mutedStyle.Render(rec.Timestamp))
			fmt.Printf("  Q: %s\n", rec.Question)
			if rec.Resolved() {
				fmt.Printf("  A: %s\n", rec.Answer())
			} else {
				fmt.Println("  (unanswered)")
			}
			fmt.Println()
		}
		return nil
	}

	fmt.Print(p.Ledger.Summary())
	return nil
}
