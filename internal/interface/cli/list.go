package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/romgenie/scope-agent/internal/core/models"
	"github.com/romgenie/scope-agent/internal/core/store"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved projects",
	Long: `List saved projects in reverse chronological order.

Shows each project's stage, scope completion, and when it was last touched.

Examples:
  scope-agent list
  scope-agent list --limit 5`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "Maximum number of projects to display")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := store.New(cfg.ProjectsDir)
	if err != nil {
		return err
	}

	infos, err := st.List()
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}
	if len(infos) > listLimit {
		infos = infos[:listLimit]
	}

	if len(infos) == 0 {
		fmt.Println("No projects yet. Run 'scope-agent start' to begin one.")
		return nil
	}

	fmt.Printf("Showing %d project(s)\n\n", len(infos))
	for i, info := range infos {
		fmt.Printf("[%d] %s\n", i+1, info.Name)
		if p, err := st.Load(info.Path); err == nil {
			fmt.Printf("    Stage: %s\n", p.Stage)
			fmt.Printf("    Scope: %.1f%% complete\n", p.Scope.CompletionPercentage())
			fmt.Printf("    Interactions: %d\n", p.Ledger.Len())
		}
		fmt.Printf("    Updated: %s\n", relativeTime(info.LastModified))
		fmt.Println()
	}
	return nil
}

// relativeTime renders a persisted timestamp as a human-friendly interval,
// falling back to the raw string when it doesn't parse.
func relativeTime(ts string) string {
	t, err := time.ParseInLocation(models.TimeLayout, ts, time.Local)
	if err != nil {
		return ts
	}
	return humanize.Time(t)
}
