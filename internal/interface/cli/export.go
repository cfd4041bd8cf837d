package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/romgenie/scope-agent/internal/core/models"
	"github.com/romgenie/scope-agent/internal/core/store"
)

var (
	exportOutput string
	exportFormat string
	exportScope  bool
	exportCopy   bool
)

var exportCmd = &cobra.Command{
	Use:   "export <project-name>",
	Short: "Export a project's history or scope document",
	Long: `Export a project's interaction history, or with --scope the scope
document itself. Formats: json (machine-readable) or summary (human-readable
transcript; history only).

By default writes to <project>-history.json (or <project>-scope.json) in the
current directory. Use --output for a custom path, --copy to put the result
on the clipboard instead.

Examples:
  scope-agent export "Customer Portal"
  scope-agent export "Customer Portal" --format summary -o notes.txt
  scope-agent export "Customer Portal" --scope --copy`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path")
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Output format: json or summary")
	exportCmd.Flags().BoolVar(&exportScope, "scope", false, "Export the scope document instead of the history")
	exportCmd.Flags().BoolVar(&exportCopy, "copy", false, "Copy to the clipboard instead of writing a file")
}

func runExport(cmd *cobra.Command, args []string) error {
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

	content, defaultName, err := renderExport(p)
	if err != nil {
		return err
	}

	if exportCopy {
		if err := clipboard.WriteAll(content); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		fmt.Println("Copied to clipboard.")
		return nil
	}

	outputPath := exportOutput
	if outputPath == "" {
		outputPath = defaultName
	}
	if !filepath.IsAbs(outputPath) {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		outputPath = filepath.Join(cwd, outputPath)
	}
	if err := os.WriteFile(outputPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Printf("Exported to %s\n", outputPath)
	return nil
}

func renderExport(p *models.Project) (content, defaultName string, err error) {
	stem := store.SafeName(p.Name)

	if exportScope {
		data, err := json.MarshalIndent(p.Scope, "", "  ")
		if err != nil {
			return "", "", fmt.Errorf("encode scope document: %w", err)
		}
		return string(data), stem + "-scope.json", nil
	}

	switch strings.ToLower(exportFormat) {
	case "json":
		data, err := json.MarshalIndent(p.Ledger, "", "  ")
		if err != nil {
			return "", "", fmt.Errorf("encode interaction history: %w", err)
		}
		return string(data), stem + "-history.json", nil
	case "summary":
		return p.Ledger.Summary(), stem + "-history.txt", nil
	}
	return "", "", fmt.Errorf("unknown format %q (want json or summary)", exportFormat)
}
