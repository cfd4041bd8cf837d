package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/romgenie/scope-agent/internal/core/config"
)

var (
	flagProjectsDir string
	flagVerbose     bool
	versionInfo     string
)

// SetVersion sets the version information from build-time ldflags
func SetVersion(version, commit, date string) {
	versionInfo = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	rootCmd.Version = versionInfo
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "scope-agent",
	Short: "Interactive project scoping assistant",
	Long: `scope-agent - scope a project through a guided conversation

Drives a turn-based dialogue with an OpenAI assistant, records every
question and answer in a durable ledger, and builds a structured scope
document (objectives, audience, deliverables, timeline, resources, risks,
success metrics) saved as one JSON file per project.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default to the interactive conversation if no subcommand specified
		return startCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagProjectsDir, "projects-dir", "", "Directory holding project files (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

// loadConfig resolves config and applies global flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagProjectsDir != "" {
		cfg.ProjectsDir = flagProjectsDir
	}
	return cfg, nil
}

func setupLogging() {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
