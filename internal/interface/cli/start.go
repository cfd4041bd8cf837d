package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/romgenie/scope-agent/internal/core/archive"
	"github.com/romgenie/scope-agent/internal/core/assistant"
	"github.com/romgenie/scope-agent/internal/core/engine"
	"github.com/romgenie/scope-agent/internal/core/events"
	"github.com/romgenie/scope-agent/internal/core/models"
	"github.com/romgenie/scope-agent/internal/core/store"
	"github.com/romgenie/scope-agent/internal/core/tools"
)

var startDescription string

var startCmd = &cobra.Command{
	Use:   "start [project-name]",
	Short: "Start or resume a scoping conversation",
	Long: `Start an interactive scoping conversation.

With no arguments, shows a menu of saved projects to resume, plus the
option to start a new one. With a project name, resumes that project
directly.

During the conversation:
  1-9              choose one of the offered suggestions
  anything else    answer in your own words
  history          show the interaction history so far
  save             save progress without sending a message
  exit, quit, bye  save and leave (the assistant is kept for next time)

Examples:
  scope-agent start
  scope-agent start "Customer Portal"
  scope-agent start --description "an internal tool for tracking assets"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
	startCmd.Flags().StringVarP(&startDescription, "description", "d", "", "Project description when starting a new project")
}

func runStart(cmd *cobra.Command, args []string) error {
	setupLogging()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set (environment or .env file)")
	}

	st, err := store.New(cfg.ProjectsDir)
	if err != nil {
		return err
	}

	// The archive only backs history search; a broken archive must not
	// block the conversation.
	arc, err := archive.Open(cfg.ArchivePath)
	if err != nil {
		slog.Warn("interaction archive unavailable", "error", err)
		arc = nil
	} else {
		defer func() {
			_ = arc.Close()
		}()
	}

	reader := bufio.NewReader(os.Stdin)
	project, err := chooseProject(st, reader, args)
	if err != nil || project == nil {
		return err
	}

	bus := events.NewBus(nil)
	client := assistant.NewOpenAIClient(cfg.APIKey)
	eng := engine.New(cfg, client, st, arc, bus, slog.Default())
	eng.SetProject(project)

	spin := newSpinner("Thinking...")
	bus.Subscribe(events.TopicRunStatus, func(payload any) {
		if s, ok := payload.(assistant.RunStatus); ok {
			spin.Update(statusText(s))
		}
	})
	bus.Subscribe(events.TopicSuggestionsReady, renderSuggestions)
	bus.Subscribe(events.TopicScopeSaved, func(any) {
		fmt.Println(noticeStyle.Render("Scope document updated."))
	})
	bus.Subscribe(events.TopicProjectRenamed, func(payload any) {
		if name, ok := payload.(string); ok {
			fmt.Println(noticeStyle.Render(fmt.Sprintf("Project renamed to %q.", name)))
		}
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Interrupt saves this session's project and exits; the handler owns
	// only the engine it closes over.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		spin.Stop()
		fmt.Println()
		if err := eng.Shutdown(context.Background()); err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		}
		fmt.Println("Project saved. The assistant will be reused in future sessions.")
		os.Exit(0)
	}()

	fmt.Println(headerStyle.Render("Project Scoping Assistant"))
	fmt.Println(mutedStyle.Render(fmt.Sprintf("Project: %s", project.Name)))
	fmt.Println()

	spin.Start()
	reply, err := eng.StartConversation(ctx)
	spin.Stop()
	if err != nil {
		_ = eng.Shutdown(ctx)
		return err
	}
	printReply(reply)

	for {
		fmt.Print(promptStyle.Render("> "))
		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "exit", "quit", "bye":
			if err := eng.Shutdown(ctx); err != nil {
				return err
			}
			fmt.Println("Project saved. The assistant will be reused in future sessions.")
			return nil
		case "history":
			fmt.Println(eng.Project().Ledger.Summary())
			continue
		case "save", "save progress", "save our progress":
			path, err := eng.SaveProgress()
			if err != nil {
				fmt.Println(errorStyle.Render(fmt.Sprintf("Save failed: %v", err)))
			} else {
				fmt.Println(noticeStyle.Render(fmt.Sprintf("Progress saved to %s", path)))
			}
			continue
		}

		spin.Start()
		reply, err := eng.Respond(ctx, input)
		spin.Stop()
		if err != nil {
			fmt.Println(errorStyle.Render(fmt.Sprintf("That didn't go through: %v", err)))
			fmt.Println(mutedStyle.Render("Your progress is saved; try again or type 'exit'."))
			continue
		}
		printReply(reply)
		printCompletion(eng.Project())
	}

	return eng.Shutdown(ctx)
}

// chooseProject resolves which project to work on: by name from args, or
// interactively. Returns nil with no error when the user quits the menu.
func chooseProject(st *store.Store, reader *bufio.Reader, args []string) (*models.Project, error) {
	if len(args) == 1 {
		p, err := st.LoadByName(args[0])
		if err != nil {
			return nil, fmt.Errorf("load project %q: %w", args[0], err)
		}
		return p, nil
	}

	infos, err := st.List()
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return newProjectPrompt(reader)
	}

	fmt.Println(headerStyle.Render("Saved projects:"))
	for i, info := range infos {
		line := fmt.Sprintf("  %d. %s", i+1, info.Name)
		if p, err := st.Load(info.Path); err == nil {
			line += mutedStyle.Render(fmt.Sprintf("  (%.0f%% scoped, updated %s)",
				p.Scope.CompletionPercentage(), relativeTime(info.LastModified)))
		}
		fmt.Println(line)
	}
	fmt.Println("  n. Start a new project")
	fmt.Println("  q. Quit")

	for {
		fmt.Print(promptStyle.Render("> "))
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, nil
		}
		input := strings.TrimSpace(strings.ToLower(line))
		switch input {
		case "q", "quit", "exit":
			return nil, nil
		case "n", "new":
			return newProjectPrompt(reader)
		}
		if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(infos) {
			return st.Load(infos[n-1].Path)
		}
		fmt.Println(mutedStyle.Render("Enter a project number, 'n' for new, or 'q' to quit."))
	}
}

func newProjectPrompt(reader *bufio.Reader) (*models.Project, error) {
	description := startDescription
	if description == "" {
		fmt.Println("Describe the project you want to scope (one line, or leave blank):")
		fmt.Print(promptStyle.Render("> "))
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, nil
		}
		description = strings.TrimSpace(line)
	}
	return models.NewProject(description), nil
}

func renderSuggestions(payload any) {
	ev, ok := payload.(tools.SuggestionsReadyEvent)
	if !ok {
		return
	}
	fmt.Println()
	fmt.Println(headerStyle.Render(fmt.Sprintf("Suggestions (%s):", strings.ReplaceAll(string(ev.Category), "_", " "))))
	for i, s := range ev.Suggestions {
		fmt.Printf("  %s %s\n", suggestionNumStyle.Render(fmt.Sprintf("%d.", i+1)), s.Text)
		if s.Description != "" {
			fmt.Println("     " + mutedStyle.Render(s.Description))
		}
		if s.BestPractice != "" {
			fmt.Println("     " + mutedStyle.Render("Best practice: "+s.BestPractice))
		}
	}
	if ev.AllowCustom {
		fmt.Println(mutedStyle.Render("Pick a number or type your own answer."))
	}
	fmt.Println()
}

func printReply(reply string) {
	if reply == "" {
		return
	}
	fmt.Println(assistantStyle.Render(reply))
	fmt.Println()
}

func printCompletion(p *models.Project) {
	if p == nil || p.Scope == nil {
		return
	}
	pct := p.Scope.CompletionPercentage()
	if pct <= 0 {
		return
	}
	if p.Scope.IsComplete() {
		fmt.Println(noticeStyle.Render("Scope is 100% complete. Type 'exit' when you're done."))
		return
	}
	fmt.Println(mutedStyle.Render(fmt.Sprintf("Scope %.1f%% complete", pct)))
}

func statusText(s assistant.RunStatus) string {
	switch s {
	case assistant.RunStatusQueued:
		return "Waiting for the assistant..."
	case assistant.RunStatusInProgress:
		return "Thinking..."
	case assistant.RunStatusCancelling:
		return "Cancelling previous run..."
	}
	return "Working..."
}
