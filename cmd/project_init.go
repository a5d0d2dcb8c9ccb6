package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/zor/internal/api"
	"github.com/quocvuong92/zor/internal/display"
	"github.com/quocvuong92/zor/internal/editor"
	"github.com/quocvuong92/zor/internal/executor"
	"github.com/quocvuong92/zor/internal/logging"
	"github.com/quocvuong92/zor/internal/parser"
	"github.com/quocvuong92/zor/internal/project"
)

// ErrInitCancelled is returned when the user stops project creation
var ErrInitCancelled = errors.New("project initialization cancelled")

func (app *App) newInitCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "init <description>",
		Short: "Create a new project from a description",
		Long: `Ask the model for a project blueprint, optionally run the framework's
scaffolding command, generate the project files and run the setup commands.
Every step asks first; commands classified as dangerous are never run.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := app.runInit(cmd.Context(), strings.Join(args, " "), dir)
			if errors.Is(err, ErrInitCancelled) {
				display.ShowInfo("Project initialization cancelled.")
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&dir, "path", "p", "", "Project directory, relative to the project root (default: derived from the description)")
	return cmd
}

// initSession carries one project creation through its steps
type initSession struct {
	app         *App
	client      *api.Client
	description string
	dir         string
}

func (app *App) runInit(ctx context.Context, description, dir string) error {
	projectDir, err := app.chooseProjectDir(description, dir)
	if err != nil {
		return err
	}

	client, err := app.newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	s := &initSession{app: app, client: client, description: description, dir: projectDir}

	bp, err := s.blueprint(ctx)
	if err != nil {
		return err
	}
	display.ShowHeader("Project Blueprint")
	app.printf("%s\n", bp.String())
	if !s.confirm("Proceed with project creation?") {
		return ErrInitCancelled
	}

	scaffolded := false
	if bp.HasScaffold() {
		if scaffolded, err = s.scaffold(ctx, bp); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.dir, err)
	}

	if err := s.generateFiles(ctx, bp, scaffolded); err != nil {
		return err
	}
	s.runSetupCommands(ctx, bp.SetupCommands)

	display.ShowSuccess(fmt.Sprintf("Project created at %s", s.dir))
	return nil
}

// chooseProjectDir resolves the target directory, asking for a name when
// none was given, and checks it is usable
func (app *App) chooseProjectDir(description, dir string) (string, error) {
	if dir == "" {
		name, err := app.prompt.Prompt("Project directory name", project.SuggestName(description))
		if err != nil {
			return "", err
		}
		dir = name
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(app.cfg.ProjectRoot, dir)
	}
	dir = filepath.Clean(dir)
	if safe, reason := executor.IsPathSafe(dir); !safe {
		return "", fmt.Errorf("cannot create a project at %s: %s", dir, reason)
	}

	if entries, err := os.ReadDir(dir); err == nil && len(entries) > 0 {
		ok, err := app.prompt.Confirm(fmt.Sprintf("Directory %s exists and is not empty. Continue anyway?", dir))
		if err != nil {
			return "", err
		}
		if !ok {
			return "", ErrInitCancelled
		}
	}
	return dir, nil
}

// confirm asks a question; a failed read counts as no
func (s *initSession) confirm(question string) bool {
	ok, err := s.app.prompt.Confirm(question)
	if err != nil {
		s.app.logger.Warn("Confirmation failed", logging.Fields{"error": err.Error()})
		return false
	}
	return ok
}

func (s *initSession) blueprint(ctx context.Context) (*project.Blueprint, error) {
	p := api.Prompt{Text: initPlanPrompt(s.description)}
	res, err := s.app.exchange(ctx, s.client, "init", s.description, nil, p)
	if err != nil {
		return nil, err
	}
	bp, err := project.ParseBlueprint(res.Text)
	if err != nil {
		display.ShowContent(res.Text)
		return nil, err
	}
	return bp, nil
}

// scaffold runs the blueprint's scaffold command after asking. It reports
// whether the command ran successfully.
func (s *initSession) scaffold(ctx context.Context, bp *project.Blueprint) (bool, error) {
	plan := bp.PlanScaffold(s.dir)

	display.ShowHeader("Official scaffolding command detected")
	s.app.printf("%s\nScaffold type: %s\n\n", plan.Command, bp.ScaffoldType)

	verdict := executor.ClassifyCommand(plan.Command)
	if verdict.Risk == executor.Dangerous {
		display.ShowCommandBlocked(plan.Command, verdict.Reason)
		return false, nil
	}
	if !s.confirm("Run this scaffolding command?") {
		return false, nil
	}

	if bp.ScaffoldType == project.ScaffoldCreatesOwnDir {
		// the tool creates the directory itself; an empty one is in the way
		_ = os.Remove(s.dir)
	}
	if err := os.MkdirAll(plan.Dir, 0o755); err != nil {
		return false, err
	}

	display.ShowCommandExecuting(plan.Command)
	res, err := s.app.runner.RunShell(ctx, plan.Dir, plan.Command)
	if err != nil {
		display.ShowCommandError(plan.Command, err)
		if !s.confirm("Continue with file generation anyway?") {
			return false, ErrInitCancelled
		}
		return false, nil
	}
	display.ShowCommandOutput(res.Output())
	display.ShowSuccess("Scaffolding completed successfully!")

	if _, err := os.Stat(s.dir); err != nil {
		s.findScaffoldedDir()
	}
	return true, nil
}

// findScaffoldedDir looks for the usual spellings of the project name when
// a scaffold tool created a differently named directory
func (s *initSession) findScaffoldedDir() {
	parent, name := filepath.Dir(s.dir), filepath.Base(s.dir)
	for _, alt := range []string{
		strings.ToLower(name),
		strings.ReplaceAll(name, "-", "_"),
		strings.ReplaceAll(name, "_", "-"),
	} {
		candidate := filepath.Join(parent, alt)
		if candidate == s.dir {
			continue
		}
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			display.ShowInfo(fmt.Sprintf("Project was created at %s", candidate))
			if s.confirm(fmt.Sprintf("Use this directory instead of %s?", s.dir)) {
				s.dir = candidate
			}
			return
		}
	}
}

func (s *initSession) generateFiles(ctx context.Context, bp *project.Blueprint, scaffolded bool) error {
	p := api.Prompt{Text: initFilesPrompt(s.description, bp.ProjectType, scaffolded)}
	res, err := s.app.exchange(ctx, s.client, "init", s.description+" (files)", nil, p)
	if err != nil {
		return err
	}

	blocks := parser.ParseFileBlocks(res.Text)
	if len(blocks) == 0 {
		display.ShowContent(res.Text)
		return errors.New("could not parse the file generation response")
	}

	display.ShowHeader(fmt.Sprintf("Creating %d files", len(blocks)))
	ed := s.app.editor()
	for _, b := range blocks {
		target, err := executor.ResolveWithin(s.dir, b.Path)
		if err != nil {
			display.ShowFileOperation("Skipped", fmt.Sprintf("%s (%v)", b.Path, err))
			continue
		}
		proposal, err := editor.NewProposal(target, b.Content)
		if err != nil {
			display.ShowFileOperation("Failed", fmt.Sprintf("%s (%v)", b.Path, err))
			continue
		}

		if !proposal.Exists {
			if err := ed.Apply(proposal); err != nil {
				display.ShowFileOperation("Failed", fmt.Sprintf("%s (%v)", b.Path, err))
				continue
			}
			display.ShowFileOperation("Created", b.Path)
			continue
		}

		// files from the scaffold tool are shown as a diff and only
		// overwritten on request
		outcome, err := ed.Review(proposal)
		if err != nil {
			display.ShowFileOperation("Failed", fmt.Sprintf("%s (%v)", b.Path, err))
			continue
		}
		if outcome == editor.OutcomeRejected {
			display.ShowFileOperation("Skipped", b.Path)
		}
	}
	return nil
}

// runSetupCommands shows the blueprint's setup commands and runs them when
// the user agrees. Dangerous commands are never run; others that change
// state are confirmed one by one.
func (s *initSession) runSetupCommands(ctx context.Context, commands []string) {
	if len(commands) == 0 {
		return
	}
	display.ShowHeader("Setup commands")
	for _, c := range commands {
		s.app.printf("  %s\n", c)
	}
	s.app.printf("\n")
	if !s.confirm("Do you want to execute the setup commands?") {
		return
	}

	for _, c := range commands {
		verdict := executor.ClassifyCommand(c)
		switch verdict.Risk {
		case executor.Dangerous:
			display.ShowCommandBlocked(c, verdict.Reason)
			continue
		case executor.NeedsConfirm:
			if !s.confirm(fmt.Sprintf("Run %q?", c)) {
				continue
			}
		}

		display.ShowCommandExecuting(c)
		res, err := s.app.runner.RunShell(ctx, s.dir, c)
		if err != nil {
			display.ShowCommandError(c, err)
			if ctx.Err() != nil {
				return
			}
			continue
		}
		display.ShowCommandOutput(res.Output())
	}
}
