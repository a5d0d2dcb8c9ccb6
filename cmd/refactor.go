package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/zor/internal/api"
	"github.com/quocvuong92/zor/internal/display"
	"github.com/quocvuong92/zor/internal/editor"
	"github.com/quocvuong92/zor/internal/parser"
)

// refactorSubjectLen caps the instruction quoted in the default commit message
const refactorSubjectLen = 50

// ErrNoFileChanges is returned when a response names no files to change
var ErrNoFileChanges = errors.New("no file changes were specified in the response")

func (app *App) newRefactorCmd() *cobra.Command {
	var noCommit bool

	cmd := &cobra.Command{
		Use:   "refactor <instruction>",
		Short: "Refactor code across multiple files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			instruction := strings.Join(args, " ")
			applied, err := app.runRefactor(cmd.Context(), instruction)
			if err != nil || applied == 0 || noCommit {
				return err
			}
			return app.offerCommit(cmd.Context(), "Refactor: "+truncateRunes(instruction, refactorSubjectLen))
		},
	}

	cmd.Flags().BoolVar(&noCommit, "no-commit", false, "Do not offer to commit the applied changes")
	return cmd
}

// runRefactor asks for multi-file changes and reviews them with a single
// confirmation. It returns the number of files written.
func (app *App) runRefactor(ctx context.Context, instruction string) (int, error) {
	bundle, err := app.loadContext()
	if err != nil {
		return 0, err
	}
	client, err := app.newClient(ctx)
	if err != nil {
		return 0, err
	}
	defer client.Close()

	p := api.Prompt{Context: bundle.Render(), Text: refactorPrompt(instruction)}
	res, err := app.exchange(ctx, client, "refactor", instruction, bundle, p)
	if err != nil {
		return 0, err
	}

	proposals, err := app.proposalsFrom(parser.ParseFileBlocks(res.Text))
	if err != nil {
		return 0, err
	}

	app.printf("\nRefactoring will modify %d file(s):\n", len(proposals))
	for _, pr := range proposals {
		app.printf("- %s\n", app.relative(pr.Path))
	}
	app.printf("\n")

	outcomes, err := app.editor().ReviewBatch(proposals)
	applied := 0
	for _, o := range outcomes {
		if o == editor.OutcomeApplied {
			applied++
		}
	}
	return applied, err
}

// proposalsFrom turns FILE blocks into proposals, refusing paths that
// escape the project root
func (app *App) proposalsFrom(blocks []parser.FileBlock) ([]*editor.Proposal, error) {
	var proposals []*editor.Proposal
	for _, b := range blocks {
		target, _, err := app.resolve(b.Path)
		if err != nil {
			display.ShowWarning(fmt.Sprintf("Refusing to write %s: %v", b.Path, err))
			continue
		}
		pr, err := editor.NewProposal(target, b.Content)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, pr)
	}
	if len(proposals) == 0 {
		return nil, ErrNoFileChanges
	}
	return proposals, nil
}

// offerCommit asks whether to commit and with which message
func (app *App) offerCommit(ctx context.Context, defaultMessage string) error {
	ok, err := app.prompt.Confirm("Commit these changes?")
	if err != nil || !ok {
		return err
	}
	message, err := app.prompt.Prompt("Commit message", defaultMessage)
	if err != nil {
		return err
	}
	return app.commit(ctx, message)
}
