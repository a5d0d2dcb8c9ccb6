package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/zor/internal/api"
	"github.com/quocvuong92/zor/internal/editor"
	"github.com/quocvuong92/zor/internal/executor"
	"github.com/quocvuong92/zor/internal/parser"
)

func (app *App) newEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <file> <instruction>",
		Short: "Edit a file from a natural language instruction",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := app.runEdit(cmd.Context(), args[0], strings.Join(args[1:], " "))
			return err
		},
	}
}

// runEdit asks the model for a new version of path and reviews it
func (app *App) runEdit(ctx context.Context, path, instruction string) (editor.Outcome, error) {
	target, rel, err := app.resolve(path)
	if err != nil {
		return editor.OutcomeFailed, err
	}
	original, err := os.ReadFile(target)
	if err != nil {
		if os.IsNotExist(err) {
			return editor.OutcomeFailed, fmt.Errorf("file %s does not exist", path)
		}
		return editor.OutcomeFailed, fmt.Errorf("failed to read %s: %w", path, err)
	}

	bundle, err := app.loadContext()
	if err != nil {
		return editor.OutcomeFailed, err
	}
	client, err := app.newClient(ctx)
	if err != nil {
		return editor.OutcomeFailed, err
	}
	defer client.Close()

	p := api.Prompt{Context: bundle.Render(), Text: editPrompt(rel, string(original), instruction)}
	res, err := app.exchange(ctx, client, "edit", rel+": "+instruction, bundle, p)
	if err != nil {
		return editor.OutcomeFailed, err
	}

	proposal, err := editor.NewProposal(target, parser.FirstCodeBlockOr(res.Text))
	if err != nil {
		return editor.OutcomeFailed, err
	}
	return app.editor().Review(proposal)
}

// resolve maps a path relative to the project root onto it, refusing paths
// that escape it. It returns the absolute path and the slash path relative
// to the root.
func (app *App) resolve(path string) (string, string, error) {
	target, err := executor.ResolveWithin(app.cfg.ProjectRoot, path)
	if err != nil {
		return "", "", err
	}
	rel, err := filepath.Rel(app.cfg.ProjectRoot, target)
	if err != nil {
		return "", "", err
	}
	return target, filepath.ToSlash(rel), nil
}
