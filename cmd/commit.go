package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/zor/internal/api"
	"github.com/quocvuong92/zor/internal/display"
	"github.com/quocvuong92/zor/internal/gitutil"
	"github.com/quocvuong92/zor/internal/logging"
	"github.com/quocvuong92/zor/internal/parser"
)

func (app *App) newCommitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commit [message]",
		Short: "Stage all changes and commit them",
		Long: `Stage all changes with "git add ." and commit them. A repository is
initialized first when the project is not one yet. Without a message the
staged diff is sent to the model, which proposes one for you to confirm.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if message := strings.TrimSpace(strings.Join(args, " ")); message != "" {
				return app.commit(cmd.Context(), message)
			}
			return app.commitWithProposal(cmd.Context())
		},
	}
}

func (app *App) repo() *gitutil.Repo {
	return gitutil.New(app.cfg.ProjectRoot, app.runner)
}

// stage runs git add, initializing the repository when needed
func (app *App) stage(ctx context.Context, repo *gitutil.Repo) error {
	initialized, err := repo.StageAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to stage changes: %w", err)
	}
	if initialized {
		display.ShowInfo("Initialized a new git repository")
	}
	return nil
}

// commit stages everything and commits with message
func (app *App) commit(ctx context.Context, message string) error {
	repo := app.repo()
	if err := app.stage(ctx, repo); err != nil {
		return err
	}
	return app.commitStaged(ctx, repo, message)
}

func (app *App) commitStaged(ctx context.Context, repo *gitutil.Repo, message string) error {
	out, err := repo.Commit(ctx, message)
	if errors.Is(err, gitutil.ErrNothingToCommit) {
		display.ShowWarning("Nothing to commit")
		return nil
	}
	if err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	app.logger.Debug("git commit", logging.Fields{"output": out})
	display.ShowSuccess("Commit created successfully")
	return nil
}

// commitWithProposal asks the model for a message describing the staged diff
func (app *App) commitWithProposal(ctx context.Context) error {
	repo := app.repo()
	if err := app.stage(ctx, repo); err != nil {
		return err
	}
	diff, err := repo.StagedDiff(ctx)
	if err != nil {
		return fmt.Errorf("failed to read staged changes: %w", err)
	}
	if strings.TrimSpace(diff) == "" {
		display.ShowWarning("Nothing to commit")
		return nil
	}

	client, err := app.newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	res, err := app.exchange(ctx, client, "commit", "propose commit message", nil, api.Prompt{Text: commitMessagePrompt(diff)})
	if err != nil {
		return err
	}

	proposed := strings.TrimSpace(parser.FirstCodeBlockOr(res.Text))
	if proposed == "" {
		return errors.New("the model proposed an empty commit message")
	}
	display.ShowHeader("Proposed commit message")
	app.printf("%s\n\n", proposed)

	ok, err := app.prompt.Confirm("Commit with this message?")
	if err != nil {
		return err
	}
	if !ok {
		display.ShowInfo("Commit cancelled")
		return nil
	}
	return app.commitStaged(ctx, repo, proposed)
}
