package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/zor/internal/api"
	"github.com/quocvuong92/zor/internal/display"
	"github.com/quocvuong92/zor/internal/logging"
)

func (app *App) newAskCmd() *cobra.Command {
	var withHistory, render bool

	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Ask a question about your codebase",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			question := strings.Join(args, " ")

			bundle, err := app.loadContext()
			if err != nil {
				return err
			}

			p := api.Prompt{Context: bundle.Render(), Text: question}
			if withHistory {
				if p.History, err = app.recentTurns(ctx, app.cfg.HistorySize); err != nil {
					return err
				}
			}

			client, err := app.newClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			res, err := app.exchange(ctx, client, "ask", question, bundle, p)
			if err != nil {
				return err
			}

			if render {
				if err := display.InitRenderer(); err != nil {
					app.logger.Warn("Markdown renderer unavailable", logging.Fields{"error": err.Error()})
				}
				app.printf("%s\n", display.RenderMarkdown(res.Text))
				return nil
			}
			app.printf("%s\n", strings.TrimRight(res.Text, "\n"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&withHistory, "with-history", false, "Include recent exchanges as conversation history")
	cmd.Flags().BoolVarP(&render, "render", "r", false, "Render markdown with colors and formatting")
	return cmd
}
