package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/zor/internal/display"
	"github.com/quocvuong92/zor/internal/history"
)

// defaultHistoryLimit is how many exchanges `history` shows without --limit
const defaultHistoryLimit = 5

func (app *App) newHistoryCmd() *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent exchanges with the model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative, got %d", limit)
			}
			store, err := app.openHistory(app.cfg, app.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			exchanges, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(exchanges, "", "  ")
				if err != nil {
					return err
				}
				app.printf("%s\n", data)
				return nil
			}

			display.ShowHistory(historyRows(exchanges))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryLimit, "Number of exchanges to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print exchanges as JSON")
	return cmd
}

func historyRows(exchanges []history.Exchange) []display.HistoryRow {
	rows := make([]display.HistoryRow, 0, len(exchanges))
	for _, ex := range exchanges {
		response := ex.Response
		if ex.Failed {
			response = ex.Error
		}
		rows = append(rows, display.HistoryRow{
			Time:     ex.Timestamp,
			Command:  ex.Command,
			Status:   ex.Status(),
			Prompt:   ex.Prompt,
			Response: response,
		})
	}
	return rows
}
