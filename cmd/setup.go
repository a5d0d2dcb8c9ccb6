package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/zor/internal/api"
	"github.com/quocvuong92/zor/internal/config"
	"github.com/quocvuong92/zor/internal/display"
)

// validationPrompt is the one-shot request used to check a new key
const validationPrompt = "Just respond with 'OK' if this API key is valid."

func (app *App) newSetupCmd() *cobra.Command {
	var skipValidation bool

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Configure your API key",
		Long: `Prompt for the provider's API key without echoing it, check it with a
one-shot request and save it to the global config file (mode 0600).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if app.cfg.APIKey != "" {
				ok, err := app.prompt.Confirm("An API key is already configured. Do you want to replace it?")
				if err != nil {
					return err
				}
				if !ok {
					display.ShowInfo("Setup cancelled. Keeping existing API key.")
					return nil
				}
			}

			key, err := app.readSecret(fmt.Sprintf("Enter your %s API key", app.cfg.Provider))
			if err != nil {
				return err
			}
			if key = strings.TrimSpace(key); key == "" {
				return errors.New("no API key entered")
			}

			if !skipValidation {
				save, err := app.validateKey(ctx, key)
				if err != nil || !save {
					return err
				}
			}

			if err := app.store.Set(config.ScopeGlobal, config.KeyAPIKey, key); err != nil {
				return err
			}
			display.ShowSuccess(fmt.Sprintf("API key saved to %s", app.store.Path(config.ScopeGlobal)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipValidation, "skip-validation", false, "Save the key without a test request")
	return cmd
}

// validateKey sends one request with key. It reports whether the key should
// be saved; a failed check asks the user.
func (app *App) validateKey(ctx context.Context, key string) (bool, error) {
	display.ShowInfo("Validating API key...")

	cfg := *app.cfg
	cfg.APIKey = key
	// a single attempt is enough to tell a bad key from a good one
	cfg.RateLimitRetries = 1

	sender, err := app.newSender(ctx, &cfg, app.logger)
	if err != nil {
		return false, err
	}
	opts := api.OptionsFromConfig(&cfg, app.logger)
	opts.HistoryTurns = 0
	if app.sleep != nil {
		opts.Sleep = app.sleep
	}
	client := api.NewClient(sender, opts)
	defer client.Close()

	// recorded like any other exchange; the key itself never reaches the log
	_, err = app.exchange(ctx, client, "setup", validationPrompt, nil, api.Prompt{Text: validationPrompt})

	if err == nil {
		display.ShowSuccess("API key validated successfully!")
		return true, nil
	}
	if errors.Is(err, context.Canceled) {
		return false, err
	}

	if api.IsAuthError(err) {
		display.ShowError("The API key appears to be invalid: " + err.Error())
	} else {
		display.ShowWarning("Unable to validate API key: " + err.Error())
	}
	return app.prompt.Confirm("The API key could not be validated. Save it anyway?")
}
