package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/zor/internal/config"
	"github.com/quocvuong92/zor/internal/display"
)

func (app *App) newConfigCmd() *cobra.Command {
	var global, unset bool

	cmd := &cobra.Command{
		Use:   "config [key [value]]",
		Short: "View or change configuration",
		Long: `Without arguments, list every setting with its effective value and where it
came from. With a key, show that setting. With a key and a value, save it to
the project file if one exists, otherwise to the global file (always global
with --global). Values are parsed by the setting's type; lists are comma
separated.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope := app.store.DefaultScope()
			if global {
				scope = config.ScopeGlobal
			}

			switch {
			case unset:
				if len(args) != 1 {
					return fmt.Errorf("--unset takes exactly one key")
				}
				if err := app.store.Unset(scope, args[0]); err != nil {
					return err
				}
				display.ShowSuccess(fmt.Sprintf("Removed %s from %s", args[0], app.store.Path(scope)))
				return nil

			case len(args) == 0:
				app.listConfig()
				if app.cfg != nil && app.cfg.APIKey == "" {
					display.ShowWarning("No API key configured. Run 'zor setup'.")
				}
				return nil

			case len(args) == 1:
				value, source, err := app.store.Get(args[0])
				if err != nil {
					return err
				}
				k, _ := config.LookupKey(args[0])
				app.printf("%s: %s (%s)\n", k.Name, formatValue(value, k.Secret), source)
				return nil

			default:
				if err := app.store.Set(scope, args[0], args[1]); err != nil {
					return err
				}
				value, _, _ := app.store.Get(args[0])
				k, _ := config.LookupKey(args[0])
				display.ShowSuccess(fmt.Sprintf("Updated %s to %s in %s", k.Name, formatValue(value, k.Secret), app.store.Path(scope)))
				return nil
			}
		},
	}

	cmd.Flags().BoolVarP(&global, "global", "g", false, "Write to the global config file")
	cmd.Flags().BoolVar(&unset, "unset", false, "Remove the key from the config file")
	return cmd
}

func (app *App) listConfig() {
	entries := app.store.Entries()
	width := 0
	for _, e := range entries {
		if len(e.Key) > width {
			width = len(e.Key)
		}
	}
	for _, e := range entries {
		source := e.Source.String()
		if !e.Known {
			source += ", unrecognised"
		}
		app.printf("%-*s  %s (%s)\n", width, e.Key, formatValue(e.Value, e.Secret), source)
	}
}

// formatValue renders a config value for display, masking secrets
func formatValue(v interface{}, secret bool) string {
	var s string
	switch val := v.(type) {
	case nil:
		s = ""
	case []string:
		s = strings.Join(val, ",")
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, fmt.Sprint(item))
		}
		s = strings.Join(parts, ",")
	default:
		s = fmt.Sprint(val)
	}
	if secret {
		if s == "" {
			return "(not set)"
		}
		return config.MaskSecret(s)
	}
	return s
}
