package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/zor/internal/api"
	"github.com/quocvuong92/zor/internal/config"
	"github.com/quocvuong92/zor/internal/display"
	"github.com/quocvuong92/zor/internal/editor"
	"github.com/quocvuong92/zor/internal/executor"
	"github.com/quocvuong92/zor/internal/history"
	"github.com/quocvuong92/zor/internal/logging"
)

// Prompter asks the user questions. The terminal implementation reads stdin;
// tests script the answers.
type Prompter interface {
	editor.Confirmer
	Prompt(message, def string) (string, error)
}

// SenderFactory builds the model backend for a configuration
type SenderFactory func(ctx context.Context, cfg *config.Config, logger *logging.Logger) (api.Sender, error)

// App holds the per-invocation state shared by every command
type App struct {
	verbose   bool
	logLevel  string
	logFormat string
	model     string
	provider  string
	dir       string

	cfg    *config.Config
	store  *config.Store
	logger *logging.Logger

	out    io.Writer
	errOut io.Writer
	prompt Prompter

	newSender   SenderFactory
	openHistory func(cfg *config.Config, logger *logging.Logger) (history.Store, error)
	runner      executor.CommandRunner
	readSecret  func(message string) (string, error)
	sleep       api.Sleeper
	globalDir   string
}

// NewApp creates an App wired to the terminal and the real backends
func NewApp() *App {
	return &App{
		out:       display.Stdout,
		errOut:    display.Stderr,
		prompt:    display.NewTerminalConfirmer(os.Stdin, display.Stderr),
		newSender: api.NewSender,
		openHistory: func(cfg *config.Config, logger *logging.Logger) (history.Store, error) {
			return history.Open(cfg.HistoryBackend, cfg.HistoryDir(), logger)
		},
		readSecret: display.PromptSecret,
	}
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := NewApp()
	if err := app.NewRootCmd().ExecuteContext(ctx); err != nil {
		display.ShowError(err.Error())
		stop()
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree around app
func (app *App) NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "zor",
		Short: "An AI coding assistant for your codebase",
		Long: `Zor reads your project, sends it to a model together with your request,
and shows every proposed file change as a diff before writing it.

Examples:
  zor ask "How is configuration loaded?"
  zor edit main.go "add a --version flag"
  zor refactor "rename Store to Repository"
  zor generate_test internal/parser/parser.go
  zor interactive`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: app.setup,
	}

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&app.logLevel, "log-level", "warn", "Log level: debug, info, warn, error or off")
	rootCmd.PersistentFlags().StringVar(&app.logFormat, "log-format", "text", "Log format: text or json")
	// defaults keep values already set on app
	rootCmd.PersistentFlags().StringVarP(&app.model, "model", "m", app.model, "Model name for this run")
	rootCmd.PersistentFlags().StringVar(&app.provider, "provider", app.provider, "Model provider for this run: gemini or openai")
	rootCmd.PersistentFlags().StringVarP(&app.dir, "dir", "C", app.dir, "Project root (default: current directory)")

	rootCmd.AddCommand(
		app.newAskCmd(),
		app.newEditCmd(),
		app.newInteractiveCmd(),
		app.newGenerateTestCmd(),
		app.newRefactorCmd(),
		app.newCommitCmd(),
		app.newHistoryCmd(),
		app.newConfigCmd(),
		app.newSetupCmd(),
		app.newInitCmd(),
	)
	return rootCmd
}

// setup builds the logger and loads the configuration before any command runs
func (app *App) setup(cmd *cobra.Command, _ []string) error {
	level := logging.ParseLevel(app.logLevel)
	if app.verbose {
		level = logging.LevelDebug
	}
	app.logger = logging.New(logging.Options{
		Level:  level,
		Format: logging.ParseFormat(app.logFormat),
		Output: app.errOut,
	})

	store, err := config.Open(config.Options{ProjectRoot: app.dir, GlobalDir: app.globalDir})
	if err != nil {
		return err
	}
	if app.provider != "" {
		if err := store.Override(config.KeyProvider, app.provider); err != nil {
			return err
		}
	}
	if app.model != "" {
		if err := store.Override(config.KeyModel, app.model); err != nil {
			return err
		}
	}
	app.store = store

	// `config` must stay usable to repair a broken file
	cfg, err := store.Config()
	if err != nil && cmd.Name() != "config" {
		return err
	}
	app.cfg = cfg

	if app.runner == nil {
		app.runner = executor.NewExecutor(app.logger)
	}
	app.logger.Debug("Configuration loaded", logging.Fields{
		"provider": app.providerName(),
		"root":     app.projectRoot(),
	})
	return nil
}

func (app *App) projectRoot() string {
	if app.cfg != nil {
		return app.cfg.ProjectRoot
	}
	return app.dir
}

func (app *App) providerName() string {
	if app.cfg == nil {
		return ""
	}
	return app.cfg.Provider
}

// editor creates an Editor that asks through the app's prompter
func (app *App) editor() *editor.Editor {
	return editor.New(editor.Options{
		Confirmer: app.prompt,
		Out:       app.out,
		Backup:    app.cfg.BackupFiles,
		Logger:    app.logger,
	})
}

func (app *App) printf(format string, args ...interface{}) {
	fmt.Fprintf(app.out, format, args...)
}
