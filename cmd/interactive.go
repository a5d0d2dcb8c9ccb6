package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/elk-language/go-prompt"
	istrings "github.com/elk-language/go-prompt/strings"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/quocvuong92/zor/internal/api"
	"github.com/quocvuong92/zor/internal/display"
	"github.com/quocvuong92/zor/internal/logging"
	"github.com/quocvuong92/zor/internal/scanner"
)

// InteractiveSession holds the state for an interactive chat session:
// the scanned context, the conversation so far and the multiline buffer.
type InteractiveSession struct {
	app          *App
	ctx          context.Context
	client       *api.Client
	bundle       *scanner.Bundle
	turns        []api.Turn
	lastResponse string
	render       bool
	exitFlag     bool
	inputBuffer  []string // Buffer for multiline input
	sessionID    string
	logger       *logging.FieldLogger
}

func (app *App) newInteractiveCmd() *cobra.Command {
	var render bool

	cmd := &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"chat", "i"},
		Short:   "Start an interactive session about your codebase",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := app.newSession(cmd.Context(), render)
			if err != nil {
				return err
			}
			defer session.client.Close()
			session.run()
			return nil
		},
	}

	cmd.Flags().BoolVarP(&render, "render", "r", false, "Render markdown with colors and formatting")
	return cmd
}

// newSession scans the project and connects to the model
func (app *App) newSession(ctx context.Context, render bool) (*InteractiveSession, error) {
	bundle, err := app.loadContext()
	if err != nil {
		return nil, err
	}
	client, err := app.newClient(ctx)
	if err != nil {
		return nil, err
	}
	if render {
		if err := display.InitRenderer(); err != nil {
			app.logger.Warn("Markdown renderer unavailable", logging.Fields{"error": err.Error()})
		}
	}

	id := uuid.NewString()
	return &InteractiveSession{
		app: app,
		// Ctrl+C cancels one request, not the session
		ctx:       context.WithoutCancel(ctx),
		client:    client,
		bundle:    bundle,
		render:    render,
		sessionID: id,
		logger:    app.logger.WithFields(logging.Fields{"session": id}),
	}, nil
}

// completer provides auto-completion suggestions for slash commands
func (s *InteractiveSession) completer(d prompt.Document) ([]prompt.Suggest, istrings.RuneNumber, istrings.RuneNumber) {
	text := d.TextBeforeCursor()
	endIndex := d.CurrentRuneIndex()
	w := d.GetWordBeforeCursor()
	startIndex := endIndex - istrings.RuneCountInString(w)

	// Only show suggestions when input starts with "/"
	if !strings.HasPrefix(text, "/") {
		return []prompt.Suggest{}, startIndex, endIndex
	}

	textLower := strings.ToLower(text)

	// /apply <file> - suggest files from the loaded context
	if strings.HasPrefix(textLower, "/apply ") {
		var suggestions []prompt.Suggest
		for _, p := range s.bundle.Paths() {
			suggestions = append(suggestions, prompt.Suggest{Text: p})
		}
		return prompt.FilterHasPrefix(suggestions, w, true), startIndex, endIndex
	}

	if strings.HasPrefix(textLower, "/model ") {
		suggestions := []prompt.Suggest{{Text: s.client.Model(), Description: "(current)"}}
		return prompt.FilterHasPrefix(suggestions, w, true), startIndex, endIndex
	}

	return prompt.FilterHasPrefix(slashSuggestions(s.client.Model()), w, true), startIndex, endIndex
}

func slashSuggestions(model string) []prompt.Suggest {
	return []prompt.Suggest{
		{Text: "/apply", Description: "Write the last response's code block to a file"},
		{Text: "/model", Description: "Show/switch model (current: " + model + ")"},
		{Text: "/clear", Description: "Clear conversation history"},
		{Text: "/files", Description: "List files in the loaded context"},
		{Text: "/reload", Description: "Rescan the project"},
		{Text: "/history", Description: "Show recent exchanges"},
		{Text: "/help", Description: "Show all available commands"},
		{Text: "/exit", Description: "Exit interactive mode"},
		{Text: "/quit", Description: "Exit (alias)"},
		{Text: "/q", Description: "Exit (alias)"},
	}
}

// run starts the REPL and blocks until the user leaves
func (s *InteractiveSession) run() {
	s.app.printf("Zor - Interactive Mode\n")
	sum := s.bundle.Summary()
	display.ShowKeyValues([][2]string{
		{"Model:", s.client.Model()},
		{"Provider:", s.app.cfg.Provider},
		{"Context:", fmt.Sprintf("%d files, %d bytes", sum.Files, sum.Bytes)},
	})
	s.app.printf("Type /help for commands, Ctrl+C or Ctrl+D to quit\n")
	s.app.printf("End a line with \\ for multiline input\n\n")

	p := prompt.New(
		s.executor,
		prompt.WithCompleter(s.completer),
		prompt.WithPrefix("> "),
		prompt.WithTitle("zor"),
		prompt.WithPrefixTextColor(prompt.Green),
		prompt.WithSuggestionBGColor(prompt.DarkBlue),
		prompt.WithSuggestionTextColor(prompt.White),
		prompt.WithSelectedSuggestionBGColor(prompt.Cyan),
		prompt.WithSelectedSuggestionTextColor(prompt.Black),
		prompt.WithDescriptionBGColor(prompt.DarkBlue),
		prompt.WithDescriptionTextColor(prompt.LightGray),
		prompt.WithSelectedDescriptionBGColor(prompt.Cyan),
		prompt.WithSelectedDescriptionTextColor(prompt.Black),
		prompt.WithMaxSuggestion(12),
		prompt.WithCompletionOnDown(),
		prompt.WithExitChecker(func(in string, breakline bool) bool {
			return s.exitFlag
		}),
		prompt.WithKeyBind(prompt.KeyBind{
			Key: prompt.ControlC,
			Fn: func(p *prompt.Prompt) bool {
				fmt.Fprintln(s.app.out, "\nGoodbye!")
				s.exitFlag = true
				return false
			},
		}),
		prompt.WithKeyBind(prompt.KeyBind{
			Key: prompt.ControlD,
			Fn: func(p *prompt.Prompt) bool {
				if p.Buffer().Text() == "" {
					fmt.Fprintln(s.app.out, "Goodbye!")
					s.exitFlag = true
				}
				return false
			},
		}),
	)

	p.Run()
}

// executor handles each input line: backslash continuation, slash commands
// and chat messages
func (s *InteractiveSession) executor(input string) {
	if s.exitFlag {
		return
	}

	if strings.HasSuffix(input, "\\") {
		s.inputBuffer = append(s.inputBuffer, strings.TrimSuffix(input, "\\"))
		fmt.Fprint(s.app.out, "... ")
		return
	}
	if len(s.inputBuffer) > 0 {
		s.inputBuffer = append(s.inputBuffer, input)
		input = strings.Join(s.inputBuffer, "\n")
		s.inputBuffer = nil
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return
	}

	if strings.HasPrefix(input, "/") {
		if s.handleCommand(input) {
			s.exitFlag = true
		}
		return
	}

	if err := s.sendMessage(input); err != nil {
		display.ShowError(err.Error())
	}
}

// sendMessage asks the model with the session so far and prints the answer
func (s *InteractiveSession) sendMessage(input string) error {
	ctx, stop := signal.NotifyContext(s.ctx, os.Interrupt)
	defer stop()

	p := api.Prompt{Context: s.bundle.Render(), History: s.turns, Text: input}
	res, err := s.app.exchange(ctx, s.client, "interactive", input, s.bundle, p)
	if err != nil {
		return err
	}

	s.turns = append(s.turns, api.Turn{User: input, Model: res.Text})
	s.lastResponse = res.Text
	s.logger.Debug("Turn complete", logging.Fields{"turns": len(s.turns), "attempts": res.Attempts})

	fmt.Fprintln(s.app.out)
	if s.render {
		fmt.Fprintln(s.app.out, display.RenderMarkdown(res.Text))
	} else {
		fmt.Fprintln(s.app.out, strings.TrimRight(res.Text, "\n"))
	}
	fmt.Fprintln(s.app.out)
	return nil
}
