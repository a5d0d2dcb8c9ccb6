package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/quocvuong92/zor/internal/display"
	"github.com/quocvuong92/zor/internal/editor"
	"github.com/quocvuong92/zor/internal/logging"
	"github.com/quocvuong92/zor/internal/parser"
)

// sessionHistoryLimit is how many exchanges /history shows
const sessionHistoryLimit = 10

// handleCommand processes slash commands in interactive mode.
// Returns true if the session should exit, false otherwise.
func (s *InteractiveSession) handleCommand(input string) bool {
	parts := strings.SplitN(input, " ", 2)
	cmd := strings.ToLower(parts[0])
	arg := ""
	if len(parts) > 1 {
		arg = strings.TrimSpace(parts[1])
	}

	switch cmd {
	case "/exit", "/quit", "/q":
		fmt.Fprintln(s.app.out, "Goodbye!")
		return true

	case "/clear", "/c":
		s.turns = nil
		s.lastResponse = ""
		s.sessionID = uuid.NewString()
		s.logger = s.app.logger.WithFields(logging.Fields{"session": s.sessionID})
		fmt.Fprintln(s.app.out, "Conversation cleared.")

	case "/help", "/h":
		s.showHelp()

	case "/files":
		s.showFiles()

	case "/reload":
		bundle, err := s.app.loadContext()
		if err != nil {
			display.ShowError(err.Error())
			break
		}
		s.bundle = bundle

	case "/model":
		s.handleModelCommand(arg)

	case "/history":
		s.showHistory()

	case "/apply":
		if err := s.applyLastResponse(arg); err != nil {
			display.ShowError(err.Error())
		}

	default:
		fmt.Fprintf(s.app.out, "Unknown command: %s\n", cmd)
		fmt.Fprintln(s.app.out, "Type /help for available commands")
	}

	return false
}

// showHelp displays the help message with all available commands
func (s *InteractiveSession) showHelp() {
	out := s.app.out
	fmt.Fprintln(out, "\nCommands:")
	fmt.Fprintf(out, "  %-24s %s\n", "/exit, /quit, /q", "Exit interactive mode")
	fmt.Fprintf(out, "  %-24s %s\n", "/clear, /c", "Clear conversation history")
	fmt.Fprintf(out, "  %-24s %s\n", "/files", "List files in the loaded context")
	fmt.Fprintf(out, "  %-24s %s\n", "/reload", "Rescan the project")
	fmt.Fprintf(out, "  %-24s %s\n", "/model <name>", "Switch model")
	fmt.Fprintf(out, "  %-24s %s\n", "/model", "Show current model")
	fmt.Fprintf(out, "  %-24s %s\n", "/history", "Show recent exchanges")
	fmt.Fprintf(out, "  %-24s %s\n", "/apply <file>", "Write the last response's code block to a file")
	fmt.Fprintf(out, "  %-24s %s\n", "/help, /h", "Show this help")
	fmt.Fprintln(out)
}

func (s *InteractiveSession) showFiles() {
	sum := s.bundle.Summary()
	fmt.Fprintf(s.app.out, "\n%d files, %d bytes", sum.Files, sum.Bytes)
	if sum.Omitted > 0 {
		fmt.Fprintf(s.app.out, ", %d omitted", sum.Omitted)
	}
	fmt.Fprintf(s.app.out, "\n\n%s\n", s.bundle.Tree())
}

// handleModelCommand shows or switches the model for later messages
func (s *InteractiveSession) handleModelCommand(name string) {
	if name == "" {
		fmt.Fprintf(s.app.out, "Current model: %s\n", s.client.Model())
		return
	}
	s.client.SetModel(name)
	fmt.Fprintf(s.app.out, "Switched to model: %s\n", name)
}

// showHistory displays recent exchanges from the history log
func (s *InteractiveSession) showHistory() {
	store, err := s.app.openHistory(s.app.cfg, s.app.logger)
	if err != nil {
		display.ShowError(err.Error())
		return
	}
	defer store.Close()

	exchanges, err := store.Recent(s.ctx, sessionHistoryLimit)
	if err != nil {
		display.ShowError(err.Error())
		return
	}
	display.ShowHistory(historyRows(exchanges))
}

// applyLastResponse proposes the last response's first code block as the
// new content of path
func (s *InteractiveSession) applyLastResponse(path string) error {
	if path == "" {
		return errors.New("usage: /apply <file>")
	}
	if s.lastResponse == "" {
		return errors.New("no response to apply yet")
	}
	blocks := parser.ExtractCodeBlocks(s.lastResponse)
	if len(blocks) == 0 {
		return errors.New("the last response has no code block")
	}

	target, _, err := s.app.resolve(path)
	if err != nil {
		return err
	}
	proposal, err := editor.NewProposal(target, blocks[0].Content)
	if err != nil {
		return err
	}
	_, err = s.app.editor().Review(proposal)
	return err
}
