package display

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNoInput is returned when stdin closes before an answer
var ErrNoInput = errors.New("no input")

// TerminalConfirmer asks yes/no questions on a line-oriented reader
type TerminalConfirmer struct {
	in  *bufio.Reader
	out io.Writer
	// DefaultYes makes an empty answer count as yes
	DefaultYes bool
}

// NewTerminalConfirmer reads answers from in and writes questions to out
func NewTerminalConfirmer(in io.Reader, out io.Writer) *TerminalConfirmer {
	return &TerminalConfirmer{in: bufio.NewReader(in), out: out}
}

// Confirm implements editor.Confirmer
func (c *TerminalConfirmer) Confirm(message string) (bool, error) {
	hint := "[y/N]"
	if c.DefaultYes {
		hint = "[Y/n]"
	}
	fmt.Fprintf(c.out, "%s %s: ", message, hint)

	line, err := c.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		fmt.Fprintln(c.out)
		if err == io.EOF {
			return false, ErrNoInput
		}
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	case "":
		return c.DefaultYes, nil
	default:
		return false, nil
	}
}

// Prompt asks for a line of text, returning def when the answer is empty
func (c *TerminalConfirmer) Prompt(message, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(c.out, "%s [%s]: ", message, def)
	} else {
		fmt.Fprintf(c.out, "%s: ", message)
	}
	line, err := c.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return "", ErrNoInput
		}
		return "", err
	}
	if answer := strings.TrimSpace(line); answer != "" {
		return answer, nil
	}
	return def, nil
}

// PromptSecret reads a line without echo when stdin is a terminal
func PromptSecret(message string) (string, error) {
	fmt.Fprintf(Stderr, "%s: ", message)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return strings.TrimSpace(string(secret)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", ErrNoInput
	}
	return strings.TrimSpace(line), nil
}
