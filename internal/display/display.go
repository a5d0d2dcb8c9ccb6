// Package display handles terminal output: colored messages, the progress
// spinner, markdown rendering, prompts and tables.
package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Writers used by the package. Tests swap them for buffers.
var (
	Stdout io.Writer = color.Output
	Stderr io.Writer = os.Stderr
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow)
	successColor = color.New(color.FgGreen)
	infoColor    = color.New(color.FgCyan)
	boldColor    = color.New(color.Bold)
	faintColor   = color.New(color.Faint)
)

// ShowError prints an error message to stderr
func ShowError(msg string) {
	errorColor.Fprintf(Stderr, "Error: %s\n", msg)
}

// ShowWarning prints a warning to stderr
func ShowWarning(msg string) {
	warnColor.Fprintf(Stderr, "Warning: %s\n", msg)
}

// ShowSuccess prints a success message
func ShowSuccess(msg string) {
	successColor.Fprintln(Stdout, msg)
}

// ShowInfo prints an informational message
func ShowInfo(msg string) {
	infoColor.Fprintln(Stdout, msg)
}

// ShowHeader prints a bold section title
func ShowHeader(title string) {
	boldColor.Fprintf(Stdout, "\n%s\n", title)
}

// ShowContent prints raw model output
func ShowContent(content string) {
	fmt.Fprintln(Stdout, strings.TrimRight(content, "\n"))
}

// ShowContextSummary prints what was sent as context
func ShowContextSummary(files int, bytes int64, omitted int) {
	msg := fmt.Sprintf("Context: %d files, %d bytes", files, bytes)
	if omitted > 0 {
		msg += fmt.Sprintf(", %d omitted", omitted)
	}
	faintColor.Fprintln(Stderr, msg)
}

// ShowCommandExecuting announces a shell command
func ShowCommandExecuting(command string) {
	boldColor.Fprint(Stdout, "Executing: ")
	fmt.Fprintln(Stdout, command)
}

// ShowCommandOutput prints captured command output
func ShowCommandOutput(output string) {
	if output = strings.TrimSpace(output); output != "" {
		faintColor.Fprintln(Stdout, output)
	}
}

// ShowCommandError reports a failed command
func ShowCommandError(command string, err error) {
	errorColor.Fprintf(Stderr, "Command failed: %s\n", command)
	fmt.Fprintf(Stderr, "  %v\n", err)
}

// ShowCommandBlocked reports a command that will not be run
func ShowCommandBlocked(command, reason string) {
	errorColor.Fprintf(Stderr, "Blocked: %s\n", command)
	fmt.Fprintf(Stderr, "  Reason: %s\n", reason)
}

// ShowFileOperation reports a file created, overwritten or skipped
func ShowFileOperation(op, path string) {
	c := successColor
	if op == "Skipped" || op == "Failed" {
		c = warnColor
	}
	c.Fprintf(Stdout, "%s: ", op)
	fmt.Fprintln(Stdout, path)
}
