package executor

import "context"

// CommandRunner runs external processes. The git helpers and the project
// initializer depend on this interface so tests can script command output.
type CommandRunner interface {
	// Run executes name with args in dir without a shell
	Run(ctx context.Context, dir, name string, args ...string) (*Result, error)

	// RunShell executes a command line through sh -c in dir
	RunShell(ctx context.Context, dir, command string) (*Result, error)
}

// Ensure concrete type implements the interface
var _ CommandRunner = (*Executor)(nil)
