// Package gitutil wraps the git operations zor needs: staging, committing
// and reading the staged diff.
package gitutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/quocvuong92/zor/internal/constants"
	"github.com/quocvuong92/zor/internal/executor"
)

// ErrNothingToCommit is returned by Commit when the index is clean
var ErrNothingToCommit = errors.New("nothing to commit")

// Repo runs git in a working directory
type Repo struct {
	root   string
	runner executor.CommandRunner
}

// New creates a Repo for root
func New(root string, runner executor.CommandRunner) *Repo {
	return &Repo{root: root, runner: runner}
}

// Root returns the working directory
func (r *Repo) Root() string {
	return r.root
}

// IsRepo reports whether root has a .git entry
func (r *Repo) IsRepo() bool {
	_, err := os.Stat(filepath.Join(r.root, ".git"))
	return err == nil
}

func (r *Repo) git(ctx context.Context, args ...string) (*executor.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultGitTimeout)
	defer cancel()
	return r.runner.Run(ctx, r.root, "git", args...)
}

// Init creates a repository in root
func (r *Repo) Init(ctx context.Context) error {
	_, err := r.git(ctx, "init")
	return err
}

// AddAll stages all changes
func (r *Repo) AddAll(ctx context.Context) error {
	_, err := r.git(ctx, "add", ".")
	return err
}

// StageAll stages everything, initializing the repository first when root
// is not one yet. It reports whether a repository was created.
func (r *Repo) StageAll(ctx context.Context) (initialized bool, err error) {
	if err := r.AddAll(ctx); err == nil {
		return false, nil
	} else if !isNotRepo(err) && r.IsRepo() {
		return false, err
	}
	if err := r.Init(ctx); err != nil {
		return false, err
	}
	return true, r.AddAll(ctx)
}

// StagedDiff returns the diff of the index against HEAD
func (r *Repo) StagedDiff(ctx context.Context) (string, error) {
	res, err := r.git(ctx, "diff", "--cached", "--no-color")
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// Commit creates a new commit with message
func (r *Repo) Commit(ctx context.Context, message string) (string, error) {
	res, err := r.git(ctx, "commit", "-m", message)
	if err != nil {
		var exitErr *executor.ExitError
		if errors.As(err, &exitErr) && strings.Contains(exitErr.Result.Stdout, "nothing to commit") {
			return "", ErrNothingToCommit
		}
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

func isNotRepo(err error) bool {
	var exitErr *executor.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	return strings.Contains(strings.ToLower(exitErr.Result.Stderr), "not a git repository")
}
