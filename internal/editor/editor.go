// Package editor shows proposed file changes as a line diff and writes them
// only after the user confirms.
package editor

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/fatih/color"

	"github.com/quocvuong92/zor/internal/constants"
	"github.com/quocvuong92/zor/internal/executor"
	"github.com/quocvuong92/zor/internal/logging"
)

// DiffContext is the number of unchanged lines shown around each change
const DiffContext = 3

// Confirmer asks the user a yes/no question
type Confirmer interface {
	Confirm(message string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(message string) (bool, error)

func (f ConfirmFunc) Confirm(message string) (bool, error) {
	return f(message)
}

// Proposal is a candidate content change for one file
type Proposal struct {
	Path     string
	Original string
	Proposed string
	Exists   bool
}

// NewProposal reads the current content of path. A missing file yields a
// proposal that creates it.
func NewProposal(path, proposed string) (*Proposal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Proposal{Path: path, Proposed: proposed}, nil
		}
		return nil, &ApplyError{Path: path, Op: "read", Err: err}
	}
	return &Proposal{Path: path, Original: string(data), Proposed: proposed, Exists: true}, nil
}

// Diff returns the line diff of the proposal
func (p *Proposal) Diff() []DiffLine {
	return LineDiff(p.Original, p.Proposed)
}

// Changed reports whether applying the proposal would change the file
func (p *Proposal) Changed() bool {
	return !p.Exists || p.Original != p.Proposed
}

// BackupPath is where the original content is saved before overwrite
func BackupPath(path string) string {
	return path + constants.BackupSuffix
}

// Outcome is the result of reviewing a proposal
type Outcome int

const (
	OutcomeApplied Outcome = iota
	OutcomeRejected
	OutcomeUnchanged
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeRejected:
		return "rejected"
	case OutcomeFailed:
		return "failed"
	default:
		return "unchanged"
	}
}

// ApplyError means a backup or write failed; the target file is left as it was
type ApplyError struct {
	Path string
	Op   string
	Err  error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

// Options configures an Editor
type Options struct {
	Confirmer Confirmer
	Out       io.Writer
	Backup    bool
	Logger    *logging.Logger
}

// Editor reviews and applies proposals
type Editor struct {
	confirm Confirmer
	out     io.Writer
	backup  bool
	logger  *logging.Logger
}

// New creates an Editor
func New(opts Options) *Editor {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	return &Editor{
		confirm: opts.Confirmer,
		out:     opts.Out,
		backup:  opts.Backup,
		logger:  opts.Logger,
	}
}

// Show prints the diff of p
func (e *Editor) Show(p *Proposal) {
	WriteDiff(e.out, p.Path, p.Diff(), !p.Exists, DiffContext)
}

// Review shows p, asks for confirmation and applies it on yes
func (e *Editor) Review(p *Proposal) (Outcome, error) {
	outcomes, err := e.ReviewBatch([]*Proposal{p})
	if len(outcomes) == 0 {
		return OutcomeUnchanged, err
	}
	return outcomes[0], err
}

// ReviewBatch shows every proposal and asks once for all of them. Proposals
// are applied in order; the first failure stops the batch.
func (e *Editor) ReviewBatch(proposals []*Proposal) ([]Outcome, error) {
	outcomes := make([]Outcome, len(proposals))
	var pending []int
	for i, p := range proposals {
		if !p.Changed() {
			outcomes[i] = OutcomeUnchanged
			fmt.Fprintf(e.out, "%s is already up to date.\n", p.Path)
			continue
		}
		e.Show(p)
		fmt.Fprintln(e.out)
		pending = append(pending, i)
	}
	if len(pending) == 0 {
		return outcomes, nil
	}

	question := "Apply these changes?"
	if len(pending) == 1 {
		question = fmt.Sprintf("Apply changes to %s?", proposals[pending[0]].Path)
	}
	ok, err := e.confirm.Confirm(question)
	if err != nil {
		return outcomes, fmt.Errorf("confirmation failed: %w", err)
	}
	if !ok {
		for _, i := range pending {
			outcomes[i] = OutcomeRejected
		}
		color.New(color.FgYellow).Fprintln(e.out, "No changes applied.")
		e.logger.Info("Edit rejected", logging.Fields{"files": len(pending)})
		return outcomes, nil
	}

	for _, i := range pending {
		if err := e.Apply(proposals[i]); err != nil {
			for _, j := range pending {
				if j >= i {
					outcomes[j] = OutcomeFailed
				}
			}
			return outcomes, err
		}
		outcomes[i] = OutcomeApplied
		color.New(color.FgGreen).Fprintf(e.out, "Updated %s\n", proposals[i].Path)
	}
	return outcomes, nil
}

// Apply writes p without asking. With backups enabled the original content
// is saved first; the target is replaced atomically.
func (e *Editor) Apply(p *Proposal) error {
	mode := executor.FileMode(p.Path, 0o644)

	if e.backup && p.Exists {
		if err := executor.WriteFileAtomic(BackupPath(p.Path), []byte(p.Original), mode); err != nil {
			return &ApplyError{Path: p.Path, Op: "back up", Err: err}
		}
		e.logger.Debug("Wrote backup", logging.Fields{"path": BackupPath(p.Path)})
	}

	if err := executor.WriteFileAtomic(p.Path, []byte(p.Proposed), mode); err != nil {
		return &ApplyError{Path: p.Path, Op: "write", Err: err}
	}
	e.logger.Info("Applied edit", logging.Fields{"path": p.Path, "bytes": len(p.Proposed)})
	return nil
}
