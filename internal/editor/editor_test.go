package editor

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

// scriptedConfirmer answers from a fixed list and records the questions
type scriptedConfirmer struct {
	answers   []bool
	err       error
	questions []string
}

func (s *scriptedConfirmer) Confirm(message string) (bool, error) {
	s.questions = append(s.questions, message)
	if s.err != nil {
		return false, s.err
	}
	if len(s.answers) == 0 {
		return false, nil
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// ===== Diff Tests =====

func TestLineDiff(t *testing.T) {
	lines := LineDiff("a\nb\nc\n", "a\nB\nc\nd\n")

	var rendered []string
	for _, l := range lines {
		rendered = append(rendered, l.Prefix()+l.Text)
	}
	assert.Equal(t, []string{" a", "-b", "+B", " c", "+d"}, rendered)

	added, removed := Stats(lines)
	assert.Equal(t, 2, added)
	assert.Equal(t, 1, removed)
	assert.True(t, HasChanges(lines))
}

func TestLineDiff_Identical(t *testing.T) {
	lines := LineDiff("same\n", "same\n")
	assert.False(t, HasChanges(lines))
}

func TestLineDiff_NewFile(t *testing.T) {
	lines := LineDiff("", "one\ntwo\n")
	added, removed := Stats(lines)
	assert.Equal(t, 2, added)
	assert.Equal(t, 0, removed)
}

func TestWriteDiff_CollapsesUnchanged(t *testing.T) {
	var original, proposed strings.Builder
	for i := 0; i < 20; i++ {
		original.WriteString("line\n")
		proposed.WriteString("line\n")
	}
	proposed.WriteString("extra\n")

	var buf bytes.Buffer
	WriteDiff(&buf, "f.txt", LineDiff(original.String(), proposed.String()), false, 2)

	out := buf.String()
	assert.Contains(t, out, "--- f.txt")
	assert.Contains(t, out, "@@ 18 unchanged lines @@")
	assert.Contains(t, out, "+extra")
	assert.Contains(t, out, "1 insertion(s), 0 deletion(s)")
}

// ===== Editor Tests =====

func TestReview_Reject_LeavesFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.go")
	writeFile(t, path, "package main\n")

	var out bytes.Buffer
	confirm := &scriptedConfirmer{answers: []bool{false}}
	ed := New(Options{Confirmer: confirm, Out: &out, Backup: true})

	p, err := NewProposal(path, "package main\n\nfunc main() {}\n")
	require.NoError(t, err)

	outcome, err := ed.Review(p)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, outcome)
	assert.Equal(t, "package main\n", readFile(t, path))
	assert.NoFileExists(t, BackupPath(path))
	assert.Contains(t, out.String(), "No changes applied.")
	assert.Len(t, confirm.questions, 1)
}

func TestReview_Accept_WithBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.go")
	writeFile(t, path, "original\n")

	ed := New(Options{Confirmer: &scriptedConfirmer{answers: []bool{true}}, Out: &bytes.Buffer{}, Backup: true})
	p, err := NewProposal(path, "proposed\n")
	require.NoError(t, err)

	outcome, err := ed.Review(p)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, "proposed\n", readFile(t, path))
	assert.Equal(t, "original\n", readFile(t, BackupPath(path)))
}

func TestReview_Accept_WithoutBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.go")
	writeFile(t, path, "original\n")

	ed := New(Options{Confirmer: &scriptedConfirmer{answers: []bool{true}}, Out: &bytes.Buffer{}})
	p, err := NewProposal(path, "proposed\n")
	require.NoError(t, err)

	_, err = ed.Review(p)
	require.NoError(t, err)
	assert.NoFileExists(t, BackupPath(path))
}

func TestReview_PreservesMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.sh")
	writeFile(t, path, "echo a\n")
	require.NoError(t, os.Chmod(path, 0o755))

	ed := New(Options{Confirmer: &scriptedConfirmer{answers: []bool{true}}, Out: &bytes.Buffer{}})
	p, err := NewProposal(path, "echo b\n")
	require.NoError(t, err)
	_, err = ed.Review(p)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestReview_Unchanged_DoesNotAsk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	writeFile(t, path, "same\n")

	confirm := &scriptedConfirmer{}
	ed := New(Options{Confirmer: confirm, Out: &bytes.Buffer{}})
	p, err := NewProposal(path, "same\n")
	require.NoError(t, err)

	outcome, err := ed.Review(p)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, outcome)
	assert.Empty(t, confirm.questions)
}

func TestReview_NewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "new.txt")

	var out bytes.Buffer
	ed := New(Options{Confirmer: &scriptedConfirmer{answers: []bool{true}}, Out: &out, Backup: true})
	p, err := NewProposal(path, "hello\n")
	require.NoError(t, err)
	assert.False(t, p.Exists)

	outcome, err := ed.Review(p)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, "hello\n", readFile(t, path))
	assert.NoFileExists(t, BackupPath(path))
	assert.Contains(t, out.String(), "(new file)")
}

func TestReview_ConfirmError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	writeFile(t, path, "a\n")

	ed := New(Options{Confirmer: &scriptedConfirmer{err: errors.New("no tty")}, Out: &bytes.Buffer{}})
	p, err := NewProposal(path, "b\n")
	require.NoError(t, err)

	_, err = ed.Review(p)
	assert.Error(t, err)
	assert.Equal(t, "a\n", readFile(t, path))
}

func TestReviewBatch_SingleConfirmation(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	writeFile(t, a, "a\n")

	confirm := &scriptedConfirmer{answers: []bool{true}}
	ed := New(Options{Confirmer: confirm, Out: &bytes.Buffer{}, Backup: true})

	pa, err := NewProposal(a, "A\n")
	require.NoError(t, err)
	pb, err := NewProposal(b, "B\n")
	require.NoError(t, err)

	outcomes, err := ed.ReviewBatch([]*Proposal{pa, pb})
	require.NoError(t, err)
	assert.Equal(t, []Outcome{OutcomeApplied, OutcomeApplied}, outcomes)
	assert.Len(t, confirm.questions, 1)
	assert.Equal(t, "A\n", readFile(t, a))
	assert.Equal(t, "B\n", readFile(t, b))
	assert.Equal(t, "a\n", readFile(t, BackupPath(a)))
}

func TestApply_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	writeFile(t, blocker, "x")

	ed := New(Options{Out: &bytes.Buffer{}})
	err := ed.Apply(&Proposal{Path: filepath.Join(blocker, "child.txt"), Proposed: "y"})

	var applyErr *ApplyError
	require.True(t, errors.As(err, &applyErr))
	assert.Equal(t, "write", applyErr.Op)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "applied", OutcomeApplied.String())
	assert.Equal(t, "rejected", OutcomeRejected.String())
	assert.Equal(t, "unchanged", OutcomeUnchanged.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
}
