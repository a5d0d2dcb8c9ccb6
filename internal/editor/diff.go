package editor

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineOp is the role of a line in a diff
type LineOp int

const (
	LineEqual LineOp = iota
	LineInsert
	LineDelete
)

// DiffLine is one line of a line-level diff, without its trailing newline
type DiffLine struct {
	Op   LineOp
	Text string
}

// Prefix returns the marker printed in front of the line
func (l DiffLine) Prefix() string {
	switch l.Op {
	case LineInsert:
		return "+"
	case LineDelete:
		return "-"
	default:
		return " "
	}
}

// LineDiff computes a line-level diff between original and proposed
func LineDiff(original, proposed string) []DiffLine {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(original, proposed)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	var out []DiffLine
	for _, d := range diffs {
		op := LineEqual
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = LineInsert
		case diffmatchpatch.DiffDelete:
			op = LineDelete
		}
		for _, line := range splitLines(d.Text) {
			out = append(out, DiffLine{Op: op, Text: line})
		}
	}
	return out
}

// Stats counts inserted and deleted lines
func Stats(lines []DiffLine) (added, removed int) {
	for _, l := range lines {
		switch l.Op {
		case LineInsert:
			added++
		case LineDelete:
			removed++
		}
	}
	return added, removed
}

// HasChanges reports whether the diff contains any insert or delete
func HasChanges(lines []DiffLine) bool {
	added, removed := Stats(lines)
	return added+removed > 0
}

// WriteDiff prints a colored diff for path. Unchanged lines more than
// context lines away from a change are collapsed.
func WriteDiff(w io.Writer, path string, lines []DiffLine, isNew bool, context int) {
	header := color.New(color.FgCyan, color.Bold)
	add := color.New(color.FgGreen)
	del := color.New(color.FgRed)
	faint := color.New(color.Faint)

	if isNew {
		header.Fprintf(w, "--- /dev/null\n+++ %s (new file)\n", path)
	} else {
		header.Fprintf(w, "--- %s\n+++ %s\n", path, path)
	}

	keep := visibleLines(lines, context)
	skipped := 0
	for i, l := range lines {
		if !keep[i] {
			skipped++
			continue
		}
		if skipped > 0 {
			faint.Fprintf(w, "@@ %d unchanged lines @@\n", skipped)
			skipped = 0
		}
		switch l.Op {
		case LineInsert:
			add.Fprintf(w, "+%s\n", l.Text)
		case LineDelete:
			del.Fprintf(w, "-%s\n", l.Text)
		default:
			fmt.Fprintf(w, " %s\n", l.Text)
		}
	}
	if skipped > 0 {
		faint.Fprintf(w, "@@ %d unchanged lines @@\n", skipped)
	}

	added, removed := Stats(lines)
	faint.Fprintf(w, "%d insertion(s), %d deletion(s)\n", added, removed)
}

func visibleLines(lines []DiffLine, context int) []bool {
	keep := make([]bool, len(lines))
	if context < 0 {
		for i := range keep {
			keep[i] = true
		}
		return keep
	}
	for i, l := range lines {
		if l.Op == LineEqual {
			continue
		}
		lo, hi := i-context, i+context
		if lo < 0 {
			lo = 0
		}
		if hi >= len(lines) {
			hi = len(lines) - 1
		}
		for j := lo; j <= hi; j++ {
			keep[j] = true
		}
	}
	return keep
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
