package display

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	color.NoColor = true
	var out, errOut bytes.Buffer
	oldOut, oldErr := Stdout, Stderr
	Stdout, Stderr = &out, &errOut
	t.Cleanup(func() { Stdout, Stderr = oldOut, oldErr })
	return &out, &errOut
}

func TestMessages(t *testing.T) {
	out, errOut := captureOutput(t)

	ShowError("boom")
	ShowWarning("careful")
	ShowSuccess("done")
	ShowInfo("fyi")

	assert.Equal(t, "Error: boom\nWarning: careful\n", errOut.String())
	assert.Equal(t, "done\nfyi\n", out.String())
}

func TestShowContextSummary(t *testing.T) {
	_, errOut := captureOutput(t)

	ShowContextSummary(3, 120, 0)
	ShowContextSummary(3, 120, 2)

	assert.Equal(t, "Context: 3 files, 120 bytes\nContext: 3 files, 120 bytes, 2 omitted\n", errOut.String())
}

func TestTerminalConfirmer(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		defaultYes bool
		want       bool
		wantErr    bool
	}{
		{"yes", "y\n", false, true, false},
		{"full yes", "YES\n", false, true, false},
		{"no", "n\n", false, false, false},
		{"empty default no", "\n", false, false, false},
		{"empty default yes", "\n", true, true, false},
		{"garbage", "maybe\n", true, false, false},
		{"no trailing newline", "y", false, true, false},
		{"eof", "", false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			c := NewTerminalConfirmer(strings.NewReader(tt.input), &out)
			c.DefaultYes = tt.defaultYes

			got, err := c.Confirm("Apply?")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Confirm() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Confirm() = %v, want %v", got, tt.want)
			}
			assert.Contains(t, out.String(), "Apply?")
		})
	}
}

func TestTerminalConfirmer_Prompt(t *testing.T) {
	var out bytes.Buffer
	c := NewTerminalConfirmer(strings.NewReader("\ncustom\n"), &out)

	got, err := c.Prompt("Directory", "my-app")
	require.NoError(t, err)
	assert.Equal(t, "my-app", got)

	got, err = c.Prompt("Directory", "my-app")
	require.NoError(t, err)
	assert.Equal(t, "custom", got)

	_, err = c.Prompt("Directory", "")
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"line one\nline two", 50, "line one line two"},
		{"abcdefghijkl", 10, "abcdefg..."},
		{"héllo wörld!", 8, "héllo..."},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestHistoryTable(t *testing.T) {
	rows := []HistoryRow{
		{Time: time.Now(), Command: "ask", Status: "ok", Prompt: "what does this do?", Response: strings.Repeat("x", 80)},
		{Time: time.Now(), Command: "edit", Status: "failed", Prompt: "fix", Response: ""},
	}

	out := HistoryTable(rows)
	assert.Contains(t, out, "Command")
	assert.Contains(t, out, "what does this do?")
	assert.Contains(t, out, strings.Repeat("x", 47)+"...")
	assert.NotContains(t, out, strings.Repeat("x", 48))
	assert.Contains(t, out, "failed")
}

func TestShowHistory_Empty(t *testing.T) {
	out, _ := captureOutput(t)
	ShowHistory(nil)
	assert.Equal(t, "No history yet.\n", out.String())
}

func TestRenderMarkdown_FallsBackWithoutRenderer(t *testing.T) {
	rendererMu.Lock()
	saved := renderer
	renderer = nil
	rendererMu.Unlock()
	t.Cleanup(func() {
		rendererMu.Lock()
		renderer = saved
		rendererMu.Unlock()
	})

	assert.Equal(t, "# Title", RenderMarkdown("# Title"))
}

func TestShowKeyValues(t *testing.T) {
	out, _ := captureOutput(t)
	ShowKeyValues([][2]string{{"Model:", "gemini-2.0-flash"}, {"Provider:", "gemini"}})
	assert.Equal(t, "Model:     gemini-2.0-flash\nProvider:  gemini\n", out.String())
}
