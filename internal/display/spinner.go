package display

import (
	"time"

	"github.com/briandowns/spinner"
)

// Spinner shows progress while waiting on the model
type Spinner struct {
	s *spinner.Spinner
}

// NewSpinner creates a spinner with message, written to stderr
func NewSpinner(message string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(Stderr))
	s.Suffix = " " + message
	return &Spinner{s: s}
}

// Start begins the animation
func (sp *Spinner) Start() {
	sp.s.Start()
}

// Stop ends the animation and clears the line
func (sp *Spinner) Stop() {
	sp.s.Stop()
}
