package display

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/glamour"
)

var (
	renderer   *glamour.TermRenderer
	rendererMu sync.Mutex
)

// InitRenderer prepares the markdown renderer
func InitRenderer() error {
	rendererMu.Lock()
	defer rendererMu.Unlock()
	if renderer != nil {
		return nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	renderer = r
	return nil
}

// RenderMarkdown renders md, falling back to the raw text on failure
func RenderMarkdown(md string) string {
	rendererMu.Lock()
	r := renderer
	rendererMu.Unlock()
	if r == nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
