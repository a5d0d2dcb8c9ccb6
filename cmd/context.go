package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/quocvuong92/zor/internal/api"
	"github.com/quocvuong92/zor/internal/display"
	"github.com/quocvuong92/zor/internal/history"
	"github.com/quocvuong92/zor/internal/logging"
	"github.com/quocvuong92/zor/internal/scanner"
)

// loadContext scans the project root with the configured limits and reports
// what was left out
func (app *App) loadContext() (*scanner.Bundle, error) {
	bundle, err := scanner.Scan(app.cfg.ProjectRoot, scanner.Options{
		ExcludeDirs:  app.cfg.ExcludeDirs,
		ExcludeFiles: app.cfg.ExcludeFiles,
		MaxBytes:     app.cfg.ContextMaxBytes,
		MaxFileBytes: app.cfg.MaxFileBytes,
		Logger:       app.logger,
	})
	if err != nil {
		return nil, err
	}

	for _, w := range bundle.Warnings {
		display.ShowWarning(w.String())
	}
	for _, o := range bundle.Omitted {
		app.logger.Warn("File left out of context", logging.Fields{
			"path":   o.Path,
			"size":   o.Size,
			"reason": string(o.Reason),
		})
	}

	s := bundle.Summary()
	app.logger.Debug("Context loaded", logging.Fields{
		"files":            s.Files,
		"bytes":            s.Bytes,
		"omitted":          s.Omitted,
		"estimated_tokens": bundle.EstimatedTokens(),
	})
	display.ShowContextSummary(s.Files, s.Bytes, s.Omitted)
	return bundle, nil
}

// newClient builds the model client for the current configuration
func (app *App) newClient(ctx context.Context) (*api.Client, error) {
	sender, err := app.newSender(ctx, app.cfg, app.logger)
	if err != nil {
		return nil, err
	}
	opts := api.OptionsFromConfig(app.cfg, app.logger)
	if app.sleep != nil {
		opts.Sleep = app.sleep
	}
	return api.NewClient(sender, opts), nil
}

// exchange sends p while a spinner runs and records the outcome in history.
// recorded is the prompt text kept in the log, usually what the user typed.
func (app *App) exchange(ctx context.Context, client *api.Client, command, recorded string, bundle *scanner.Bundle, p api.Prompt) (*api.Result, error) {
	sp := display.NewSpinner("Thinking...")
	sp.Start()
	res, err := client.Send(ctx, p)
	sp.Stop()

	ex := history.NewExchange(command, recorded, client.Model(), bundle.Summary())
	if err != nil {
		ex.Fail(err, res.Attempts)
	} else {
		ex.Succeed(res.Text, res.Attempts)
	}
	app.record(ctx, ex)

	if res.Retries > 0 {
		app.logger.Info("Request needed retries", logging.Fields{"retries": res.Retries, "attempts": res.Attempts})
	}
	return res, err
}

// record appends ex to the history log. Failures are logged, never fatal.
func (app *App) record(ctx context.Context, ex *history.Exchange) {
	// an interrupted command is still worth recording
	ctx = context.WithoutCancel(ctx)

	store, err := app.openHistory(app.cfg, app.logger)
	if err != nil {
		app.logger.Warn("History unavailable", logging.Fields{"error": err.Error()})
		return
	}
	defer store.Close()

	if err := store.Append(ctx, ex); err != nil {
		app.logger.Warn("Failed to record exchange", logging.Fields{"error": err.Error(), "id": ex.ID})
	}
}

// recentTurns returns up to n successful exchanges from history as prior
// conversation turns, oldest first
func (app *App) recentTurns(ctx context.Context, n int) ([]api.Turn, error) {
	if n <= 0 {
		return nil, nil
	}
	store, err := app.openHistory(app.cfg, app.logger)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	recent, err := store.Recent(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	turns := make([]api.Turn, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		if recent[i].Failed {
			continue
		}
		turns = append(turns, api.Turn{User: recent[i].Prompt, Model: recent[i].Response})
	}
	return turns, nil
}

// relative shows path relative to the project root when it lies inside it
func (app *App) relative(path string) string {
	rel, err := filepath.Rel(app.cfg.ProjectRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

// truncateRunes cuts s to at most n runes
func truncateRunes(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n])
}
