package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quocvuong92/zor/internal/config"
	"github.com/quocvuong92/zor/internal/constants"
	"github.com/quocvuong92/zor/internal/logging"
)

// Options configures a Client
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
	// HistoryTurns caps how many earlier turns are replayed; 0 sends none
	HistoryTurns int
	Policy       Policy
	// Timeout bounds each attempt, not the whole Send
	Timeout time.Duration
	Logger  *logging.Logger

	Sleep Sleeper
	Rand  func() float64
}

// OptionsFromConfig maps the effective configuration onto client options
func OptionsFromConfig(cfg *config.Config, logger *logging.Logger) Options {
	return Options{
		Model:        cfg.Model,
		Temperature:  cfg.Temperature,
		MaxTokens:    cfg.MaxTokens,
		HistoryTurns: cfg.HistorySize,
		Policy: Policy{
			MaxAttempts: cfg.RateLimitRetries,
			BaseDelay:   cfg.RetryBaseDelay,
			MaxDelay:    cfg.RetryMaxDelay,
			Jitter:      cfg.RetryJitter,
		},
		Timeout: cfg.RequestTimeout,
		Logger:  logger,
	}
}

// Prompt is what a command wants to ask
type Prompt struct {
	// Context is the rendered codebase bundle
	Context string
	History []Turn
	Text    string
	// Instructions are appended after the context in the system message
	Instructions string
}

// Result describes a finished Send. It is returned even when Send fails so
// callers can record how many attempts were made.
type Result struct {
	Text     string
	Usage    Usage
	Attempts int
	Retries  int
	Request  *Request
}

// Client sends prompts through a Sender with retry and per-attempt timeouts
type Client struct {
	sender  Sender
	opts    Options
	retrier *Retrier
	logger  *logging.Logger
}

// NewClient creates a new client around sender
func NewClient(sender Sender, opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = constants.DefaultAPITimeout
	}
	retrier := NewRetrier(opts.Policy, opts.Logger)
	if opts.Sleep != nil {
		retrier.Sleep = opts.Sleep
	}
	if opts.Rand != nil {
		retrier.Rand = opts.Rand
	}
	return &Client{
		sender:  sender,
		opts:    opts,
		retrier: retrier,
		logger:  opts.Logger,
	}
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.opts.Model
}

// SetModel switches the model for subsequent requests
func (c *Client) SetModel(model string) {
	c.opts.Model = model
}

// Close releases the underlying sender
func (c *Client) Close() error {
	return c.sender.Close()
}

// BuildRequest assembles the request sent for p
func (c *Client) BuildRequest(p Prompt) *Request {
	var system strings.Builder
	system.WriteString(constants.SystemPreamble)
	if p.Context != "" {
		system.WriteString("\n\n")
		system.WriteString(p.Context)
	}
	if p.Instructions != "" {
		system.WriteString("\n\n")
		system.WriteString(p.Instructions)
	}

	history := p.History
	if c.opts.HistoryTurns <= 0 {
		history = nil
	} else if len(history) > c.opts.HistoryTurns {
		history = history[len(history)-c.opts.HistoryTurns:]
	}

	return &Request{
		Model:       c.opts.Model,
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
		System:      system.String(),
		History:     history,
		Prompt:      p.Text,
	}
}

// Send delivers p to the model, retrying rate limits and transient failures
func (c *Client) Send(ctx context.Context, p Prompt) (*Result, error) {
	req := c.BuildRequest(p)
	result := &Result{Request: req}

	c.logger.Debug("Sending request", logging.Fields{
		"model":         req.Model,
		"system_bytes":  len(req.System),
		"history_turns": len(req.History),
		"prompt_bytes":  len(req.Prompt),
	})

	start := time.Now()
	reply, attempts, err := WithRetry(ctx, c.retrier, func(ctx context.Context) (*Reply, error) {
		return c.attempt(ctx, req)
	})
	result.Attempts = attempts
	if attempts > 0 {
		result.Retries = attempts - 1
	}
	if err != nil {
		c.logger.Error("Request failed", err, logging.Fields{
			"attempts": attempts,
			"kind":     KindOf(err).String(),
		})
		return result, err
	}

	result.Text = reply.Text
	result.Usage = reply.Usage
	c.logger.Debug("Received response", logging.Fields{
		"attempts":          attempts,
		"duration_ms":       time.Since(start).Milliseconds(),
		"prompt_tokens":     reply.Usage.PromptTokens,
		"completion_tokens": reply.Usage.CompletionTokens,
	})
	return result, nil
}

func (c *Client) attempt(ctx context.Context, req *Request) (*Reply, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	reply, err := c.sender.Send(attemptCtx, req)
	if err != nil {
		// The attempt's own deadline is a network timeout; the caller's is not
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &APIError{
				Kind:    KindTransient,
				Message: fmt.Sprintf("request timed out after %s", c.opts.Timeout),
				Err:     err,
			}
		}
		return nil, err
	}
	if reply == nil {
		return nil, &APIError{Kind: KindPermanent, Message: "empty response from model"}
	}
	return reply, nil
}
