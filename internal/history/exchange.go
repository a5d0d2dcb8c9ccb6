package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/quocvuong92/zor/internal/scanner"
)

// Exchange is one prompt sent to the model and what came back
type Exchange struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Command   string          `json:"command"`
	Prompt    string          `json:"prompt"`
	Context   scanner.Summary `json:"context"`
	Response  string          `json:"response"`
	Model     string          `json:"model"`
	Attempts  int             `json:"attempts"`
	Failed    bool            `json:"failed"`
	Error     string          `json:"error,omitempty"`
}

// NewExchange starts a record for command with a fresh id and timestamp
func NewExchange(command, prompt, model string, ctx scanner.Summary) *Exchange {
	return &Exchange{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Command:   command,
		Prompt:    prompt,
		Context:   ctx,
		Model:     model,
	}
}

// Succeed stores the model's response
func (e *Exchange) Succeed(response string, attempts int) {
	e.Response = response
	e.Attempts = attempts
	e.Failed = false
	e.Error = ""
}

// Fail tags the exchange as failed
func (e *Exchange) Fail(err error, attempts int) {
	e.Attempts = attempts
	e.Failed = true
	if err != nil {
		e.Error = err.Error()
	}
}

// Status is "ok" or "failed"
func (e *Exchange) Status() string {
	if e.Failed {
		return "failed"
	}
	return "ok"
}

func prepare(e *Exchange) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
}
