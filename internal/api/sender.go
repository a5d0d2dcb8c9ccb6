package api

import "context"

// Turn is one earlier prompt and the model's answer to it
type Turn struct {
	User  string `json:"user"`
	Model string `json:"model"`
}

// Request is everything a Sender needs for one attempt
type Request struct {
	Model       string
	Temperature float64
	MaxTokens   int
	// System carries the preamble and the rendered codebase context
	System  string
	History []Turn
	Prompt  string
}

// Usage represents token usage statistics
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Reply is a successful model response
type Reply struct {
	Text  string
	Usage Usage
}

// Sender performs one attempt against a model endpoint. Failures must be
// returned as *APIError (or wrap one) so the retry loop can classify them;
// anything else is treated as permanent.
type Sender interface {
	Send(ctx context.Context, req *Request) (*Reply, error)

	// Close releases any resources held by the sender
	Close() error
}

// Ensure both senders implement Sender
var _ Sender = (*GeminiSender)(nil)
var _ Sender = (*OpenAISender)(nil)
