package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/quocvuong92/zor/internal/constants"
	"github.com/quocvuong92/zor/internal/logging"
)

// Message represents a chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents the Chat Completions API request
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Choice represents a response choice
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// ChatResponse represents the API response
type ChatResponse struct {
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// ErrorResponse is the error envelope of OpenAI-compatible endpoints
type ErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// OpenAISender talks to any OpenAI-compatible chat completions endpoint
type OpenAISender struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *logging.Logger
}

// NewOpenAISender creates a sender for baseURL. Request and response bodies
// are logged when the logger is at debug level.
func NewOpenAISender(baseURL, apiKey string, logger *logging.Logger) *OpenAISender {
	if logger == nil {
		logger = logging.Nop()
	}
	if baseURL == "" {
		baseURL = constants.DefaultOpenAIURL
	}

	transport := http.DefaultTransport
	if logger.Enabled(logging.LevelDebug) {
		transport = logging.NewLoggingRoundTripper(http.DefaultTransport, logging.NewHTTPLogger(logger), true)
	}

	return &OpenAISender{
		httpClient: &http.Client{Transport: transport},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger,
	}
}

// Messages converts req into the chat message list
func Messages(req *Request) []Message {
	messages := make([]Message, 0, 2+2*len(req.History))
	if req.System != "" {
		messages = append(messages, Message{Role: "system", Content: req.System})
	}
	for _, turn := range req.History {
		messages = append(messages,
			Message{Role: "user", Content: turn.User},
			Message{Role: "assistant", Content: turn.Model},
		)
	}
	return append(messages, Message{Role: "user", Content: req.Prompt})
}

// Send performs one chat completions call
func (c *OpenAISender) Send(ctx context.Context, req *Request) (*Reply, error) {
	reqBody := ChatRequest{
		Model:       req.Model,
		Messages:    Messages(req),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, &APIError{Kind: KindTransient, Message: "failed to send request", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Kind: KindTransient, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		errMsg := fmt.Sprintf("status code %d", resp.StatusCode)
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
			errMsg = errResp.Error.Message
		}
		return nil, &APIError{
			Kind:       ClassifyStatus(resp.StatusCode, errMsg),
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("OpenAI API error: %s", errMsg),
		}
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, &APIError{Kind: KindPermanent, Message: "failed to parse response", Err: err}
	}
	if len(chatResp.Choices) == 0 {
		return nil, &APIError{Kind: KindPermanent, Message: "no choices in response"}
	}

	return &Reply{Text: chatResp.Choices[0].Message.Content, Usage: chatResp.Usage}, nil
}

// Close is a no-op as the sender holds no resources
func (c *OpenAISender) Close() error {
	return nil
}
