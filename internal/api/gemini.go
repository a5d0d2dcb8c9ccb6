package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/quocvuong92/zor/internal/logging"
)

// GeminiSender talks to Google's Gemini models through the genai SDK
type GeminiSender struct {
	client *genai.Client
	logger *logging.Logger
}

// NewGeminiSender creates a sender authenticated with apiKey
func NewGeminiSender(ctx context.Context, apiKey string, logger *logging.Logger) (*GeminiSender, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiSender{client: client, logger: logger}, nil
}

// Send performs one generateContent call
func (g *GeminiSender) Send(ctx context.Context, req *Request) (*Reply, error) {
	model := g.client.GenerativeModel(req.Model)
	model.SetTemperature(float32(req.Temperature))
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}

	cs := model.StartChat()
	cs.History = make([]*genai.Content, 0, len(req.History)*2)
	for _, turn := range req.History {
		cs.History = append(cs.History,
			&genai.Content{Role: "user", Parts: []genai.Part{genai.Text(turn.User)}},
			&genai.Content{Role: "model", Parts: []genai.Part{genai.Text(turn.Model)}},
		)
	}

	resp, err := cs.SendMessage(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, classifyGeminiError(ctx, err)
	}

	text := responseText(resp)
	if text == "" {
		return nil, &APIError{Kind: KindPermanent, Message: "no candidates in Gemini response"}
	}

	reply := &Reply{Text: text}
	if resp.UsageMetadata != nil {
		reply.Usage = Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return reply, nil
}

// Close releases the underlying client connection
func (g *GeminiSender) Close() error {
	return g.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}

// classifyGeminiError maps SDK errors (REST or gRPC) onto APIError kinds
func classifyGeminiError(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) || ctx.Err() == context.Canceled {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &APIError{Kind: KindTransient, Message: "Gemini request timed out", Err: err}
	}

	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &APIError{Kind: KindInvalidRequest, Message: "Gemini blocked the request", Err: err}
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return &APIError{
			Kind:       ClassifyStatus(gErr.Code, gErr.Message),
			StatusCode: gErr.Code,
			Message:    "Gemini API error",
			Err:        err,
		}
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		return &APIError{Kind: grpcKind(st.Code(), st.Message()), Message: "Gemini API error", Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &APIError{Kind: KindTransient, Message: "Gemini network error", Err: err}
	}

	return &APIError{Kind: KindPermanent, Message: "Gemini request failed", Err: err}
}

func grpcKind(code codes.Code, message string) ErrorKind {
	switch code {
	case codes.ResourceExhausted:
		return KindRateLimited
	case codes.Unavailable, codes.DeadlineExceeded, codes.Internal, codes.Aborted:
		return KindTransient
	case codes.Unauthenticated, codes.PermissionDenied:
		return KindAuth
	case codes.InvalidArgument:
		if mentionsAPIKey(message) {
			return KindAuth
		}
		return KindInvalidRequest
	case codes.Canceled:
		return KindCanceled
	default:
		return KindPermanent
	}
}
