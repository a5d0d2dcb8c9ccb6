package api

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClassifyGeminiError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"REST 429", &googleapi.Error{Code: 429, Message: "Resource exhausted"}, KindRateLimited},
		{"REST 503", &googleapi.Error{Code: 503}, KindTransient},
		{"REST bad key", &googleapi.Error{Code: 400, Message: "API key not valid"}, KindAuth},
		{"REST 403", &googleapi.Error{Code: 403}, KindAuth},
		{"gRPC exhausted", status.Error(codes.ResourceExhausted, "quota"), KindRateLimited},
		{"gRPC unavailable", status.Error(codes.Unavailable, "down"), KindTransient},
		{"gRPC bad key", status.Error(codes.InvalidArgument, "API key not valid. Please pass a valid API key."), KindAuth},
		{"gRPC invalid", status.Error(codes.InvalidArgument, "empty contents"), KindInvalidRequest},
		{"gRPC unauthenticated", status.Error(codes.Unauthenticated, "no"), KindAuth},
		{"deadline", context.DeadlineExceeded, KindTransient},
		{"blocked", &genai.BlockedError{}, KindInvalidRequest},
		{"other", errors.New("weird"), KindPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KindOf(classifyGeminiError(context.Background(), tt.err))
			if got != tt.want {
				t.Errorf("classifyGeminiError(%v) kind = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassifyGeminiError_CanceledPassesThrough(t *testing.T) {
	err := classifyGeminiError(context.Background(), context.Canceled)
	if !errors.Is(err, context.Canceled) || KindOf(err) != KindCanceled {
		t.Errorf("classifyGeminiError(Canceled) = %v, want context.Canceled", err)
	}
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("hello "), genai.Text("world")}},
		}},
	}
	if got := responseText(resp); got != "hello world" {
		t.Errorf("responseText() = %q, want %q", got, "hello world")
	}
	if got := responseText(&genai.GenerateContentResponse{}); got != "" {
		t.Errorf("responseText(empty) = %q, want empty", got)
	}
	if got := responseText(nil); got != "" {
		t.Errorf("responseText(nil) = %q, want empty", got)
	}
}
