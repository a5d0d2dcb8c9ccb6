package api

import (
	"context"
	"fmt"

	"github.com/quocvuong92/zor/internal/config"
	"github.com/quocvuong92/zor/internal/logging"
)

// NewSender creates the sender for the configured provider. The API key must
// already be resolved.
func NewSender(ctx context.Context, cfg *config.Config, logger *logging.Logger) (Sender, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case "gemini":
		return NewGeminiSender(ctx, cfg.APIKey, logger)
	case "openai":
		return NewOpenAISender(cfg.APIBaseURL, cfg.APIKey, logger), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}
