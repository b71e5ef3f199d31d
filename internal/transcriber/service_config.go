package transcriber

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// ServiceConfig selects and configures a Service.
type ServiceConfig struct {
	Provider string
	APIKey   string
	Model    string
	// ChatModel is used by providers that apply the prompt in a second call.
	ChatModel string
	BaseURL   string
}

// NewService creates the Service for cfg.Provider.
func NewService(ctx context.Context, cfg ServiceConfig, logger *zap.Logger) (Service, error) {
	switch cfg.Provider {
	case ProviderGemini, "":
		return NewGeminiService(ctx, cfg, logger)
	case ProviderOpenAI:
		return NewOpenAIService(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}
