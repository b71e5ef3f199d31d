package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/leonardotrapani/opentranscribe/internal/config"
	"github.com/leonardotrapani/opentranscribe/internal/transcriber"
)

// TranscriberFactory builds the transcriber for one session from the
// current settings.
type TranscriberFactory func(ctx context.Context, cfg *config.Config) (Transcriber, error)

// NewTranscriberFactory returns the factory that talks to the configured
// provider.
func NewTranscriberFactory(logger *zap.Logger) TranscriberFactory {
	return func(ctx context.Context, cfg *config.Config) (Transcriber, error) {
		if err := cfg.ValidateCredentials(); err != nil {
			return nil, err
		}
		svc, err := transcriber.NewService(ctx, cfg.ToServiceConfig(), logger)
		if err != nil {
			return nil, err
		}
		return transcriber.New(svc, cfg.ToTranscriberOptions(logger)), nil
	}
}

// ConfigFrom maps the [transcription] and [recording] settings onto a
// session Config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Languages:       append([]string(nil), cfg.Transcription.Languages...),
		DefaultLanguage: cfg.Transcription.DefaultLanguage,
		Prompt:          cfg.Transcription.Prompt,
		MaxDuration:     cfg.Recording.Timeout,
	}
}
