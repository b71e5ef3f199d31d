package config

import (
	"fmt"

	"go.uber.org/zap/zapcore"

	"github.com/leonardotrapani/opentranscribe/internal/language"
	"github.com/leonardotrapani/opentranscribe/internal/transcriber"
)

// Validate checks every setting except credentials. See ValidateCredentials.
func (c *Config) Validate() error {
	switch c.Recording.Backend {
	case BackendAuto, BackendExternal:
	default:
		return fmt.Errorf("invalid recording.backend: %q (must be auto or external)", c.Recording.Backend)
	}
	if c.Recording.ChunkFrames <= 0 {
		return fmt.Errorf("invalid recording.chunk_frames: %d", c.Recording.ChunkFrames)
	}
	if c.Recording.Timeout < 0 {
		return fmt.Errorf("invalid recording.timeout: %v", c.Recording.Timeout)
	}

	switch c.Transcription.Provider {
	case transcriber.ProviderGemini, transcriber.ProviderOpenAI:
	case "":
		return fmt.Errorf("invalid transcription.provider: empty")
	default:
		return fmt.Errorf("invalid transcription.provider: %s (must be gemini or openai)", c.Transcription.Provider)
	}

	for _, name := range c.Transcription.Languages {
		if !language.IsValid(name) {
			return fmt.Errorf("invalid transcription.languages entry: %q", name)
		}
	}
	if c.Transcription.DefaultLanguage != "" && !language.IsValid(c.Transcription.DefaultLanguage) {
		return fmt.Errorf("invalid transcription.default_language: %q", c.Transcription.DefaultLanguage)
	}
	if _, ok := transcriber.LookupPrompt(c.Transcription.Prompt); !ok {
		return fmt.Errorf("invalid transcription.prompt: %q (available: %v)", c.Transcription.Prompt, transcriber.PromptNames())
	}
	if c.Transcription.MaxAttempts < 1 {
		return fmt.Errorf("invalid transcription.max_attempts: %d", c.Transcription.MaxAttempts)
	}
	if c.Transcription.RetryDelay < 0 {
		return fmt.Errorf("invalid transcription.retry_delay: %v", c.Transcription.RetryDelay)
	}

	validTypes := map[string]bool{"desktop": true, "log": true, "none": true}
	if !validTypes[c.Notifications.Type] {
		return fmt.Errorf("invalid notifications.type: %s (must be desktop, log, or none)", c.Notifications.Type)
	}

	if c.Logging.Level != "" {
		if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
			return fmt.Errorf("invalid logging.level: %w", err)
		}
	}

	return nil
}

// ValidateCredentials checks that the selected provider has an API key.
func (c *Config) ValidateCredentials() error {
	if c.ResolveAPIKey(c.Transcription.Provider) != "" {
		return nil
	}
	return fmt.Errorf("%s API key required: not found in config (providers.%s.api_key) or environment variable (%s)",
		c.Transcription.Provider, c.Transcription.Provider, EnvVarForProvider(c.Transcription.Provider))
}
