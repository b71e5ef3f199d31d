package config

import (
	"time"

	"github.com/leonardotrapani/opentranscribe/internal/capture"
	"github.com/leonardotrapani/opentranscribe/internal/language"
	"github.com/leonardotrapani/opentranscribe/internal/transcriber"
)

const (
	BackendAuto     = "auto"
	BackendExternal = "external"
)

// DefaultConfig returns the configuration used when no file exists yet.
func DefaultConfig() *Config {
	return &Config{
		Recording: RecordingConfig{
			Backend:     BackendAuto,
			ChunkFrames: capture.DefaultChunkFrames,
			Timeout:     10 * time.Minute,
		},
		Transcription: TranscriptionConfig{
			Provider:        transcriber.ProviderGemini,
			Model:           transcriber.DefaultGeminiModel,
			Languages:       []string{language.Default},
			DefaultLanguage: language.Default,
			Prompt:          transcriber.DefaultPrompt().Name,
			MaxAttempts:     transcriber.DefaultMaxAttempts,
			RetryDelay:      transcriber.DefaultRetryDelay,
		},
		Providers: make(map[string]ProviderConfig),
		Notifications: NotificationsConfig{
			Enabled: true,
			Type:    "desktop",
		},
		Output: OutputConfig{
			Clipboard: true,
			History:   true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
