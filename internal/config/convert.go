package config

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/leonardotrapani/opentranscribe/internal/capture"
	"github.com/leonardotrapani/opentranscribe/internal/transcriber"
)

// EnvVarForProvider returns the environment variable holding a provider's key.
func EnvVarForProvider(provider string) string {
	switch provider {
	case transcriber.ProviderGemini:
		return "GEMINI_API_KEY"
	case transcriber.ProviderOpenAI:
		return "OPENAI_API_KEY"
	}
	return ""
}

// ResolveAPIKey prefers the config file and falls back to the environment.
func (c *Config) ResolveAPIKey(provider string) string {
	if c.Providers != nil {
		if pc, ok := c.Providers[provider]; ok && pc.APIKey != "" {
			return pc.APIKey
		}
	}
	if envVar := EnvVarForProvider(provider); envVar != "" {
		return os.Getenv(envVar)
	}
	return ""
}

func (c *Config) ToCaptureOptions(logger *zap.Logger) capture.Options {
	return capture.Options{
		TempDir:       c.Recording.TempDir,
		ChunkFrames:   c.Recording.ChunkFrames,
		DisableNative: c.Recording.Backend == BackendExternal,
		Logger:        logger,
	}
}

func (c *Config) ToTranscriberOptions(logger *zap.Logger) transcriber.Options {
	return transcriber.Options{
		MaxAttempts:   c.Transcription.MaxAttempts,
		RetryDelay:    c.Transcription.RetryDelay,
		DeleteTimeout: transcriber.DefaultDeleteTimeout,
		Logger:        logger,
	}
}

func (c *Config) ToServiceConfig() transcriber.ServiceConfig {
	provider := c.Transcription.Provider
	cfg := transcriber.ServiceConfig{
		Provider:  provider,
		APIKey:    c.ResolveAPIKey(provider),
		Model:     c.Transcription.Model,
		ChatModel: c.Transcription.ChatModel,
	}
	if pc, ok := c.Providers[provider]; ok {
		cfg.BaseURL = pc.BaseURL
	}
	return cfg
}

// HistoryPath returns the history database location.
func (c *Config) HistoryPath() (string, error) {
	if c.Output.HistoryPath != "" {
		return c.Output.HistoryPath, nil
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "opentranscribe", "history.db"), nil
}

// NewLogger builds the root logger from the [logging] section.
func (c *Config) NewLogger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Logging.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if c.Logging.Level != "" {
		level, err := zapcore.ParseLevel(c.Logging.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	return zc.Build()
}
