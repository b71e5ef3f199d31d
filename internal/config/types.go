package config

import "time"

type Config struct {
	Recording     RecordingConfig           `toml:"recording"`
	Transcription TranscriptionConfig       `toml:"transcription"`
	Providers     map[string]ProviderConfig `toml:"providers"`
	Notifications NotificationsConfig       `toml:"notifications"`
	Output        OutputConfig              `toml:"output"`
	Logging       LoggingConfig             `toml:"logging"`
}

type RecordingConfig struct {
	Backend     string        `toml:"backend"`      // "auto" or "external"
	ChunkFrames int           `toml:"chunk_frames"` // frames per native read
	TempDir     string        `toml:"temp_dir"`     // empty = system temp dir
	Timeout     time.Duration `toml:"timeout"`      // maximum recording duration, 0 = unlimited
}

type TranscriptionConfig struct {
	Provider        string        `toml:"provider"`
	Model           string        `toml:"model"`
	ChatModel       string        `toml:"chat_model"` // openai only: model that applies the prompt
	Languages       []string      `toml:"languages"`
	DefaultLanguage string        `toml:"default_language"`
	Prompt          string        `toml:"prompt"`
	MaxAttempts     int           `toml:"max_attempts"`
	RetryDelay      time.Duration `toml:"retry_delay"`
}

// ProviderConfig holds credentials for a provider
type ProviderConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

type NotificationsConfig struct {
	Enabled bool   `toml:"enabled"`
	Type    string `toml:"type"` // "desktop", "log", "none"
}

type OutputConfig struct {
	Clipboard   bool   `toml:"clipboard"`
	History     bool   `toml:"history"`
	HistoryPath string `toml:"history_path"` // empty = <UserCacheDir>/opentranscribe/history.db
}

type LoggingConfig struct {
	Level       string `toml:"level"` // "debug", "info", "warn", "error"
	Development bool   `toml:"development"`
}
