package config

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

// createTestConfig returns a valid configuration for testing
func createTestConfig() *Config {
	config := DefaultConfig()
	config.Providers["gemini"] = ProviderConfig{APIKey: "test-api-key"}
	return config
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "openai provider", mutate: func(c *Config) { c.Transcription.Provider = "openai" }},
		{name: "no languages", mutate: func(c *Config) { c.Transcription.Languages = nil }},
		{name: "unlimited timeout", mutate: func(c *Config) { c.Recording.Timeout = 0 }},
		{name: "external backend", mutate: func(c *Config) { c.Recording.Backend = "external" }},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Recording.Backend = "jack" },
			wantErr: "recording.backend",
		},
		{
			name:    "zero chunk frames",
			mutate:  func(c *Config) { c.Recording.ChunkFrames = 0 },
			wantErr: "recording.chunk_frames",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Recording.Timeout = -time.Second },
			wantErr: "recording.timeout",
		},
		{
			name:    "empty provider",
			mutate:  func(c *Config) { c.Transcription.Provider = "" },
			wantErr: "transcription.provider: empty",
		},
		{
			name:    "unsupported provider",
			mutate:  func(c *Config) { c.Transcription.Provider = "deepgram" },
			wantErr: "must be gemini or openai",
		},
		{
			name:    "unknown language",
			mutate:  func(c *Config) { c.Transcription.Languages = []string{"English", "Elvish"} },
			wantErr: "Elvish",
		},
		{
			name:    "unknown default language",
			mutate:  func(c *Config) { c.Transcription.DefaultLanguage = "Dothraki" },
			wantErr: "default_language",
		},
		{
			name:    "unknown prompt",
			mutate:  func(c *Config) { c.Transcription.Prompt = "Summarize" },
			wantErr: "transcription.prompt",
		},
		{
			name:    "zero attempts",
			mutate:  func(c *Config) { c.Transcription.MaxAttempts = 0 },
			wantErr: "max_attempts",
		},
		{
			name:    "negative retry delay",
			mutate:  func(c *Config) { c.Transcription.RetryDelay = -time.Second },
			wantErr: "retry_delay",
		},
		{
			name:    "invalid notification type",
			mutate:  func(c *Config) { c.Notifications.Type = "email" },
			wantErr: "notifications.type",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := createTestConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateCredentials(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	config := DefaultConfig()
	if err := config.ValidateCredentials(); err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Errorf("ValidateCredentials() error = %v, want missing key error", err)
	}

	t.Setenv("GEMINI_API_KEY", "env-key")
	if err := config.ValidateCredentials(); err != nil {
		t.Errorf("ValidateCredentials() with env key: %v", err)
	}

	config.Transcription.Provider = "openai"
	if err := config.ValidateCredentials(); err == nil {
		t.Error("ValidateCredentials() accepted openai without a key")
	}
	config.Providers["openai"] = ProviderConfig{APIKey: "file-key"}
	if err := config.ValidateCredentials(); err != nil {
		t.Errorf("ValidateCredentials() with file key: %v", err)
	}
}

func TestConfig_ResolveAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-gemini")
	t.Setenv("OPENAI_API_KEY", "env-openai")

	config := DefaultConfig()
	if got := config.ResolveAPIKey("gemini"); got != "env-gemini" {
		t.Errorf("env fallback = %q", got)
	}

	config.Providers["gemini"] = ProviderConfig{APIKey: "file-gemini"}
	if got := config.ResolveAPIKey("gemini"); got != "file-gemini" {
		t.Errorf("file key should win, got %q", got)
	}
	if got := config.ResolveAPIKey("openai"); got != "env-openai" {
		t.Errorf("openai = %q", got)
	}
	if got := config.ResolveAPIKey("unknown"); got != "" {
		t.Errorf("unknown provider = %q", got)
	}
}

func TestConfig_Load(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())

		config, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if !reflect.DeepEqual(config, DefaultConfig()) {
			t.Errorf("Load() = %+v, want defaults", config)
		}
	})

	t.Run("partial file keeps other defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := `
[transcription]
  provider = "openai"
  languages = ["Spanish", "French"]
  retry_delay = "500ms"

[providers.openai]
  api_key = "sk-test"

[recording]
  timeout = "2m"
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		config, err := LoadFrom(path)
		if err != nil {
			t.Fatalf("LoadFrom() error = %v", err)
		}
		if config.Transcription.Provider != "openai" {
			t.Errorf("Provider = %q", config.Transcription.Provider)
		}
		if !reflect.DeepEqual(config.Transcription.Languages, []string{"Spanish", "French"}) {
			t.Errorf("Languages = %v", config.Transcription.Languages)
		}
		if config.Transcription.RetryDelay != 500*time.Millisecond {
			t.Errorf("RetryDelay = %v", config.Transcription.RetryDelay)
		}
		if config.Recording.Timeout != 2*time.Minute {
			t.Errorf("Timeout = %v", config.Recording.Timeout)
		}
		if config.Transcription.MaxAttempts != 3 {
			t.Errorf("MaxAttempts default lost: %d", config.Transcription.MaxAttempts)
		}
		if config.Providers["openai"].APIKey != "sk-test" {
			t.Errorf("providers.openai.api_key = %q", config.Providers["openai"].APIKey)
		}
		if config.Notifications.Type != "desktop" {
			t.Errorf("Notifications.Type default lost: %q", config.Notifications.Type)
		}
	})

	t.Run("languages default when key absent", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[output]\n  clipboard = false\n"), 0600); err != nil {
			t.Fatal(err)
		}
		config, err := LoadFrom(path)
		if err != nil {
			t.Fatalf("LoadFrom() error = %v", err)
		}
		if !reflect.DeepEqual(config.Transcription.Languages, []string{"English"}) {
			t.Errorf("Languages = %v", config.Transcription.Languages)
		}
		if config.Output.Clipboard {
			t.Error("Output.Clipboard should be false")
		}
	})
}

func TestConfig_Load_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[transcription\nprovider = "), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom() expected parse error")
	}
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	config := createTestConfig()
	config.Transcription.Languages = []string{"German", "Japanese"}
	config.Transcription.Prompt = "Transcribe and Plan"
	config.Transcription.RetryDelay = 3 * time.Second
	config.Notifications.Type = "log"

	if err := Save(config); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	path, err := GetConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Save() did not create config file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config permissions = %v, want 0600", perm)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(loaded, config) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, config)
	}
	if err := loaded.Validate(); err != nil {
		t.Errorf("saved config is invalid: %v", err)
	}
}

func TestGetConfigPath(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tempDir)

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if want := filepath.Join(tempDir, "opentranscribe", "config.toml"); path != want {
		t.Errorf("GetConfigPath() = %q, want %q", path, want)
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("config directory not created: %v", err)
	}
}

func TestConfig_ConversionMethods(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	config := createTestConfig()
	config.Recording.Backend = BackendExternal
	config.Recording.TempDir = "/var/tmp"
	config.Providers["gemini"] = ProviderConfig{APIKey: "k", BaseURL: "http://localhost:9999"}
	logger := zaptest.NewLogger(t)

	t.Run("ToCaptureOptions", func(t *testing.T) {
		opts := config.ToCaptureOptions(logger)
		if !opts.DisableNative {
			t.Error("external backend should disable native capture")
		}
		if opts.TempDir != "/var/tmp" || opts.ChunkFrames != config.Recording.ChunkFrames {
			t.Errorf("opts = %+v", opts)
		}
	})

	t.Run("ToTranscriberOptions", func(t *testing.T) {
		opts := config.ToTranscriberOptions(logger)
		if opts.MaxAttempts != 3 || opts.RetryDelay != 2*time.Second {
			t.Errorf("opts = %+v", opts)
		}
	})

	t.Run("ToServiceConfig", func(t *testing.T) {
		sc := config.ToServiceConfig()
		if sc.Provider != "gemini" || sc.APIKey != "k" || sc.BaseURL != "http://localhost:9999" {
			t.Errorf("service config = %+v", sc)
		}
		if sc.Model != config.Transcription.Model {
			t.Errorf("Model = %q", sc.Model)
		}
	})
}

func TestConfig_HistoryPath(t *testing.T) {
	config := DefaultConfig()
	config.Output.HistoryPath = "/data/history.db"
	if got, _ := config.HistoryPath(); got != "/data/history.db" {
		t.Errorf("HistoryPath() = %q", got)
	}

	t.Setenv("XDG_CACHE_HOME", "/cache")
	config.Output.HistoryPath = ""
	got, err := config.HistoryPath()
	if err != nil {
		t.Fatalf("HistoryPath() error = %v", err)
	}
	if got != filepath.Join("/cache", "opentranscribe", "history.db") {
		t.Errorf("HistoryPath() = %q", got)
	}
}

func TestConfig_NewLogger(t *testing.T) {
	config := DefaultConfig()
	config.Logging.Level = "debug"
	logger, err := config.NewLogger()
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	if !logger.Core().Enabled(-1) {
		t.Error("debug level not enabled")
	}

	config.Logging.Level = "nope"
	if _, err := config.NewLogger(); err == nil {
		t.Error("NewLogger() accepted an invalid level")
	}
}

func TestManager_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	initial := createTestConfig()
	if err := SaveTo(path, initial); err != nil {
		t.Fatal(err)
	}

	m, err := NewManager(path, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	changed := make(chan *Config, 4)
	m.OnChange(func(c *Config) { changed <- c })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.StartWatching(ctx); err != nil {
		t.Fatalf("StartWatching() error = %v", err)
	}
	defer m.Stop()

	updated := createTestConfig()
	updated.Transcription.Prompt = "Instruction Assistant"
	if err := SaveTo(path, updated); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-changed:
		if c.Transcription.Prompt != "Instruction Assistant" {
			t.Errorf("reloaded prompt = %q", c.Transcription.Prompt)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("config change not observed")
	}
	if got := m.GetConfig().Transcription.Prompt; got != "Instruction Assistant" {
		t.Errorf("GetConfig().Transcription.Prompt = %q", got)
	}
}

func TestManager_GetConfigReturnsCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")
	m, err := NewManager(path, nil)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	c := m.GetConfig()
	c.Transcription.Languages[0] = "French"
	c.Providers["gemini"] = ProviderConfig{APIKey: "leak"}

	again := m.GetConfig()
	if again.Transcription.Languages[0] != "English" {
		t.Error("languages slice shared with caller")
	}
	if _, ok := again.Providers["gemini"]; ok {
		t.Error("providers map shared with caller")
	}
}
