package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/leonardotrapani/opentranscribe/internal/capture"
	"github.com/leonardotrapani/opentranscribe/internal/config"
	"github.com/leonardotrapani/opentranscribe/internal/transcriber"
)

// TestConfig returns a valid configuration for testing
func TestConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Providers["gemini"] = config.ProviderConfig{APIKey: "test-api-key"}
	cfg.Notifications.Type = "log"
	cfg.Output.History = false
	return cfg
}

// CreateTempConfigFile writes cfg to a fresh config.toml and returns its path
func CreateTempConfigFile(t *testing.T, cfg *config.Config) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.SaveTo(path, cfg); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// TestContext returns a context with timeout for testing
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// WaitForCondition waits for a condition to be true or times out
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			t.Fatalf("Condition not met within %v", timeout)
		default:
			if condition() {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// MockRecorder stands in for the capture manager. Stop writes a small file
// into Dir and hands it out as the artifact.
type MockRecorder struct {
	Dir       string
	StartErr  error
	StopErr   error
	BackendID capture.Backend

	mu        sync.Mutex
	recording bool
	starts    int
	stops     int
	aborts    int
	last      string
}

func NewMockRecorder(t *testing.T) *MockRecorder {
	return &MockRecorder{
		Dir:       t.TempDir(),
		BackendID: capture.Backend{Kind: capture.NativeStream},
	}
}

func (m *MockRecorder) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts++
	if m.StartErr != nil {
		return m.StartErr
	}
	if m.recording {
		return capture.ErrAlreadyRecording
	}
	m.recording = true
	return nil
}

func (m *MockRecorder) Stop() (*capture.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	if !m.recording {
		return nil, capture.ErrNotRecording
	}
	m.recording = false
	if m.StopErr != nil {
		return nil, m.StopErr
	}

	path := filepath.Join(m.Dir, fmt.Sprintf("opentranscribe_%016d.wav", m.stops))
	if err := os.WriteFile(path, []byte("RIFF\x00\x00\x00\x00WAVE"), 0o600); err != nil {
		return nil, err
	}
	m.last = path
	return &capture.Artifact{Path: path, Backend: m.BackendID, Bytes: 12, CreatedAt: time.Now()}, nil
}

func (m *MockRecorder) Abort() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aborts++
	m.recording = false
}

func (m *MockRecorder) Backend() capture.Backend {
	return m.BackendID
}

func (m *MockRecorder) IsRecording() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recording
}

// Counts returns how often Start, Stop and Abort were called.
func (m *MockRecorder) Counts() (starts, stops, aborts int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts, m.stops, m.aborts
}

// LastArtifact is the path of the most recent artifact handed out.
func (m *MockRecorder) LastArtifact() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// MockTranscriber returns a fixed text or error. With Block set it waits for
// cancellation instead.
type MockTranscriber struct {
	Text  string
	Err   error
	Block bool

	mu       sync.Mutex
	requests []transcriber.Request
}

func NewMockTranscriber(text string) *MockTranscriber {
	return &MockTranscriber{Text: text}
}

func (m *MockTranscriber) Transcribe(ctx context.Context, req transcriber.Request) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.Block {
		<-ctx.Done()
		return "", &transcriber.FailedError{Attempts: 1, Err: ctx.Err()}
	}
	return m.Text, m.Err
}

func (m *MockTranscriber) Requests() []transcriber.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]transcriber.Request(nil), m.requests...)
}

// MockNotifier records the notifications it receives.
type MockNotifier struct {
	mu     sync.Mutex
	events []string
}

func (m *MockNotifier) add(e string) {
	m.mu.Lock()
	m.events = append(m.events, e)
	m.mu.Unlock()
}

func (m *MockNotifier) RecordingStarted()       { m.add("recording_started") }
func (m *MockNotifier) Transcribing()           { m.add("transcribing") }
func (m *MockNotifier) Transcribed(text string) { m.add("transcribed:" + text) }
func (m *MockNotifier) Failed(err error, artifactPath string) {
	m.add("failed:" + artifactPath)
}
func (m *MockNotifier) Aborted()                     { m.add("aborted") }
func (m *MockNotifier) Error(msg string)             { m.add("error:" + msg) }
func (m *MockNotifier) Notify(title, message string) { m.add("notify:" + title) }

func (m *MockNotifier) Events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}

// Has reports whether event was recorded.
func (m *MockNotifier) Has(event string) bool {
	for _, e := range m.Events() {
		if e == event {
			return true
		}
	}
	return false
}
