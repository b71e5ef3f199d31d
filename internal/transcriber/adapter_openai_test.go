package transcriber

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
)

func mockOpenAIServer(t *testing.T, transcript string, chatReply string, gotPrompt *string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/audio/transcriptions"):
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("parse multipart: %v", err)
			}
			if got := r.FormValue("model"); got != "whisper-1" {
				t.Errorf("model = %q", got)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"text": transcript})
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			var body struct {
				Model    string `json:"model"`
				Messages []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode chat request: %v", err)
			}
			if len(body.Messages) == 2 {
				*gotPrompt = body.Messages[0].Content
				if body.Messages[1].Content != strings.TrimSpace(transcript) {
					t.Errorf("user message = %q", body.Messages[1].Content)
				}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":      "chatcmpl-1",
				"object":  "chat.completion",
				"model":   body.Model,
				"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": chatReply}}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func writeTestRecording(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "opentranscribe_test.wav")
	if err := os.WriteFile(path, []byte("RIFF$\x00\x00\x00WAVE"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenAIServiceGenerate(t *testing.T) {
	var gotPrompt string
	server := mockOpenAIServer(t, " raw words ", "Clean words.", &gotPrompt)

	svc, err := NewOpenAIService(ServiceConfig{APIKey: "test", BaseURL: server.URL + "/v1"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewOpenAIService: %v", err)
	}

	path := writeTestRecording(t)
	ctx := context.Background()
	handle, err := svc.Upload(ctx, path)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if handle.Name != path || handle.MIMEType != "audio/wav" {
		t.Errorf("handle = %+v", handle)
	}

	text, err := svc.Generate(ctx, "Transcribe in English.", handle)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "Clean words." {
		t.Errorf("text = %q", text)
	}
	if !strings.HasPrefix(gotPrompt, "Transcribe in English.") {
		t.Errorf("system prompt = %q", gotPrompt)
	}

	if err := svc.Delete(ctx, handle); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("local recording touched: %v", err)
	}
}

func TestOpenAIServiceEmptyTranscriptSkipsChat(t *testing.T) {
	var gotPrompt string
	server := mockOpenAIServer(t, "   ", "should not be used", &gotPrompt)

	svc, err := NewOpenAIService(ServiceConfig{APIKey: "test", BaseURL: server.URL + "/v1"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewOpenAIService: %v", err)
	}
	path := writeTestRecording(t)
	handle, err := svc.Upload(context.Background(), path)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	text, err := svc.Generate(context.Background(), "p", handle)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "" || gotPrompt != "" {
		t.Errorf("text = %q, chat prompt = %q", text, gotPrompt)
	}
}

func TestOpenAIServiceUploadValidation(t *testing.T) {
	svc, err := NewOpenAIService(ServiceConfig{APIKey: "test"}, nil)
	if err != nil {
		t.Fatalf("NewOpenAIService: %v", err)
	}

	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.wav")
	if err := os.WriteFile(empty, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "missing.wav")},
		{"empty", empty},
		{"directory", dir},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Upload(context.Background(), tt.path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNewService(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr bool
	}{
		{"openai", ServiceConfig{Provider: ProviderOpenAI, APIKey: "k"}, false},
		{"gemini", ServiceConfig{Provider: ProviderGemini, APIKey: "k"}, false},
		{"openai without key", ServiceConfig{Provider: ProviderOpenAI}, true},
		{"gemini without key", ServiceConfig{Provider: ProviderGemini}, true},
		{"unknown provider", ServiceConfig{Provider: "deepgram", APIKey: "k"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(context.Background(), tt.cfg, zaptest.NewLogger(t))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && svc == nil {
				t.Error("nil service")
			}
		})
	}
}

func TestFailedErrorMessage(t *testing.T) {
	err := &FailedError{Attempts: 3, Err: errNetworkDown}
	if got := err.Error(); got != "transcription failed after 3 attempt(s): network down" {
		t.Errorf("Error() = %q", got)
	}
}
