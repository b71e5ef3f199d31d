package transcriber

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	DefaultGeminiModel = "gemini-2.5-flash"
	wavMIMEType        = "audio/wav"
)

// GeminiService talks to the Gemini API through the Files and Models services.
type GeminiService struct {
	client       *genai.Client
	model        string
	pollInterval time.Duration
	logger       *zap.Logger
}

func NewGeminiService(ctx context.Context, cfg ServiceConfig, logger *zap.Logger) (*GeminiService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("Gemini API key required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &GeminiService{
		client:       client,
		model:        model,
		pollInterval: time.Second,
		logger:       logger.Named("gemini"),
	}, nil
}

func (s *GeminiService) Upload(ctx context.Context, path string) (RemoteHandle, error) {
	start := time.Now()
	file, err := s.client.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{MIMEType: wavMIMEType})
	if err != nil {
		return RemoteHandle{}, fmt.Errorf("gemini upload: %w", err)
	}

	handle := RemoteHandle{Name: file.Name, URI: file.URI, MIMEType: file.MIMEType}

	file, err = s.waitActive(ctx, file)
	if err != nil {
		// the file exists remotely but the caller never sees a handle for it
		if delErr := s.Delete(context.WithoutCancel(ctx), handle); delErr != nil {
			s.logger.Warn("Failed to delete unusable upload", zap.String("name", handle.Name), zap.Error(delErr))
		}
		return RemoteHandle{}, err
	}

	if file.MIMEType == "" {
		file.MIMEType = wavMIMEType
	}
	s.logger.Debug("File uploaded",
		zap.String("name", file.Name),
		zap.Duration("elapsed", time.Since(start)))

	return RemoteHandle{Name: file.Name, URI: file.URI, MIMEType: file.MIMEType}, nil
}

// waitActive polls the file until the server finishes processing it.
func (s *GeminiService) waitActive(ctx context.Context, file *genai.File) (*genai.File, error) {
	for file.State == genai.FileStateProcessing {
		if err := sleepContext(ctx, s.pollInterval); err != nil {
			return nil, err
		}
		next, err := s.client.Files.Get(ctx, file.Name, nil)
		if err != nil {
			return nil, fmt.Errorf("gemini file status: %w", err)
		}
		file = next
	}
	if file.State == genai.FileStateFailed {
		return nil, fmt.Errorf("gemini could not process %s", file.Name)
	}
	return file, nil
}

func (s *GeminiService) Generate(ctx context.Context, prompt string, handle RemoteHandle) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromURI(handle.URI, handle.MIMEType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	start := time.Now()
	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := resp.Text()
	s.logger.Debug("Content generated",
		zap.String("model", s.model),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("chars", len(text)))
	return text, nil
}

func (s *GeminiService) Delete(ctx context.Context, handle RemoteHandle) error {
	if handle.Name == "" {
		return nil
	}
	if _, err := s.client.Files.Delete(ctx, handle.Name, nil); err != nil {
		return fmt.Errorf("gemini delete %s: %w", handle.Name, err)
	}
	return nil
}
