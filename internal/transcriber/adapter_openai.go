package transcriber

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	DefaultOpenAITranscriptionModel = openai.Whisper1
	DefaultOpenAIChatModel          = openai.GPT4oMini
)

// OpenAIService transcribes with Whisper and applies the prompt with a chat
// completion. Uploads are staged locally, so Delete has nothing to remove.
type OpenAIService struct {
	client             *openai.Client
	transcriptionModel string
	chatModel          string
	logger             *zap.Logger
}

func NewOpenAIService(cfg ServiceConfig, logger *zap.Logger) (*OpenAIService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	transcriptionModel := cfg.Model
	if transcriptionModel == "" {
		transcriptionModel = DefaultOpenAITranscriptionModel
	}
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = DefaultOpenAIChatModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OpenAIService{
		client:             openai.NewClientWithConfig(clientCfg),
		transcriptionModel: transcriptionModel,
		chatModel:          chatModel,
		logger:             logger.Named("openai"),
	}, nil
}

func (s *OpenAIService) Upload(ctx context.Context, path string) (RemoteHandle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return RemoteHandle{}, fmt.Errorf("stat recording: %w", err)
	}
	if !info.Mode().IsRegular() {
		return RemoteHandle{}, fmt.Errorf("%s is not a regular file", path)
	}
	if info.Size() == 0 {
		return RemoteHandle{}, fmt.Errorf("%s is empty", path)
	}
	return RemoteHandle{Name: path, URI: "file://" + path, MIMEType: wavMIMEType}, nil
}

func (s *OpenAIService) Generate(ctx context.Context, prompt string, handle RemoteHandle) (string, error) {
	start := time.Now()
	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    s.transcriptionModel,
		FilePath: handle.Name,
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}
	s.logger.Debug("Audio transcribed",
		zap.String("model", s.transcriptionModel),
		zap.Duration("elapsed", time.Since(start)))

	transcript := strings.TrimSpace(resp.Text)
	if transcript == "" {
		return "", nil
	}

	chat, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt + "\n\nThe audio has already been transcribed; the raw transcript follows."},
			{Role: openai.ChatMessageRoleUser, Content: transcript},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(chat.Choices) == 0 {
		return "", nil
	}

	s.logger.Debug("Prompt applied",
		zap.String("model", s.chatModel),
		zap.Duration("elapsed", time.Since(start)))
	return chat.Choices[0].Message.Content, nil
}

func (s *OpenAIService) Delete(ctx context.Context, handle RemoteHandle) error {
	return nil
}
