package transcriber

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultMaxAttempts   = 3
	DefaultRetryDelay    = 2 * time.Second
	DefaultDeleteTimeout = 30 * time.Second
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Options tunes the retry policy.
type Options struct {
	MaxAttempts int
	RetryDelay  time.Duration
	// DeleteTimeout bounds the best effort remote cleanup of each attempt.
	DeleteTimeout time.Duration
	Sleep         SleepFunc
	Logger        *zap.Logger
}

func DefaultOptions() Options {
	return Options{
		MaxAttempts:   DefaultMaxAttempts,
		RetryDelay:    DefaultRetryDelay,
		DeleteTimeout: DefaultDeleteTimeout,
	}
}

// Pipeline turns a recorded artifact into text through a Service, retrying
// whole attempts with a fixed delay.
type Pipeline struct {
	service Service
	opts    Options
	logger  *zap.Logger
}

func New(service Service, opts Options) *Pipeline {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}
	if opts.DeleteTimeout <= 0 {
		opts.DeleteTimeout = DefaultDeleteTimeout
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		service: service,
		opts:    opts,
		logger:  logger.Named("transcriber"),
	}
}

// Transcribe runs up to MaxAttempts upload/generate/delete rounds and returns
// the first non-empty text. The local artifact is never touched.
func (p *Pipeline) Transcribe(ctx context.Context, req Request) (string, error) {
	prompt := RenderPrompt(req)

	var lastErr error
	attempts := 0
	for attempts < p.opts.MaxAttempts {
		if attempts > 0 {
			if err := p.opts.Sleep(ctx, p.opts.RetryDelay); err != nil {
				break
			}
		}
		attempts++

		start := time.Now()
		text, err := p.attempt(ctx, req.ArtifactPath, prompt)
		if err == nil {
			if strings.TrimSpace(text) == "" {
				p.logger.Warn("Model returned empty text", zap.Int("attempt", attempts))
				return "", ErrEmptyResponse
			}
			p.logger.Info("Transcription complete",
				zap.Int("attempt", attempts),
				zap.Duration("elapsed", time.Since(start)),
				zap.Int("chars", len(text)))
			return text, nil
		}

		lastErr = err
		p.logger.Warn("Attempt failed",
			zap.Int("attempt", attempts),
			zap.Int("max_attempts", p.opts.MaxAttempts),
			zap.Error(err))

		if ctx.Err() != nil {
			break
		}
	}

	return "", &FailedError{Attempts: attempts, Err: lastErr}
}

func (p *Pipeline) attempt(ctx context.Context, path, prompt string) (string, error) {
	handle, err := p.service.Upload(ctx, path)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", path, err)
	}
	defer p.cleanup(ctx, handle)

	text, err := p.service.Generate(ctx, prompt, handle)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return text, nil
}

// cleanup deletes the remote file even when ctx is already cancelled.
func (p *Pipeline) cleanup(ctx context.Context, handle RemoteHandle) {
	delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.opts.DeleteTimeout)
	defer cancel()

	if err := p.service.Delete(delCtx, handle); err != nil {
		p.logger.Warn("Failed to delete remote file",
			zap.String("name", handle.Name),
			zap.Error(err))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
