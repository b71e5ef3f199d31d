package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/leonardotrapani/opentranscribe/internal/capture"
	"github.com/leonardotrapani/opentranscribe/internal/output"
	"github.com/leonardotrapani/opentranscribe/internal/pipeline"
	"github.com/leonardotrapani/opentranscribe/internal/transcriber"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type sessionFlags struct {
	languages []string
	prompt    string
	clipboard bool
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.languages, "language", "l", nil, "language to transcribe (repeatable, overrides config)")
	cmd.Flags().StringVarP(&f.prompt, "prompt", "p", "", "prompt name (see 'opentranscribe prompts')")
	cmd.Flags().BoolVar(&f.clipboard, "copy", false, "copy the transcription to the clipboard")
}

// apply overrides the session settings with any flags given.
func (f *sessionFlags) apply(sc *pipeline.Config) {
	if len(f.languages) > 0 {
		sc.Languages = f.languages
	}
	if f.prompt != "" {
		sc.Prompt = f.prompt
	}
}

func recordCmd() *cobra.Command {
	var flags sessionFlags
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record in the foreground until Enter is pressed, then transcribe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(cmd.Context(), &flags, duration)
		},
	}
	flags.register(cmd)
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "stop automatically after this long (0 = config timeout)")
	return cmd
}

func runRecord(ctx context.Context, flags *sessionFlags, duration time.Duration) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync()

	tr, err := pipeline.NewTranscriberFactory(logger)(ctx, cfg)
	if err != nil {
		return err
	}

	rec := capture.NewManager(cfg.ToCaptureOptions(logger))
	if !rec.CanRecord() {
		return capture.ErrUnavailable
	}

	sc := pipeline.ConfigFrom(cfg)
	flags.apply(&sc)
	if duration > 0 {
		sc.MaxDuration = duration
	}

	s := pipeline.New(rec, tr, sc, logger)
	if err := s.Start(); err != nil {
		return fmt.Errorf("failed to start recording: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Recording with %s. Press Enter to stop, Ctrl+C to cancel.\n", rec.Backend())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		for u := range s.Updates() {
			if u.Status == pipeline.Transcribing {
				fmt.Fprintln(os.Stderr, "Transcribing...")
			}
		}
	}()

	enter := make(chan struct{})
	go func() {
		_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
		close(enter)
	}()

	for done := false; !done; {
		select {
		case <-enter:
			enter = nil
			go func() {
				// the outcome is read from s.Result
				_, _ = s.Finish(ctx)
			}()
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "Cancelled.")
			s.Cancel()
		case <-s.Done():
			done = true
		}
	}

	return printResult(s.Result(), flags.clipboard || cfg.Output.Clipboard, logger)
}

func printResult(res pipeline.Result, toClipboard bool, logger *zap.Logger) error {
	if res.Err != nil {
		if errors.Is(res.Err, context.Canceled) && res.ArtifactPath == "" {
			return nil
		}
		if res.ArtifactPath != "" {
			fmt.Fprintf(os.Stderr, "Recording kept at %s\n", res.ArtifactPath)
			fmt.Fprintf(os.Stderr, "Retry with: opentranscribe transcribe %s\n", res.ArtifactPath)
		}
		return res.Err
	}

	fmt.Println(res.Text)
	if toClipboard {
		if err := output.CopyToClipboard(res.Text); err != nil {
			logger.Warn("Failed to copy transcription to clipboard", zap.Error(err))
		}
	}
	return nil
}

func transcribeCmd() *cobra.Command {
	var flags sessionFlags

	cmd := &cobra.Command{
		Use:   "transcribe <file.wav>",
		Short: "Transcribe an existing recording (the file is kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscribe(cmd.Context(), &flags, args[0])
		},
	}
	flags.register(cmd)
	return cmd
}

func runTranscribe(ctx context.Context, flags *sessionFlags, path string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync()

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !strings.EqualFold(filepath.Ext(path), ".wav") {
		logger.Warn("File does not look like a WAV recording", zap.String("path", path))
	}

	tr, err := pipeline.NewTranscriberFactory(logger)(ctx, cfg)
	if err != nil {
		return err
	}

	sc := pipeline.ConfigFrom(cfg)
	flags.apply(&sc)

	req, err := transcriber.NewRequest(path, sc.Languages, sc.Prompt, sc.DefaultLanguage)
	if err != nil {
		return err
	}

	logger.Info("Transcribing file", zap.String("path", path), zap.Int64("bytes", info.Size()))
	text, err := tr.Transcribe(ctx, req)
	if err != nil {
		return err
	}

	fmt.Println(text)
	if flags.clipboard || cfg.Output.Clipboard {
		if err := output.CopyToClipboard(text); err != nil {
			logger.Warn("Failed to copy transcription to clipboard", zap.Error(err))
		}
	}
	return nil
}
