package main

import (
	"context"
	"fmt"

	"github.com/leonardotrapani/opentranscribe/internal/capture"
	"github.com/leonardotrapani/opentranscribe/internal/config"
	"github.com/leonardotrapani/opentranscribe/internal/daemon"
	"github.com/leonardotrapani/opentranscribe/internal/history"
	"github.com/leonardotrapani/opentranscribe/internal/output"
	"github.com/leonardotrapani/opentranscribe/internal/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync()

	mgr, err := config.NewManager("", logger)
	if err != nil {
		return fmt.Errorf("failed to create config manager: %w", err)
	}

	rec := capture.NewManager(cfg.ToCaptureOptions(logger))
	if !rec.CanRecord() {
		logger.Warn("No audio backend found; install arecord, parecord or ffmpeg")
	}

	opts := daemon.Options{
		Config:         mgr,
		Recorder:       rec,
		NewTranscriber: pipeline.NewTranscriberFactory(logger),
		Clipboard:      output.CopyToClipboard,
		Logger:         logger,
	}

	if cfg.Output.History {
		path, err := cfg.HistoryPath()
		if err != nil {
			return err
		}
		store, err := history.Open(path, logger)
		if err != nil {
			logger.Warn("History disabled", zap.Error(err))
		} else {
			defer store.Close()
			opts.History = store
		}
	}

	d, err := daemon.New(opts)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	eventsCtx, stopEvents := context.WithCancel(ctx)
	defer stopEvents()
	go logCaptureEvents(eventsCtx, rec.Events(), logger)

	return d.Run()
}

// logCaptureEvents surfaces capture side problems in the daemon log.
func logCaptureEvents(ctx context.Context, events <-chan capture.Event, logger *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			switch {
			case ev.Err != nil:
				logger.Warn("Capture event", zap.String("type", string(ev.Type)), zap.Error(ev.Err))
			default:
				logger.Debug("Capture event", zap.String("type", string(ev.Type)))
			}
		}
	}
}
