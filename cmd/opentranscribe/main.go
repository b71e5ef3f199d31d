package main

import (
	"fmt"
	"os"

	"github.com/leonardotrapani/opentranscribe/internal/bus"
	"github.com/leonardotrapani/opentranscribe/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "opentranscribe",
	Short:        "Record your voice and turn it into text with Gemini or OpenAI",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(
		serveCmd(),
		toggleCmd(),
		cancelCmd(),
		statusCmd(),
		versionCmd(),
		stopCmd(),
		recordCmd(),
		transcribeCmd(),
		backendCmd(),
		promptsCmd(),
		historyCmd(),
		configureCmd(),
	)
}

// loadRuntime loads and validates the config and builds the root logger.
func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, logger, nil
}

// busCmd builds a command that sends one byte to the daemon and prints the reply.
func busCmd(use, short string, cmd byte, action string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(cmd)
			if err != nil {
				return fmt.Errorf("failed to %s: %w", action, err)
			}
			fmt.Print(resp)
			return bus.ParseResponse(resp).Err()
		},
	}
}

func toggleCmd() *cobra.Command {
	return busCmd("toggle", "Start recording, or stop and transcribe", bus.CmdToggle, "toggle recording")
}

func cancelCmd() *cobra.Command {
	return busCmd("cancel", "Cancel the current recording or transcription", bus.CmdCancel, "cancel operation")
}

func statusCmd() *cobra.Command {
	return busCmd("status", "Get current session status", bus.CmdStatus, "get status")
}

func versionCmd() *cobra.Command {
	return busCmd("version", "Get protocol version", bus.CmdVersion, "get version")
}

func stopCmd() *cobra.Command {
	return busCmd("stop", "Stop the daemon", bus.CmdQuit, "stop daemon")
}
