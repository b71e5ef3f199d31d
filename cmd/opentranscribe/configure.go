package main

import (
	"fmt"

	"github.com/leonardotrapani/opentranscribe/internal/config"
	"github.com/leonardotrapani/opentranscribe/internal/tui"
	"github.com/spf13/cobra"
)

func configureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactive configuration setup",
		Long: `Interactive configuration wizard for opentranscribe.
This will guide you through setting up:
- The transcription provider and its API key (Gemini or OpenAI)
- The languages you dictate in
- The prompt applied to each recording
- Notification and output preferences`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure()
		},
	}
}

func runConfigure() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	result, err := tui.Run(cfg)
	if err != nil {
		return fmt.Errorf("configuration wizard error: %w", err)
	}
	if result.Cancelled {
		fmt.Println("Configuration cancelled.")
		return nil
	}

	if err := result.Config.Validate(); err != nil {
		fmt.Printf("Configuration validation failed: %v\n", err)
		return err
	}
	if err := config.Save(result.Config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("Configuration saved successfully!")
	fmt.Println()
	showNextSteps()
	return nil
}

func showNextSteps() {
	fmt.Println("Next Steps:")
	fmt.Println("1. Start the daemon: opentranscribe serve")
	fmt.Println("2. Bind a key to: opentranscribe toggle")
	fmt.Println("3. Or try it right away: opentranscribe record")
	fmt.Println()

	configPath, _ := config.GetConfigPath()
	fmt.Printf("Config file location: %s\n", configPath)
}
