package tui

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/leonardotrapani/opentranscribe/internal/config"
	"github.com/muesli/termenv"
)

// ConfigureResult holds the configuration result from the TUI
type ConfigureResult struct {
	Config    *config.Config
	Cancelled bool
}

// ConfigSection represents a configuration section
type ConfigSection string

const (
	SectionProvider      ConfigSection = "provider"
	SectionLanguages     ConfigSection = "languages"
	SectionPrompt        ConfigSection = "prompt"
	SectionNotifications ConfigSection = "notifications"
	SectionOutput        ConfigSection = "output"
	SectionSaveExit      ConfigSection = "save_exit"
	SectionDiscardExit   ConfigSection = "discard_exit"
)

// Run starts the TUI configuration wizard. The given config is edited in
// place; a nil config starts from the defaults.
func Run(existingConfig *config.Config) (*ConfigureResult, error) {
	if existingConfig == nil {
		existingConfig = config.DefaultConfig()
	}
	if hasUserChanges(existingConfig) {
		return runEditExisting(existingConfig)
	}
	return runFreshInstall(existingConfig)
}

// runFreshInstall walks through every section once
func runFreshInstall(cfg *config.Config) (*ConfigureResult, error) {
	clearScreen()
	fmt.Println(Logo())
	fmt.Println(StyleMuted.Render("Let's set up transcription. Press esc at any time to abort."))
	fmt.Println()

	steps := []func(*config.Config) error{
		editProvider,
		editLanguages,
		editPrompt,
		editNotifications,
	}
	for _, step := range steps {
		if err := step(cfg); err != nil {
			return cancelled(err)
		}
	}

	confirmed, err := showSummary(cfg)
	if err != nil || !confirmed {
		return cancelled(err)
	}
	return &ConfigureResult{Config: cfg}, nil
}

// runEditExisting runs the menu-based edit flow for existing configs
func runEditExisting(cfg *config.Config) (*ConfigureResult, error) {
	for {
		clearScreen()
		fmt.Println(Logo())
		fmt.Println()

		section, err := selectSection(cfg)
		if err != nil {
			return cancelled(err)
		}

		switch section {
		case SectionSaveExit:
			confirmed, err := showSummary(cfg)
			if err != nil {
				return cancelled(err)
			}
			if confirmed {
				return &ConfigureResult{Config: cfg}, nil
			}

		case SectionDiscardExit:
			return &ConfigureResult{Cancelled: true}, nil

		case SectionProvider:
			_ = editProvider(cfg)
		case SectionLanguages:
			_ = editLanguages(cfg)
		case SectionPrompt:
			_ = editPrompt(cfg)
		case SectionNotifications:
			_ = editNotifications(cfg)
		case SectionOutput:
			_ = editOutput(cfg)
		}
	}
}

// cancelled maps a user abort to a cancelled result and passes real errors on.
func cancelled(err error) (*ConfigureResult, error) {
	if err == nil || errors.Is(err, huh.ErrUserAborted) {
		return &ConfigureResult{Cancelled: true}, nil
	}
	return &ConfigureResult{Cancelled: true}, err
}

func selectSection(cfg *config.Config) (ConfigSection, error) {
	options := []huh.Option[ConfigSection]{
		huh.NewOption(fmt.Sprintf("Provider (%s)", getProviderDisplayName(cfg.Transcription.Provider)), SectionProvider),
		huh.NewOption(fmt.Sprintf("Languages (%d selected)", len(cfg.Transcription.Languages)), SectionLanguages),
		huh.NewOption(fmt.Sprintf("Prompt (%s)", cfg.Transcription.Prompt), SectionPrompt),
		huh.NewOption("Notifications", SectionNotifications),
		huh.NewOption("Output", SectionOutput),
		huh.NewOption("Save & Exit", SectionSaveExit),
		huh.NewOption("Discard & Exit", SectionDiscardExit),
	}

	var selected ConfigSection
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[ConfigSection]().
				Title("Configuration Menu").
				Description("↑/↓ navigate • enter select • esc cancel").
				Options(options...).
				Value(&selected),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return "", err
	}
	return selected, nil
}

func editProvider(cfg *config.Config) error {
	provider := cfg.Transcription.Provider
	if provider == "" {
		provider = AllProviders[0]
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Transcription provider").
				Description("The service that receives your recordings").
				Options(providerOptions(provider)...).
				Value(&provider),
		),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}

	var key string
	keyForm := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(getProviderDisplayName(provider) + " API key").
				Description(apiKeyDescription(cfg, provider)).
				EchoMode(huh.EchoModePassword).
				Validate(apiKeyValidator(cfg, provider)).
				Value(&key),
		),
	).WithTheme(getTheme())
	if err := keyForm.Run(); err != nil {
		return err
	}

	setProvider(cfg, provider, key)
	return nil
}

func editLanguages(cfg *config.Config) error {
	selected := append([]string(nil), cfg.Transcription.Languages...)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Languages").
				Description("Languages you dictate in. space toggles, / filters").
				Options(languageOptions(selected)...).
				Filterable(true).
				Height(12).
				Validate(validateLanguages).
				Value(&selected),
		),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}

	cfg.Transcription.Languages = selected
	return nil
}

func editPrompt(cfg *config.Config) error {
	prompt := cfg.Transcription.Prompt

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Prompt").
				Description("What the model does with your recording").
				Options(promptOptions(prompt)...).
				Value(&prompt),
		),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}

	cfg.Transcription.Prompt = prompt
	return nil
}

func editNotifications(cfg *config.Config) error {
	enabled := cfg.Notifications.Enabled
	kind := cfg.Notifications.Type
	if kind == "" {
		kind = "desktop"
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Enable notifications?").
				Description("Show recording and transcription status changes").
				Value(&enabled),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Notification type").
				Options(notificationOptions()...).
				Value(&kind),
		).WithHideFunc(func() bool { return !enabled }),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}

	cfg.Notifications.Enabled = enabled
	cfg.Notifications.Type = kind
	return nil
}

func editOutput(cfg *config.Config) error {
	clipboard := cfg.Output.Clipboard
	history := cfg.Output.History

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Copy transcriptions to the clipboard?").
				Value(&clipboard),
			huh.NewConfirm().
				Title("Keep a history of sessions?").
				Description("Stored locally in SQLite").
				Value(&history),
		),
	).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}

	cfg.Output.Clipboard = clipboard
	cfg.Output.History = history
	return nil
}

func showSummary(cfg *config.Config) (bool, error) {
	fmt.Println()
	fmt.Println(StyleHeader.Render("Configuration Summary"))
	fmt.Println(StyleBox.Render(lipgloss.JoinVertical(lipgloss.Left, summaryLines(cfg)...)))
	if err := cfg.Validate(); err != nil {
		fmt.Println(StyleError.Render("Invalid configuration: " + err.Error()))
	}
	fmt.Println()

	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save this configuration?").
				Affirmative("Save").
				Negative("Cancel").
				Value(&confirmed),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}

// clearScreen clears the terminal screen
func clearScreen() {
	output := termenv.NewOutput(os.Stdout)
	output.ClearScreen()
}

func getTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Focused.Base = lipgloss.NewStyle().BorderForeground(ColorPrimary)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(ColorSecondary)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(ColorText)
	t.Focused.ErrorMessage = StyleError

	t.Blurred.Title = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Blurred.Description = lipgloss.NewStyle().Foreground(ColorSubtle)

	return t
}
