package tui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/opentranscribe/internal/config"
	"github.com/leonardotrapani/opentranscribe/internal/language"
	"github.com/leonardotrapani/opentranscribe/internal/transcriber"
)

// AllProviders is the list of supported transcription providers.
var AllProviders = []string{transcriber.ProviderGemini, transcriber.ProviderOpenAI}

var providerDisplayNames = map[string]string{
	transcriber.ProviderGemini: "Google Gemini",
	transcriber.ProviderOpenAI: "OpenAI (Whisper + chat)",
}

var providerKeyURLs = map[string]string{
	transcriber.ProviderGemini: "https://aistudio.google.com/apikey",
	transcriber.ProviderOpenAI: "https://platform.openai.com/api-keys",
}

func getProviderDisplayName(name string) string {
	if display, ok := providerDisplayNames[name]; ok {
		return display
	}
	return name
}

var errNoLanguage = errors.New("select at least one language")

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:7] + "..." + key[len(key)-4:]
}

// hasUserChanges detects if the config was already set up once
func hasUserChanges(cfg *config.Config) bool {
	for _, pc := range cfg.Providers {
		if pc.APIKey != "" {
			return true
		}
	}
	return false
}

func providerOptions(current string) []huh.Option[string] {
	options := make([]huh.Option[string], 0, len(AllProviders))
	for _, p := range AllProviders {
		label := getProviderDisplayName(p)
		if p == current {
			label += " (current)"
		}
		options = append(options, huh.NewOption(label, p))
	}
	return options
}

// defaultModelFor returns the model to store when switching provider.
func defaultModelFor(provider string) string {
	if provider == transcriber.ProviderOpenAI {
		return transcriber.DefaultOpenAITranscriptionModel
	}
	return transcriber.DefaultGeminiModel
}

// setProvider switches the active provider and stores key when non-empty.
// The model is reset unless the provider stays the same.
func setProvider(cfg *config.Config, provider, key string) {
	if cfg.Transcription.Provider != provider {
		cfg.Transcription.Model = defaultModelFor(provider)
		cfg.Transcription.ChatModel = ""
	}
	cfg.Transcription.Provider = provider

	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]config.ProviderConfig)
	}
	pc := cfg.Providers[provider]
	pc.APIKey = key
	cfg.Providers[provider] = pc
}

// apiKeyValidator accepts an empty key only when one is already available.
func apiKeyValidator(cfg *config.Config, provider string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) != "" {
			return nil
		}
		if cfg.ResolveAPIKey(provider) != "" {
			return nil
		}
		return fmt.Errorf("API key required (or set %s)", config.EnvVarForProvider(provider))
	}
}

func apiKeyDescription(cfg *config.Config, provider string) string {
	var parts []string
	if url := providerKeyURLs[provider]; url != "" {
		parts = append(parts, "Get a key at "+url)
	}
	if pc, ok := cfg.Providers[provider]; ok && pc.APIKey != "" {
		parts = append(parts, fmt.Sprintf("current: %s, leave empty to keep", maskAPIKey(pc.APIKey)))
	} else if env := config.EnvVarForProvider(provider); env != "" && os.Getenv(env) != "" {
		parts = append(parts, fmt.Sprintf("%s is set, leave empty to use it", env))
	}
	return strings.Join(parts, "\n")
}

// languageOptions lists the featured languages first, then the rest in
// catalog order. Entries in selected are pre-checked.
func languageOptions(selected []string) []huh.Option[string] {
	checked := make(map[string]bool, len(selected))
	for _, name := range language.Normalize(selected) {
		checked[name] = true
	}

	featured := make(map[string]bool, len(language.Featured))
	var options []huh.Option[string]
	add := func(lang language.Language) {
		label := lang.Name
		if lang.NativeName != "" && lang.NativeName != lang.Name {
			label = fmt.Sprintf("%s (%s)", lang.Name, lang.NativeName)
		}
		options = append(options, huh.NewOption(label, lang.Name).Selected(checked[lang.Name]))
	}

	for _, name := range language.Featured {
		if lang, ok := language.FromName(name); ok {
			featured[lang.Name] = true
			add(lang)
		}
	}
	for _, lang := range language.List() {
		if !featured[lang.Name] {
			add(lang)
		}
	}
	return options
}

func validateLanguages(selected []string) error {
	if len(language.Normalize(selected)) == 0 {
		return errNoLanguage
	}
	return nil
}

func promptOptions(current string) []huh.Option[string] {
	prompts := transcriber.Prompts()
	options := make([]huh.Option[string], 0, len(prompts))
	for _, p := range prompts {
		label := fmt.Sprintf("%s - %s", p.Name, p.Description)
		if p.Name == current {
			label += " (current)"
		}
		options = append(options, huh.NewOption(label, p.Name))
	}
	return options
}

func notificationOptions() []huh.Option[string] {
	return []huh.Option[string]{
		huh.NewOption("Desktop notifications", "desktop"),
		huh.NewOption("Log to console only", "log"),
		huh.NewOption("None (silent)", "none"),
	}
}

func onOff(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

// summaryLines renders the settings shown before saving.
func summaryLines(cfg *config.Config) []string {
	provider := cfg.Transcription.Provider
	key := "not set"
	if pc, ok := cfg.Providers[provider]; ok && pc.APIKey != "" {
		key = maskAPIKey(pc.APIKey)
	} else if env := config.EnvVarForProvider(provider); env != "" && os.Getenv(env) != "" {
		key = "from " + env
	}

	notifications := onOff(cfg.Notifications.Enabled)
	if cfg.Notifications.Enabled {
		notifications += " (" + cfg.Notifications.Type + ")"
	}

	return []string{
		fmt.Sprintf("%s %s (%s)", StyleLabel.Render("Provider:"), getProviderDisplayName(provider), cfg.Transcription.Model),
		fmt.Sprintf("%s %s", StyleLabel.Render("API key:"), key),
		fmt.Sprintf("%s %s", StyleLabel.Render("Languages:"), language.Join(cfg.Transcription.Languages)),
		fmt.Sprintf("%s %s", StyleLabel.Render("Prompt:"), cfg.Transcription.Prompt),
		fmt.Sprintf("%s %s", StyleLabel.Render("Notifications:"), notifications),
		fmt.Sprintf("%s %s", StyleLabel.Render("Clipboard:"), onOff(cfg.Output.Clipboard)),
		fmt.Sprintf("%s %s", StyleLabel.Render("History:"), onOff(cfg.Output.History)),
	}
}
