package transcriber

import (
	"errors"
	"strings"

	"github.com/leonardotrapani/opentranscribe/internal/language"
)

// Request describes one transcription job. Build it with NewRequest.
type Request struct {
	ArtifactPath string
	Languages    []string
	PromptName   string
}

// NewRequest validates the inputs and fills defaults. Empty languages fall
// back to defaultLanguage and an unknown prompt name falls back to the first
// catalog entry.
func NewRequest(artifactPath string, languages []string, promptName, defaultLanguage string) (Request, error) {
	if strings.TrimSpace(artifactPath) == "" {
		return Request{}, errors.New("artifact path is required")
	}

	langs := cleanLanguages(languages)
	if len(langs) == 0 {
		if defaultLanguage == "" {
			defaultLanguage = language.Default
		}
		langs = []string{defaultLanguage}
	}

	prompt, ok := LookupPrompt(promptName)
	if !ok {
		prompt = DefaultPrompt()
	}

	return Request{
		ArtifactPath: artifactPath,
		Languages:    langs,
		PromptName:   prompt.Name,
	}, nil
}

// cleanLanguages canonicalizes known names and keeps unknown ones verbatim,
// dropping blanks and duplicates.
func cleanLanguages(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if lang, ok := language.FromName(n); ok {
			n = lang.Name
		}
		if seen[strings.ToLower(n)] {
			continue
		}
		seen[strings.ToLower(n)] = true
		out = append(out, n)
	}
	return out
}

// RenderPrompt substitutes the request's languages into its prompt template.
func RenderPrompt(req Request) string {
	prompt, ok := LookupPrompt(req.PromptName)
	if !ok {
		prompt = DefaultPrompt()
	}
	return strings.ReplaceAll(prompt.Template, LanguagesPlaceholder, language.Join(req.Languages))
}
