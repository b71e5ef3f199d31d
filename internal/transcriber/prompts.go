package transcriber

import "strings"

// LanguagesPlaceholder is substituted with the joined language list.
const LanguagesPlaceholder = "{languages}"

// Prompt is a named instruction template sent alongside the audio.
type Prompt struct {
	Name        string
	Description string
	Template    string
}

var catalog = []Prompt{
	{
		Name:        "Transcribe",
		Description: "Plain transcript in one paragraph",
		Template: "Generate a transcript of the speech in {languages}. " +
			"Generate everything in one paragraph without timestamps.",
	},
	{
		Name:        "Transcribe and Plan",
		Description: "Transcript followed by an action plan or summary",
		Template: "Transcribe the following audio in {languages}. Then, based on the " +
			"transcription, create a concise action plan or a summary of the key points. " +
			"Format the output clearly with a 'Transcription' section and a 'Plan' section.",
	},
	{
		Name:        "Instruction Assistant",
		Description: "Follow the spoken commands",
		Template: "Listen carefully to the audio, spoken in {languages}. Follow the spoken " +
			"instructions precisely. If the speaker explicitly asks for a transcription, " +
			"provide it; otherwise focus on delivering the requested output.",
	},
}

// Prompts returns the prompt catalog in display order.
func Prompts() []Prompt {
	out := make([]Prompt, len(catalog))
	copy(out, catalog)
	return out
}

// PromptNames returns the catalog names in display order.
func PromptNames() []string {
	names := make([]string, len(catalog))
	for i, p := range catalog {
		names[i] = p.Name
	}
	return names
}

// LookupPrompt finds a prompt by name, ignoring case and surrounding space.
func LookupPrompt(name string) (Prompt, bool) {
	name = strings.TrimSpace(name)
	for _, p := range catalog {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Prompt{}, false
}

// DefaultPrompt is the first catalog entry.
func DefaultPrompt() Prompt {
	return catalog[0]
}
