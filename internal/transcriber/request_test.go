package transcriber

import (
	"reflect"
	"strings"
	"testing"
)

func TestNewRequest(t *testing.T) {
	tests := []struct {
		name            string
		path            string
		languages       []string
		prompt          string
		defaultLanguage string
		wantLanguages   []string
		wantPrompt      string
		wantErr         bool
	}{
		{
			name:          "explicit values",
			path:          "/tmp/a.wav",
			languages:     []string{"Spanish", "German"},
			prompt:        "Transcribe and Plan",
			wantLanguages: []string{"Spanish", "German"},
			wantPrompt:    "Transcribe and Plan",
		},
		{
			name:            "empty languages use the default",
			path:            "/tmp/a.wav",
			defaultLanguage: "Japanese",
			prompt:          "Transcribe",
			wantLanguages:   []string{"Japanese"},
			wantPrompt:      "Transcribe",
		},
		{
			name:          "no default falls back to English",
			path:          "/tmp/a.wav",
			wantLanguages: []string{"English"},
			wantPrompt:    "Transcribe",
		},
		{
			name:          "unknown prompt falls back to the first entry",
			path:          "/tmp/a.wav",
			languages:     []string{"English"},
			prompt:        "Summarize",
			wantLanguages: []string{"English"},
			wantPrompt:    "Transcribe",
		},
		{
			name:          "codes and casing are canonicalized, duplicates dropped",
			path:          "/tmp/a.wav",
			languages:     []string{"ja", "japanese", " ", "Klingon"},
			prompt:        "instruction assistant",
			wantLanguages: []string{"Japanese", "Klingon"},
			wantPrompt:    "Instruction Assistant",
		},
		{
			name:    "missing path",
			path:    "  ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := NewRequest(tt.path, tt.languages, tt.prompt, tt.defaultLanguage)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewRequest: %v", err)
			}
			if !reflect.DeepEqual(req.Languages, tt.wantLanguages) {
				t.Errorf("Languages = %v, want %v", req.Languages, tt.wantLanguages)
			}
			if req.PromptName != tt.wantPrompt {
				t.Errorf("PromptName = %q, want %q", req.PromptName, tt.wantPrompt)
			}
		})
	}
}

func TestNewRequestCopiesLanguages(t *testing.T) {
	langs := []string{"English"}
	req, err := NewRequest("/tmp/a.wav", langs, "", "")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	langs[0] = "French"
	if req.Languages[0] != "English" {
		t.Errorf("request shares caller slice: %v", req.Languages)
	}
}

func TestRenderPrompt(t *testing.T) {
	tests := []struct {
		name      string
		languages []string
		prompt    string
		want      string
	}{
		{"single language", []string{"English"}, "Transcribe", "in English."},
		{"two languages", []string{"English", "Spanish"}, "Transcribe", "in English, Spanish."},
		{"no languages", nil, "Transcribe", "in the detected language."},
		{"unknown prompt uses first template", []string{"French"}, "nope", "in French."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderPrompt(Request{ArtifactPath: "/tmp/a.wav", Languages: tt.languages, PromptName: tt.prompt})
			if !strings.Contains(got, tt.want) {
				t.Errorf("RenderPrompt = %q, want it to contain %q", got, tt.want)
			}
			if strings.Contains(got, LanguagesPlaceholder) {
				t.Errorf("placeholder left in %q", got)
			}
		})
	}
}

func TestPromptCatalog(t *testing.T) {
	names := PromptNames()
	want := []string{"Transcribe", "Transcribe and Plan", "Instruction Assistant"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("PromptNames = %v, want %v", names, want)
	}
	for _, p := range Prompts() {
		if !strings.Contains(p.Template, LanguagesPlaceholder) {
			t.Errorf("%s template has no languages placeholder", p.Name)
		}
		if p.Description == "" {
			t.Errorf("%s has no description", p.Name)
		}
	}

	phrases := map[string][]string{
		"Transcribe":            {"transcript of the speech in {languages}", "one paragraph without timestamps"},
		"Transcribe and Plan":   {"action plan or a summary", "'Transcription' section and a 'Plan' section"},
		"Instruction Assistant": {"Follow the spoken instructions precisely", "explicitly asks for a transcription", "delivering the requested output"},
	}
	for name, want := range phrases {
		p, ok := LookupPrompt(name)
		if !ok {
			t.Fatalf("%s missing from catalog", name)
		}
		for _, phrase := range want {
			if !strings.Contains(p.Template, phrase) {
				t.Errorf("%s template lacks %q", name, phrase)
			}
		}
	}

	prompts := Prompts()
	prompts[0].Name = "mutated"
	if DefaultPrompt().Name != "Transcribe" {
		t.Error("Prompts returned the backing slice")
	}
}
