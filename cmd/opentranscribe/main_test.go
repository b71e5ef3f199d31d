package main

import (
	"sort"
	"testing"

	"github.com/leonardotrapani/opentranscribe/internal/pipeline"
)

func TestCommandTree(t *testing.T) {
	var got []string
	for _, c := range rootCmd.Commands() {
		got = append(got, c.Name())
	}
	sort.Strings(got)

	want := []string{"backend", "cancel", "configure", "history", "prompts", "record", "serve", "status", "stop", "toggle", "transcribe", "version"}
	for _, name := range want {
		i := sort.SearchStrings(got, name)
		if i >= len(got) || got[i] != name {
			t.Errorf("missing command %q (have %v)", name, got)
		}
	}
}

func TestTranscribeRequiresFile(t *testing.T) {
	cmd := transcribeCmd()
	if err := cmd.Args(cmd, nil); err == nil {
		t.Error("transcribe accepted no arguments")
	}
	if err := cmd.Args(cmd, []string{"a.wav"}); err != nil {
		t.Errorf("transcribe rejected one argument: %v", err)
	}
}

func TestSessionFlagsApply(t *testing.T) {
	tests := []struct {
		name  string
		flags sessionFlags
		want  pipeline.Config
	}{
		{
			name:  "no overrides",
			flags: sessionFlags{},
			want:  pipeline.Config{Languages: []string{"English"}, Prompt: "Transcribe"},
		},
		{
			name:  "languages and prompt",
			flags: sessionFlags{languages: []string{"German", "French"}, prompt: "Transcribe and Plan"},
			want:  pipeline.Config{Languages: []string{"German", "French"}, Prompt: "Transcribe and Plan"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := pipeline.Config{Languages: []string{"English"}, Prompt: "Transcribe"}
			tt.flags.apply(&sc)
			if sc.Prompt != tt.want.Prompt || len(sc.Languages) != len(tt.want.Languages) {
				t.Fatalf("got %+v, want %+v", sc, tt.want)
			}
			for i := range sc.Languages {
				if sc.Languages[i] != tt.want.Languages[i] {
					t.Errorf("language %d = %q, want %q", i, sc.Languages[i], tt.want.Languages[i])
				}
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 8, "this is…"},
		{"héllo wörld", 6, "héllo…"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := truncate(tt.in, tt.n); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}
}

func TestIndent(t *testing.T) {
	if got := indent("\na\nb\n", "  "); got != "  a\n  b" {
		t.Errorf("indent = %q", got)
	}
}
