package notify

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type sent struct {
	title, message string
}

func recordingDesktop(out *[]sent, err error) Desktop {
	return Desktop{Send: func(title, message string) error {
		*out = append(*out, sent{title, message})
		return err
	}}
}

func TestDesktopNotifier(t *testing.T) {
	tests := []struct {
		name      string
		call      func(n Notifier)
		wantTitle string
		wantBody  string
	}{
		{"RecordingStarted", func(n Notifier) { n.RecordingStarted() }, "OpenTranscribe", "Recording started"},
		{"Transcribing", func(n Notifier) { n.Transcribing() }, "OpenTranscribe", "transcribing"},
		{"Transcribed", func(n Notifier) { n.Transcribed("hello world") }, "Transcription ready", "hello world"},
		{"Failed", func(n Notifier) { n.Failed(errors.New("quota"), "/tmp/rec.wav") }, "OpenTranscribe", "Recording kept at /tmp/rec.wav"},
		{"Aborted", func(n Notifier) { n.Aborted() }, "OpenTranscribe", "Recording aborted"},
		{"Error", func(n Notifier) { n.Error("no microphone") }, "Error", "no microphone"},
		{"Notify", func(n Notifier) { n.Notify("Custom", "body") }, "Custom", "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out []sent
			tt.call(recordingDesktop(&out, nil))
			if len(out) != 1 {
				t.Fatalf("sent %d notifications, want 1", len(out))
			}
			if !strings.Contains(out[0].title, tt.wantTitle) {
				t.Errorf("title = %q, want it to contain %q", out[0].title, tt.wantTitle)
			}
			if !strings.Contains(out[0].message, tt.wantBody) {
				t.Errorf("message = %q, want it to contain %q", out[0].message, tt.wantBody)
			}
		})
	}
}

func TestDesktopNotifierSendError(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	var out []sent
	d := recordingDesktop(&out, errors.New("no dbus"))
	d.Logger = zap.New(core)

	d.RecordingStarted()

	if logs.FilterMessage("Failed to send notification").Len() != 1 {
		t.Errorf("send failure not logged: %v", logs.All())
	}
}

func TestFailedWithoutArtifact(t *testing.T) {
	m := failed(errors.New("boom"), "")
	if strings.Contains(m.Body, "kept at") {
		t.Errorf("body = %q", m.Body)
	}
	if !m.IsError {
		t.Error("failure should be an error message")
	}
}

func TestPreview(t *testing.T) {
	long := strings.Repeat("é", previewLen+10)
	got := preview(long)
	if !strings.HasSuffix(got, "…") {
		t.Errorf("long text not truncated: %q", got)
	}
	if n := len([]rune(got)); n != previewLen+1 {
		t.Errorf("preview has %d runes", n)
	}
	if preview("short") != "short" {
		t.Error("short text changed")
	}
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	n := Log{Logger: zap.New(core)}

	n.RecordingStarted()
	n.Failed(errors.New("timeout"), "/tmp/x.wav")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d log entries, want 2", len(entries))
	}
	if entries[0].Level != zapcore.InfoLevel || !strings.Contains(entries[0].Message, "Recording started") {
		t.Errorf("entry[0] = %+v", entries[0])
	}
	if entries[1].Level != zapcore.ErrorLevel || !strings.Contains(entries[1].Message, "timeout") {
		t.Errorf("entry[1] = %+v", entries[1])
	}
}

func TestNopNotifier(t *testing.T) {
	var n Notifier = Nop{}
	n.RecordingStarted()
	n.Transcribing()
	n.Transcribed("x")
	n.Failed(errors.New("x"), "")
	n.Aborted()
	n.Error("x")
	n.Notify("x", "y")
}

func TestFromConfig(t *testing.T) {
	tests := []struct {
		enabled bool
		kind    string
		want    string
	}{
		{true, "desktop", "notify.Desktop"},
		{true, "log", "notify.Log"},
		{true, "none", "notify.Nop"},
		{false, "desktop", "notify.Nop"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			got := typeName(FromConfig(tt.enabled, tt.kind, zap.NewNop()))
			if got != tt.want {
				t.Errorf("FromConfig(%v, %q) = %s, want %s", tt.enabled, tt.kind, got, tt.want)
			}
		})
	}
}

func typeName(n Notifier) string {
	switch n.(type) {
	case Desktop:
		return "notify.Desktop"
	case Log:
		return "notify.Log"
	case Nop:
		return "notify.Nop"
	}
	return "unknown"
}
