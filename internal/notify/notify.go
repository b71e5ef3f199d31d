package notify

import (
	"fmt"
	"unicode/utf8"

	"github.com/gen2brain/beeep"
	"go.uber.org/zap"
)

const appName = "OpenTranscribe"

// previewLen caps how much transcript text a notification shows.
const previewLen = 120

type Notifier interface {
	RecordingStarted()
	Transcribing()
	Transcribed(text string)
	Failed(err error, artifactPath string)
	Aborted()
	Error(msg string)
	Notify(title, message string)
}

// Message is a rendered notification.
type Message struct {
	Title   string
	Body    string
	IsError bool
}

func recordingStarted() Message {
	return Message{Title: appName, Body: "Recording started"}
}

func transcribing() Message {
	return Message{Title: appName, Body: "Recording stopped, transcribing..."}
}

func transcribed(text string) Message {
	return Message{Title: appName + ": Transcription ready", Body: preview(text)}
}

func failed(err error, artifactPath string) Message {
	body := fmt.Sprintf("Transcription failed: %v", err)
	if artifactPath != "" {
		body += "\nRecording kept at " + artifactPath
	}
	return Message{Title: appName, Body: body, IsError: true}
}

func aborted() Message {
	return Message{Title: appName, Body: "Recording aborted"}
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLen {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewLen]) + "…"
}

// SendFunc delivers a desktop notification.
type SendFunc func(title, message string) error

func beeepSend(title, message string) error {
	return beeep.Notify(title, message, "")
}

// Desktop shows notifications through the platform notification service.
type Desktop struct {
	Send   SendFunc
	Logger *zap.Logger
}

func (d Desktop) send(m Message) {
	send := d.Send
	if send == nil {
		send = beeepSend
	}
	if err := send(m.Title, m.Body); err != nil && d.Logger != nil {
		d.Logger.Warn("Failed to send notification", zap.Error(err))
	}
}

func (d Desktop) RecordingStarted()                     { d.send(recordingStarted()) }
func (d Desktop) Transcribing()                         { d.send(transcribing()) }
func (d Desktop) Transcribed(text string)               { d.send(transcribed(text)) }
func (d Desktop) Failed(err error, artifactPath string) { d.send(failed(err, artifactPath)) }
func (d Desktop) Aborted()                              { d.send(aborted()) }
func (d Desktop) Error(msg string) {
	d.send(Message{Title: appName + ": Error", Body: msg, IsError: true})
}
func (d Desktop) Notify(title, message string) { d.send(Message{Title: title, Body: message}) }

// Log writes notifications to a logger instead of the desktop.
type Log struct {
	Logger *zap.Logger
}

func (l Log) log(m Message) {
	logger := l.Logger
	if logger == nil {
		logger = zap.L()
	}
	if m.IsError {
		logger.Error(m.Title+": "+m.Body, zap.String("kind", "notification"))
		return
	}
	logger.Info(m.Title+": "+m.Body, zap.String("kind", "notification"))
}

func (l Log) RecordingStarted()                     { l.log(recordingStarted()) }
func (l Log) Transcribing()                         { l.log(transcribing()) }
func (l Log) Transcribed(text string)               { l.log(transcribed(text)) }
func (l Log) Failed(err error, artifactPath string) { l.log(failed(err, artifactPath)) }
func (l Log) Aborted()                              { l.log(aborted()) }
func (l Log) Error(msg string)                      { l.log(Message{Title: appName + ": Error", Body: msg, IsError: true}) }
func (l Log) Notify(title, message string)          { l.log(Message{Title: title, Body: message}) }

// Nop is a Notifier that does absolutely nothing.
// Useful in unit tests or headless builds.
type Nop struct{}

func (Nop) RecordingStarted()                     {}
func (Nop) Transcribing()                         {}
func (Nop) Transcribed(text string)               {}
func (Nop) Failed(err error, artifactPath string) {}
func (Nop) Aborted()                              {}
func (Nop) Error(msg string)                      {}
func (Nop) Notify(title, message string)          {}

// FromConfig picks a notifier for the [notifications] settings.
func FromConfig(enabled bool, kind string, logger *zap.Logger) Notifier {
	if !enabled {
		return Nop{}
	}
	if logger != nil {
		logger = logger.Named("notify")
	}
	switch kind {
	case "desktop":
		return Desktop{Logger: logger}
	case "log":
		return Log{Logger: logger}
	default:
		return Nop{}
	}
}
