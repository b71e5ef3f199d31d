package capture

import "time"

type EventType string

const (
	EventStarted       EventType = "started"
	EventStopped       EventType = "stopped"
	EventChunkDropped  EventType = "chunk_dropped"
	EventProcessExited EventType = "process_exited"
)

// Event is a status message pushed by the capture side for the foreground
// to consume.
type Event struct {
	Type EventType
	Err  error
	Time time.Time
}

type eventSink struct {
	ch chan Event
}

func newEventSink(size int) *eventSink {
	if size <= 0 {
		size = 16
	}
	return &eventSink{ch: make(chan Event, size)}
}

// emit never blocks; events are dropped when nobody is listening.
func (s *eventSink) emit(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	select {
	case s.ch <- ev:
	default:
	}
}
