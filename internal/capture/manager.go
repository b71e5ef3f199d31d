package capture

import (
	"runtime"
	"sync"

	"github.com/leonardotrapani/opentranscribe/internal/deps"
	"go.uber.org/zap"
)

// Options configures a Manager.
type Options struct {
	// TempDir receives recordings. Empty means os.TempDir().
	TempDir string
	// ChunkFrames is the native read size in frames.
	ChunkFrames int
	// Driver overrides the native binding. When nil, DefaultDriver is used
	// unless DisableNative is set.
	Driver        Driver
	DisableNative bool
	GOOS          string
	LookPath      deps.LookPathFunc
	// Command overrides how external recorders are spawned.
	Command     CommandFunc
	EventBuffer int
	Logger      *zap.Logger
}

// DefaultChunkFrames matches the buffer size the recorder has always used.
const DefaultChunkFrames = 1024

// handler is the per-backend start/stop capability.
type handler interface {
	start() error
	stop() (*Artifact, error)
}

type unavailableHandler struct{}

func (unavailableHandler) start() error             { return ErrUnavailable }
func (unavailableHandler) stop() (*Artifact, error) { return nil, ErrNotRecording }

// Manager owns the capture lifecycle for one backend. At most one session
// is active at a time.
type Manager struct {
	backend Backend
	logger  *zap.Logger
	events  *eventSink

	mu        sync.Mutex // guards recording and serializes start/stop
	recording bool
	handler   handler
}

// NewManager detects the backend and returns a Manager bound to it.
func NewManager(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("capture")

	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	driver := opts.Driver
	if driver == nil && !opts.DisableNative {
		driver = DefaultDriver()
	}
	if opts.ChunkFrames <= 0 {
		opts.ChunkFrames = DefaultChunkFrames
	}

	backend := Detect(DetectOptions{
		GOOS:     goos,
		Driver:   driver,
		LookPath: opts.LookPath,
		Logger:   logger,
	})

	m := &Manager{
		backend: backend,
		logger:  logger,
		events:  newEventSink(opts.EventBuffer),
	}

	switch backend.Kind {
	case NativeStream:
		m.handler = &nativeHandler{
			backend:     backend,
			driver:      driver,
			format:      DefaultFormat,
			chunkFrames: opts.ChunkFrames,
			tempDir:     opts.TempDir,
			logger:      logger,
			events:      m.events,
		}
	case ExternalProcess:
		command := opts.Command
		if command == nil {
			command = defaultCommand(goos, DefaultFormat)
		}
		m.handler = &processHandler{
			backend: backend,
			tempDir: opts.TempDir,
			command: command,
			logger:  logger,
			events:  m.events,
		}
	default:
		m.handler = unavailableHandler{}
	}

	return m
}

// Backend returns the backend chosen at construction.
func (m *Manager) Backend() Backend {
	return m.backend
}

// CanRecord reports whether a usable backend was found.
func (m *Manager) CanRecord() bool {
	return m.backend.Kind != Unavailable
}

func (m *Manager) IsRecording() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recording
}

// Events delivers status messages from the capture side. Events are dropped
// if the channel is full.
func (m *Manager) Events() <-chan Event {
	return m.events.ch
}

// Start begins a capture session and returns once the backend is acquired.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.CanRecord() {
		return ErrUnavailable
	}
	if m.recording {
		return ErrAlreadyRecording
	}

	if err := m.handler.start(); err != nil {
		m.logger.Error("Failed to start", zap.String("backend", m.backend.String()), zap.Error(err))
		return err
	}

	m.recording = true
	m.events.emit(Event{Type: EventStarted})
	m.logger.Info("Recording started", zap.String("backend", m.backend.String()))
	return nil
}

// Stop ends the active session and returns the finished artifact. The
// session is over even when an error is returned.
func (m *Manager) Stop() (*Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.recording {
		return nil, ErrNotRecording
	}
	m.recording = false

	art, err := m.handler.stop()
	m.events.emit(Event{Type: EventStopped, Err: err})
	if err != nil {
		m.logger.Error("Failed to stop", zap.Error(err))
		return nil, err
	}

	m.logger.Info("Recording stopped",
		zap.String("path", art.Path), zap.Int64("bytes", art.Bytes))
	return art, nil
}

// Abort ends the active session, if any, and discards its recording.
func (m *Manager) Abort() {
	art, err := m.Stop()
	if err != nil {
		return
	}
	if err := art.Remove(); err != nil {
		m.logger.Warn("Failed to remove aborted recording", zap.Error(err))
	}
}
