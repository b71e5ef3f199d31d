package capture

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Driver is the slice of a native audio library the capture loop needs.
type Driver interface {
	Initialize() error
	Terminate() error
	OpenInput(f Format, framesPerBuffer int) (InputStream, error)
}

// InputStream is an opened microphone stream. Read blocks until one chunk of
// framesPerBuffer frames is available and returns its raw PCM bytes; the
// returned slice may be reused by the next Read.
type InputStream interface {
	Start() error
	Read() ([]byte, error)
	Stop() error
	Close() error
}

// readRetryDelay paces the capture loop while reads keep failing.
var readRetryDelay = 10 * time.Millisecond

// smokeTest initializes and immediately tears down the driver.
func smokeTest(d Driver) error {
	if err := d.Initialize(); err != nil {
		return err
	}
	return d.Terminate()
}

// nativeHandler records through a Driver into an in-memory buffer.
type nativeHandler struct {
	backend     Backend
	driver      Driver
	format      Format
	chunkFrames int
	tempDir     string
	logger      *zap.Logger
	events      *eventSink

	stream InputStream
	quit   chan struct{}
	wg     sync.WaitGroup

	// buf is appended to only by the capture goroutine and read only after
	// that goroutine has been joined.
	buf    []byte
	chunks int
}

func (h *nativeHandler) start() error {
	if err := h.driver.Initialize(); err != nil {
		return &DeviceError{Backend: h.backend, Err: err}
	}

	stream, err := h.driver.OpenInput(h.format, h.chunkFrames)
	if err != nil {
		_ = h.driver.Terminate()
		return &DeviceError{Backend: h.backend, Err: err}
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = h.driver.Terminate()
		return &DeviceError{Backend: h.backend, Err: err}
	}

	h.stream = stream
	h.buf = nil
	h.chunks = 0
	h.quit = make(chan struct{})

	h.wg.Add(1)
	go h.captureLoop(stream, h.quit)
	return nil
}

func (h *nativeHandler) captureLoop(stream InputStream, quit <-chan struct{}) {
	defer h.wg.Done()

	for {
		select {
		case <-quit:
			return
		default:
		}

		chunk, err := stream.Read()
		if err != nil {
			// A dropped chunk must not abort the recording.
			h.events.emit(Event{Type: EventChunkDropped, Err: err})
			select {
			case <-quit:
				return
			case <-time.After(readRetryDelay):
			}
			continue
		}
		h.buf = append(h.buf, chunk...)
		h.chunks++
	}
}

func (h *nativeHandler) stop() (*Artifact, error) {
	close(h.quit)
	h.wg.Wait()

	if err := h.stream.Stop(); err != nil {
		h.logger.Warn("Failed to stop stream", zap.Error(err))
	}
	if err := h.stream.Close(); err != nil {
		h.logger.Warn("Failed to close stream", zap.Error(err))
	}
	if err := h.driver.Terminate(); err != nil {
		h.logger.Warn("Failed to terminate audio driver", zap.Error(err))
	}
	h.stream = nil

	pcm := h.buf
	h.buf = nil

	h.logger.Debug("Serializing recording",
		zap.Int("chunks", h.chunks), zap.Int("bytes", len(pcm)))

	path := tempPath(h.tempDir)
	if err := WriteWAV(path, h.format, pcm); err != nil {
		_ = os.Remove(path)
		return nil, &EncodeError{Path: path, Err: err}
	}

	art, err := newArtifact(path, h.backend)
	if err != nil {
		_ = os.Remove(path)
		return nil, &EncodeError{Path: path, Err: err}
	}
	return art, nil
}
