package capture

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// CommandFunc builds the recorder process for backend writing to output.
type CommandFunc func(b Backend, output string) *exec.Cmd

// exitTimeout bounds how long Stop waits after interrupting the recorder
// before killing it.
const exitTimeout = 5 * time.Second

// processHandler records by running an external tool that writes the WAV
// file itself.
type processHandler struct {
	backend Backend
	tempDir string
	command CommandFunc
	logger  *zap.Logger
	events  *eventSink

	cmd    *exec.Cmd
	output string
	exited chan error
}

func defaultCommand(goos string, f Format) CommandFunc {
	return func(b Backend, output string) *exec.Cmd {
		name := b.Path
		if name == "" {
			name = b.Tool.Command()
		}
		return exec.Command(name, toolArgs(b.Tool, goos, f, output)...)
	}
}

func (h *processHandler) start() error {
	output := tempPath(h.tempDir)
	cmd := h.command(h.backend, output)
	// nil stdio is wired to the null device.
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return &DeviceError{Backend: h.backend, Err: fmt.Errorf("start %s: %w", h.backend.Tool, err)}
	}

	exited := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		exited <- err
		h.events.emit(Event{Type: EventProcessExited, Err: err})
	}()

	h.cmd = cmd
	h.output = output
	h.exited = exited

	h.logger.Debug("Recorder started",
		zap.String("tool", string(h.backend.Tool)),
		zap.Int("pid", cmd.Process.Pid),
		zap.String("output", output))
	return nil
}

func (h *processHandler) stop() (*Artifact, error) {
	cmd, output, exited := h.cmd, h.output, h.exited
	h.cmd, h.output, h.exited = nil, "", nil

	if err := interrupt(cmd.Process); err != nil {
		h.logger.Debug("Interrupt recorder", zap.Error(err))
	}

	select {
	case err := <-exited:
		if err != nil {
			// Recorders exit non-zero when signalled.
			h.logger.Debug("Recorder exited", zap.Error(err))
		}
	case <-time.After(exitTimeout):
		h.logger.Warn("Recorder did not exit, killing it", zap.Int("pid", cmd.Process.Pid))
		_ = cmd.Process.Kill()
		<-exited
	}

	info, err := os.Stat(output)
	if err != nil {
		return nil, ErrNoOutputProduced
	}
	if info.Size() == 0 {
		_ = os.Remove(output)
		return nil, ErrNoOutputProduced
	}

	return newArtifact(output, h.backend)
}
