package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/leonardotrapani/opentranscribe/internal/capture"
	"github.com/leonardotrapani/opentranscribe/internal/transcriber"
)

type Status string

const (
	Idle         Status = "idle"
	Recording    Status = "recording"
	Transcribing Status = "transcribing"
	Done         Status = "done"
	Failed       Status = "failed"
	Cancelled    Status = "cancelled"
)

// Terminal reports whether no further transitions can happen.
func (s Status) Terminal() bool {
	return s == Done || s == Failed || s == Cancelled
}

var (
	ErrSessionStarted = errors.New("session already started")
	ErrNotRecording   = errors.New("session is not recording")
)

// Recorder is the capture side of a session. *capture.Manager implements it.
type Recorder interface {
	Start() error
	Stop() (*capture.Artifact, error)
	Abort()
	Backend() capture.Backend
}

// Transcriber turns an artifact into text. *transcriber.Pipeline implements it.
type Transcriber interface {
	Transcribe(ctx context.Context, req transcriber.Request) (string, error)
}

type Config struct {
	Languages       []string
	DefaultLanguage string
	Prompt          string
	// MaxDuration finishes the recording automatically. Zero disables it.
	MaxDuration time.Duration
}

// Result describes a finished session. On failure the recording is kept on
// disk at ArtifactPath so it can be transcribed again by hand.
type Result struct {
	Text         string
	ArtifactPath string
	Languages    []string
	Prompt       string
	Backend      string
	Duration     time.Duration
	Elapsed      time.Duration
	Err          error
}

// Update is pushed on every status transition.
type Update struct {
	Status Status
	Time   time.Time
	// Result is set on terminal updates.
	Result *Result
}

// Session runs one record-then-transcribe cycle. It is single use.
type Session struct {
	mu          sync.Mutex
	status      Status
	recorder    Recorder
	transcriber Transcriber
	cfg         Config
	logger      *zap.Logger

	updates   chan Update
	startedAt time.Time
	timer     *time.Timer
	cancel    context.CancelFunc
	artifact  string
	duration  time.Duration
	done      chan struct{}
	result    Result

	// inflight counts Finish calls still transcribing or cleaning up.
	inflight sync.WaitGroup
}

func New(rec Recorder, tr Transcriber, cfg Config, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		status:      Idle,
		recorder:    rec,
		transcriber: tr,
		cfg:         cfg,
		logger:      logger.Named("pipeline"),
		updates:     make(chan Update, 8),
		done:        make(chan struct{}),
	}
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Updates delivers status transitions. The channel is closed after the
// terminal update.
func (s *Session) Updates() <-chan Update {
	return s.updates
}

// Done is closed once the session reaches a terminal status.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the session is terminal and any Finish call has
// returned, including remote cleanup after a cancel.
func (s *Session) Wait() {
	<-s.done
	s.inflight.Wait()
}

// Result returns the outcome once Done is closed.
func (s *Session) Result() Result {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Start begins recording and returns immediately.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != Idle {
		return ErrSessionStarted
	}
	if err := s.recorder.Start(); err != nil {
		s.logger.Error("Recording error", zap.Error(err))
		s.finishLocked(Failed, Result{Backend: s.recorder.Backend().String(), Err: err})
		return err
	}

	s.startedAt = time.Now()
	s.setStatusLocked(Recording, nil)
	s.logger.Info("Recording started", zap.Stringer("backend", s.recorder.Backend()))

	if s.cfg.MaxDuration > 0 {
		s.timer = time.AfterFunc(s.cfg.MaxDuration, func() {
			s.logger.Info("Maximum recording duration reached", zap.Duration("max", s.cfg.MaxDuration))
			if _, err := s.Finish(context.Background()); err != nil && !errors.Is(err, ErrNotRecording) {
				s.logger.Warn("Automatic finish failed", zap.Error(err))
			}
		})
	}
	return nil
}

// Finish stops the recording and transcribes it, blocking until the result
// is known. The returned error equals Result.Err.
func (s *Session) Finish(ctx context.Context) (Result, error) {
	s.mu.Lock()
	if s.status != Recording {
		s.mu.Unlock()
		return Result{}, ErrNotRecording
	}
	s.stopTimerLocked()
	s.inflight.Add(1)
	defer s.inflight.Done()

	backend := s.recorder.Backend().String()
	artifact, err := s.recorder.Stop()
	duration := time.Since(s.startedAt)
	if err != nil {
		s.logger.Error("Failed to stop recording", zap.Error(err))
		res := Result{Backend: backend, Duration: duration, Err: err}
		s.finishLocked(Failed, res)
		s.mu.Unlock()
		return res, err
	}

	workCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.artifact = artifact.Path
	s.duration = duration
	s.setStatusLocked(Transcribing, nil)
	s.mu.Unlock()
	defer cancel()

	res := s.transcribe(workCtx, artifact, backend, duration)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == Cancelled {
		// Cancel already reported the recording as kept.
		return s.result, s.result.Err
	}
	status := Done
	if res.Err != nil {
		status = Failed
	} else if err := artifact.Remove(); err != nil {
		s.logger.Warn("Failed to remove recording", zap.String("artifact", artifact.Path), zap.Error(err))
	} else {
		res.ArtifactPath = ""
	}
	s.finishLocked(status, res)
	return res, res.Err
}

// transcribe runs on the Finish caller's goroutine, after the capture side
// has fully stopped. The artifact is left for Finish to remove.
func (s *Session) transcribe(ctx context.Context, artifact *capture.Artifact, backend string, duration time.Duration) Result {
	res := Result{
		ArtifactPath: artifact.Path,
		Backend:      backend,
		Duration:     duration,
	}

	req, err := transcriber.NewRequest(artifact.Path, s.cfg.Languages, s.cfg.Prompt, s.cfg.DefaultLanguage)
	if err != nil {
		res.Err = err
		return res
	}
	res.Languages = req.Languages
	res.Prompt = req.PromptName

	s.logger.Info("Transcribing",
		zap.String("artifact", artifact.Path),
		zap.Int64("bytes", artifact.Bytes),
		zap.Strings("languages", req.Languages),
		zap.String("prompt", req.PromptName))

	start := time.Now()
	res.Text, res.Err = s.transcriber.Transcribe(ctx, req)
	res.Elapsed = time.Since(start)

	if res.Err != nil {
		s.logger.Error("Transcription failed, recording kept",
			zap.String("artifact", artifact.Path),
			zap.Error(res.Err))
	}
	return res
}

// Cancel aborts the session. While recording, the audio is discarded. While
// transcribing, the request is cancelled and the recording is kept.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case Idle:
		s.finishLocked(Cancelled, Result{Err: context.Canceled})
	case Recording:
		s.stopTimerLocked()
		s.recorder.Abort()
		s.logger.Info("Recording aborted")
		s.finishLocked(Cancelled, Result{
			Backend:  s.recorder.Backend().String(),
			Duration: time.Since(s.startedAt),
			Err:      context.Canceled,
		})
	case Transcribing:
		if s.cancel != nil {
			s.cancel()
		}
		s.logger.Info("Transcription cancelled, recording kept", zap.String("artifact", s.artifact))
		s.finishLocked(Cancelled, Result{
			ArtifactPath: s.artifact,
			Backend:      s.recorder.Backend().String(),
			Duration:     s.duration,
			Err:          context.Canceled,
		})
	}
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) setStatusLocked(status Status, res *Result) {
	s.status = status
	select {
	case s.updates <- Update{Status: status, Time: time.Now(), Result: res}:
	default:
		s.logger.Warn("Update dropped", zap.String("status", string(status)))
	}
}

func (s *Session) finishLocked(status Status, res Result) {
	s.result = res
	r := res
	s.setStatusLocked(status, &r)
	close(s.updates)
	close(s.done)
}
