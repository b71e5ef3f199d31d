package daemon

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/leonardotrapani/opentranscribe/internal/bus"
	"github.com/leonardotrapani/opentranscribe/internal/config"
	"github.com/leonardotrapani/opentranscribe/internal/history"
	"github.com/leonardotrapani/opentranscribe/internal/notify"
	"github.com/leonardotrapani/opentranscribe/internal/pipeline"
)

// HistoryStore persists finished sessions. *history.Store implements it.
type HistoryStore interface {
	Store(ctx context.Context, rec *history.Record) (int64, error)
}

type Options struct {
	Config         *config.Manager
	Recorder       pipeline.Recorder
	NewTranscriber pipeline.TranscriberFactory
	// Notifier overrides the notifier chosen from the config.
	Notifier  notify.Notifier
	History   HistoryStore
	Clipboard func(text string) error
	Endpoint  *bus.Endpoint
	Logger    *zap.Logger
}

type Daemon struct {
	mu       sync.Mutex
	opts     Options
	notifier notify.Notifier
	session  *pipeline.Session
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(opts Options) (*Daemon, error) {
	if opts.Config == nil || opts.Recorder == nil || opts.NewTranscriber == nil {
		return nil, errors.New("daemon: config, recorder and transcriber factory are required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Endpoint == nil {
		e, err := bus.DefaultEndpoint()
		if err != nil {
			return nil, err
		}
		opts.Endpoint = e
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Daemon{
		opts:   opts,
		logger: opts.Logger.Named("daemon"),
		ctx:    ctx,
		cancel: cancel,
	}
	d.notifier = d.notifierFor(opts.Config.GetConfig())
	return d, nil
}

func (d *Daemon) notifierFor(cfg *config.Config) notify.Notifier {
	if d.opts.Notifier != nil {
		return d.opts.Notifier
	}
	return notify.FromConfig(cfg.Notifications.Enabled, cfg.Notifications.Type, d.opts.Logger)
}

func (d *Daemon) getNotifier() notify.Notifier {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.notifier
}

func (d *Daemon) Status() pipeline.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.statusLocked()
}

func (d *Daemon) statusLocked() pipeline.Status {
	if d.session == nil {
		return pipeline.Idle
	}
	st := d.session.Status()
	if st.Terminal() {
		return pipeline.Idle
	}
	return st
}

// Stop asks Run to return.
func (d *Daemon) Stop() {
	d.cancel()
}

func (d *Daemon) Run() error {
	endpoint := d.opts.Endpoint
	if err := endpoint.CheckExistingDaemon(); err != nil {
		return err
	}

	ln, err := endpoint.Listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	if err := endpoint.CreatePidFile(); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer endpoint.RemovePidFile()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			d.logger.Info("Received signal, shutting down gracefully", zap.Stringer("signal", sig))
			d.cancel()
		case <-d.ctx.Done():
		}
	}()

	d.opts.Config.OnChange(func(cfg *config.Config) {
		d.mu.Lock()
		d.notifier = d.notifierFor(cfg)
		d.mu.Unlock()
	})
	if err := d.opts.Config.StartWatching(d.ctx); err != nil {
		d.logger.Warn("Config hot reload unavailable", zap.Error(err))
	}
	defer d.opts.Config.Stop()

	// Close the listener when context is done
	go func() {
		<-d.ctx.Done()
		ln.Close()
	}()

	d.logger.Info("Daemon started, listening on socket",
		zap.String("socket", endpoint.SockPath()),
		zap.Stringer("backend", d.opts.Recorder.Backend()))

	for {
		c, err := ln.Accept()
		if err != nil {
			if d.ctx.Err() != nil {
				d.logger.Info("Shutdown requested")
				d.shutdown()
				return nil
			}
			d.logger.Error("Accept error", zap.Error(err))
			d.shutdown()
			return fmt.Errorf("accept failed: %w", err)
		}
		go d.handle(c)
	}
}

// shutdown aborts any active session and waits for result delivery and for
// the in-flight transcription to release its remote file.
func (d *Daemon) shutdown() {
	d.mu.Lock()
	s := d.session
	d.mu.Unlock()
	if s != nil {
		s.Cancel()
		s.Wait()
	}
	d.wg.Wait()
}

func (d *Daemon) handle(c net.Conn) {
	defer c.Close()

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		d.logger.Warn("Client read error", zap.Error(err))
		fmt.Fprintf(c, "ERR read_error: %v\n", err)
		return
	}
	if len(line) == 0 {
		fmt.Fprint(c, "ERR empty\n")
		return
	}
	cmd := line[0]

	switch cmd {
	case bus.CmdToggle:
		fmt.Fprint(c, d.toggle())
	case bus.CmdCancel:
		fmt.Fprint(c, d.cancelSession())
	case bus.CmdStatus:
		fmt.Fprintf(c, "STATUS status=%s backend=%q\n", d.Status(), d.opts.Recorder.Backend().String())
	case bus.CmdVersion:
		fmt.Fprintf(c, "STATUS proto=%s\n", bus.ProtoVer)
	case bus.CmdQuit:
		fmt.Fprint(c, "OK quitting\n")
		d.cancel()
	default:
		d.logger.Warn("Unknown command", zap.String("cmd", string(cmd)))
		fmt.Fprintf(c, "ERR unknown=%q\n", cmd)
	}
}

// toggle starts a session when idle and finishes it when recording.
func (d *Daemon) toggle() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.statusLocked() {
	case pipeline.Idle:
		return d.startLocked()

	case pipeline.Recording:
		s := d.session
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			// the outcome is delivered by watch
			_, _ = s.Finish(d.ctx)
		}()
		return "OK toggled status=transcribing\n"

	default:
		return fmt.Sprintf("ERR busy status=%s\n", d.statusLocked())
	}
}

func (d *Daemon) startLocked() string {
	cfg := d.opts.Config.GetConfig()
	n := d.notifier

	tr, err := d.opts.NewTranscriber(d.ctx, cfg)
	if err != nil {
		d.logger.Error("Cannot create transcriber", zap.Error(err))
		go n.Error(err.Error())
		return fmt.Sprintf("ERR transcriber=%q\n", err.Error())
	}

	s := pipeline.New(d.opts.Recorder, tr, pipeline.ConfigFrom(cfg), d.opts.Logger)
	if err := s.Start(); err != nil {
		d.logger.Error("Cannot start recording", zap.Error(err))
		go n.Error(fmt.Sprintf("Cannot start recording: %v", err))
		return fmt.Sprintf("ERR recording=%q\n", err.Error())
	}

	d.session = s
	d.wg.Add(1)
	go d.watch(s, cfg)
	return "OK toggled status=recording\n"
}

func (d *Daemon) cancelSession() string {
	d.mu.Lock()
	s := d.session
	status := d.statusLocked()
	d.mu.Unlock()

	if status == pipeline.Idle {
		return "ERR idle\n"
	}
	s.Cancel()
	return "OK cancelled\n"
}

// watch turns session updates into notifications and delivers the result.
func (d *Daemon) watch(s *pipeline.Session, cfg *config.Config) {
	defer d.wg.Done()

	for u := range s.Updates() {
		n := d.getNotifier()
		switch u.Status {
		case pipeline.Recording:
			n.RecordingStarted()
		case pipeline.Transcribing:
			n.Transcribing()
		case pipeline.Done:
			d.deliver(u.Result.Text, cfg)
			n.Transcribed(u.Result.Text)
		case pipeline.Failed:
			n.Failed(u.Result.Err, u.Result.ArtifactPath)
		case pipeline.Cancelled:
			n.Aborted()
		}

		if u.Status.Terminal() && u.Result != nil {
			d.record(u.Status, *u.Result, cfg)
		}
	}
}

func (d *Daemon) deliver(text string, cfg *config.Config) {
	if !cfg.Output.Clipboard || d.opts.Clipboard == nil {
		return
	}
	if err := d.opts.Clipboard(text); err != nil {
		d.logger.Warn("Failed to copy transcription to clipboard", zap.Error(err))
	}
}

func (d *Daemon) record(status pipeline.Status, res pipeline.Result, cfg *config.Config) {
	if !cfg.Output.History || d.opts.History == nil {
		return
	}
	if _, err := d.opts.History.Store(context.WithoutCancel(d.ctx), history.FromResult(status, res)); err != nil {
		d.logger.Warn("Failed to store history record", zap.Error(err))
	}
}
