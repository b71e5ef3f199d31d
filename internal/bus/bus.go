package bus

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const SockName = "control.sock"
const PidName = "opentranscribe.pid"
const ProtoVer = "0.2"

// Commands understood by the daemon. Each is sent as one byte plus newline.
const (
	CmdToggle  byte = 't'
	CmdCancel  byte = 'c'
	CmdStatus  byte = 's'
	CmdVersion byte = 'v'
	CmdQuit    byte = 'q'
)

// ErrDaemonNotRunning is returned when no daemon listens on the socket.
var ErrDaemonNotRunning = errors.New("daemon not running: start it with 'opentranscribe serve'")

const dialTimeout = 2 * time.Second

func appDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "opentranscribe"), nil
}

// ~/.cache/opentranscribe/control.sock
func getSockPath() (string, error) {
	dir, err := appDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SockName), nil
}

// ~/.cache/opentranscribe/opentranscribe.pid
func getPidPath() (string, error) {
	dir, err := appDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, PidName), nil
}

func SockPath() (string, error) { return getSockPath() }
func PidPath() (string, error)  { return getPidPath() }

type socketManager struct {
	path string
}

func (s *socketManager) listen() (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return nil, err
	}
	_ = os.Remove(s.path) // stale socket from last run
	return net.Listen("unix", s.path)
}

func (s *socketManager) dial() (net.Conn, error) {
	return net.DialTimeout("unix", s.path, dialTimeout)
}

func (s *socketManager) sendCommand(cmd byte) (string, error) {
	c, err := s.dial()
	if err != nil {
		return "", fmt.Errorf("%w (%v)", ErrDaemonNotRunning, err)
	}
	defer c.Close()

	if _, err := c.Write([]byte{cmd, '\n'}); err != nil {
		return "", err
	}

	return bufio.NewReader(c).ReadString('\n')
}

type pidManager struct {
	path string
}

func (p *pidManager) create() error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(p.path, []byte(strconv.Itoa(os.Getpid())), 0o600)
}

func (p *pidManager) remove() error {
	return os.Remove(p.path)
}

// checkExisting fails if the PID file names a live process. Stale or
// unreadable PID files are removed.
func (p *pidManager) checkExisting() error {
	data, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		_ = os.Remove(p.path)
		return nil
	}

	if !p.isProcessAlive(pid) {
		_ = os.Remove(p.path)
		return nil
	}

	return fmt.Errorf("daemon already running with PID %d", pid)
}

func (p *pidManager) isProcessAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// signal 0 checks for existence without delivering anything
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

// Endpoint groups the socket and PID file of one daemon instance.
type Endpoint struct {
	sock socketManager
	pid  pidManager
}

// NewEndpoint places the socket and PID file inside dir.
func NewEndpoint(dir string) *Endpoint {
	return &Endpoint{
		sock: socketManager{path: filepath.Join(dir, SockName)},
		pid:  pidManager{path: filepath.Join(dir, PidName)},
	}
}

// DefaultEndpoint lives in the user cache directory.
func DefaultEndpoint() (*Endpoint, error) {
	dir, err := appDir()
	if err != nil {
		return nil, err
	}
	return NewEndpoint(dir), nil
}

func (e *Endpoint) SockPath() string                     { return e.sock.path }
func (e *Endpoint) Listen() (net.Listener, error)        { return e.sock.listen() }
func (e *Endpoint) Dial() (net.Conn, error)              { return e.sock.dial() }
func (e *Endpoint) SendCommand(cmd byte) (string, error) { return e.sock.sendCommand(cmd) }
func (e *Endpoint) CheckExistingDaemon() error           { return e.pid.checkExisting() }
func (e *Endpoint) CreatePidFile() error                 { return e.pid.create() }
func (e *Endpoint) RemovePidFile() error                 { return e.pid.remove() }

func withDefault[T any](fn func(e *Endpoint) (T, error)) (T, error) {
	e, err := DefaultEndpoint()
	if err != nil {
		var zero T
		return zero, err
	}
	return fn(e)
}

func Listen() (net.Listener, error) {
	return withDefault(func(e *Endpoint) (net.Listener, error) { return e.Listen() })
}

func Dial() (net.Conn, error) {
	return withDefault(func(e *Endpoint) (net.Conn, error) { return e.Dial() })
}

func SendCommand(cmd byte) (string, error) {
	return withDefault(func(e *Endpoint) (string, error) { return e.SendCommand(cmd) })
}

func CheckExistingDaemon() error {
	_, err := withDefault(func(e *Endpoint) (struct{}, error) { return struct{}{}, e.CheckExistingDaemon() })
	return err
}

func CreatePidFile() error {
	_, err := withDefault(func(e *Endpoint) (struct{}, error) { return struct{}{}, e.CreatePidFile() })
	return err
}

func RemovePidFile() error {
	_, err := withDefault(func(e *Endpoint) (struct{}, error) { return struct{}{}, e.RemovePidFile() })
	return err
}

// Response is a parsed daemon reply such as "STATUS status=idle backend=FFmpeg".
type Response struct {
	Kind   string // OK, STATUS or ERR
	Fields map[string]string
	Raw    string
}

func ParseResponse(line string) Response {
	line = strings.TrimSpace(line)
	resp := Response{Raw: line, Fields: make(map[string]string)}

	kind, rest, _ := strings.Cut(line, " ")
	resp.Kind = kind
	for _, tok := range splitFields(rest) {
		k, v, ok := strings.Cut(tok, "=")
		if !ok {
			resp.Fields[tok] = ""
			continue
		}
		if unq, err := strconv.Unquote(v); err == nil {
			v = unq
		}
		resp.Fields[k] = v
	}
	return resp
}

// splitFields splits on spaces outside double-quoted values.
func splitFields(s string) []string {
	var fields []string
	var cur strings.Builder
	inQuote, escaped := false, false
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && inQuote:
			escaped = true
		case r == '"':
			inQuote = !inQuote
		case r == ' ' && !inQuote:
			if cur.Len() > 0 {
				fields = append(fields, cur.String())
				cur.Reset()
			}
			continue
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	return fields
}

// Err returns the reply as an error when the daemon answered ERR.
func (r Response) Err() error {
	if r.Kind != "ERR" {
		return nil
	}
	return errors.New(strings.TrimSpace(strings.TrimPrefix(r.Raw, "ERR")))
}
