//go:build windows

package capture

import "os"

// interrupt stops the recorder. Windows has no SIGINT for child processes.
func interrupt(p *os.Process) error {
	return p.Kill()
}
