//go:build !windows

package capture

import "os"

// interrupt asks the recorder to finish its file and exit.
func interrupt(p *os.Process) error {
	return p.Signal(os.Interrupt)
}
