//go:build !cgo || noportaudio

package capture

// DefaultDriver returns nil: this build carries no native audio binding, so
// detection goes straight to the external tools.
func DefaultDriver() Driver {
	return nil
}
