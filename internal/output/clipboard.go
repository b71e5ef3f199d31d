package output

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
)

// writeAll is swapped out in tests.
var writeAll = clipboard.WriteAll

// CopyToClipboard places text on the system clipboard. Blank text is skipped
// so an empty result never wipes what the user had copied.
func CopyToClipboard(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard not supported: install xclip, xsel or wl-clipboard")
	}
	if err := writeAll(text); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}
