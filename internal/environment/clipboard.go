package environment

import (
	"github.com/atotto/clipboard"

	"github.com/AstroAir/github-cli/pkg/logging"
)

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

// CopyToClipboard places text on the system clipboard. Returns false when
// the platform has no usable clipboard; the caller adjusts its instructions
// instead of failing.
func (d *Detector) CopyToClipboard(text string) bool {
	if clipboard.Unsupported {
		return false
	}
	if err := writeClipboard(text); err != nil {
		logging.Debug("Environment", "clipboard copy failed: %v", err)
		return false
	}
	return true
}
