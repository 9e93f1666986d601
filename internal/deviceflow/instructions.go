package deviceflow

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/AstroAir/github-cli/pkg/logging"
)

// Instructions is everything a renderer needs to guide the user through
// device verification. The device code itself is deliberately absent; only
// the user code is ever shown.
type Instructions struct {
	Strategy Strategy

	// Title is the one-line headline for the verification step.
	Title string

	// Steps are the numbered instructions shown to the user.
	Steps []string

	// VerificationURI is where the user enters the code.
	VerificationURI string

	// UserCode is the short code the user types at the verification URI.
	UserCode string

	// ClipboardCopied is true when the user code was already placed on the
	// clipboard.
	ClipboardCopied bool

	// BrowserOpened is true when a browser was launched automatically.
	BrowserOpened bool

	// QRCode is the terminal rendering of the verification URI for the QR
	// strategy, empty otherwise.
	QRCode string
}

// BuildInstructions renders strategy-specific guidance for the grant.
func BuildInstructions(strategy Strategy, uri, userCode string, clipboardCopied, browserOpened bool) Instructions {
	inst := Instructions{
		Strategy:        strategy,
		VerificationURI: uri,
		UserCode:        userCode,
		ClipboardCopied: clipboardCopied,
		BrowserOpened:   browserOpened,
	}

	codeHint := fmt.Sprintf("Enter the code: %s", userCode)
	if clipboardCopied {
		codeHint = fmt.Sprintf("Enter the code: %s (already copied to your clipboard)", userCode)
	}

	switch strategy {
	case StrategyBrowserAuto:
		inst.Title = "Complete authentication in your browser"
		if browserOpened {
			inst.Steps = []string{
				"Your browser has been opened to " + uri,
				codeHint,
				"Authorize the application when prompted",
				"Return to this terminal once you see the success page",
			}
		} else {
			// Launch failed after strategy selection; fall back to manual
			// wording without changing the strategy.
			inst.Steps = []string{
				"The browser could not be opened automatically",
				"Open " + uri + " yourself",
				codeHint,
				"Authorize the application when prompted",
			}
		}

	case StrategyBrowserManual:
		inst.Title = "Open the verification page in a browser"
		inst.Steps = []string{
			"On a machine with a browser, open " + uri,
			codeHint,
			"Authorize the application when prompted",
			"Keep this terminal open; it will detect the approval",
		}

	case StrategyQRCode:
		inst.Title = "Scan the code with your phone"
		inst.Steps = []string{
			"Scan the QR code below, or open " + uri,
			codeHint,
			"Authorize the application when prompted",
		}
		if qr, err := qrcode.New(uri, qrcode.Low); err == nil {
			inst.QRCode = qr.ToSmallString(false)
		} else {
			logging.Warn("DeviceFlow", "QR rendering failed, using text instructions: %v", err)
		}

	default: // StrategyTextOnly, StrategyFallback
		inst.Title = "Authenticate from another device"
		inst.Steps = []string{
			"On any device with a browser, visit " + uri,
			codeHint,
			"Authorize the application when prompted",
			"Authentication completes here automatically after approval",
		}
	}

	return inst
}
