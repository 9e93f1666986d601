package deviceflow

import (
	"github.com/AstroAir/github-cli/internal/environment"
)

// Strategy is how verification instructions are presented to the user.
type Strategy int

const (
	// StrategyBrowserAuto opens the verification URI in a browser
	// automatically and shows the user code.
	StrategyBrowserAuto Strategy = iota

	// StrategyBrowserManual shows the URI and code for the user to open
	// a browser themselves, typically on another machine.
	StrategyBrowserManual

	// StrategyTextOnly prints plain instructions for fully headless
	// environments.
	StrategyTextOnly

	// StrategyQRCode renders a terminal QR code of the verification URI
	// for scanning with a phone.
	StrategyQRCode

	// StrategyFallback is the last-resort plain rendering when nothing
	// about the environment is known.
	StrategyFallback
)

// String makes Strategy satisfy the fmt.Stringer interface.
func (s Strategy) String() string {
	switch s {
	case StrategyBrowserAuto:
		return "browser_auto"
	case StrategyBrowserManual:
		return "browser_manual"
	case StrategyTextOnly:
		return "text_only"
	case StrategyQRCode:
		return "qr_code"
	case StrategyFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// SelectStrategy picks the presentation strategy for the detected
// environment. Precedence, most restrictive first:
//
//  1. Headless environments get plain text.
//  2. SSH sessions and containers get manual browser instructions, since a
//     locally launched browser would open on the wrong machine.
//  3. A usable browser plus display gets the automatic flow.
//  4. A display without a browser gets manual instructions.
//  5. Anything else degrades to plain text.
func SelectStrategy(snap environment.Snapshot) Strategy {
	switch {
	case snap.IsHeadless:
		return StrategyTextOnly
	case snap.IsSSHSession || snap.IsContainer:
		return StrategyBrowserManual
	case snap.HasBrowser && snap.HasDisplay:
		return StrategyBrowserAuto
	case snap.HasDisplay:
		return StrategyBrowserManual
	default:
		return StrategyTextOnly
	}
}
