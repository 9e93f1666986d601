// Package cli renders the authentication flow for the terminal: strategy
// instructions, a polling spinner with progress narration, retry notices,
// and the typed errors that drive the process exit codes.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"

	"github.com/AstroAir/github-cli/internal/deviceflow"
	"github.com/AstroAir/github-cli/internal/progress"
	"github.com/AstroAir/github-cli/internal/retry"
)

// compactWidth is the terminal width below which the detailed step list is
// collapsed to the essentials.
const compactWidth = 60

var (
	codeStyle    = text.Colors{text.Bold, text.FgHiYellow}
	titleStyle   = text.Colors{text.Bold}
	successStyle = text.Colors{text.FgGreen}
	noticeStyle  = text.Colors{text.FgYellow}
)

// ConsoleRenderer narrates a device flow run on the terminal. It implements
// the flow's display interface and consumes its transition and retry
// observers.
type ConsoleRenderer struct {
	out       io.Writer
	quiet     bool
	width     func() int
	spin      *spinner.Spinner
	estimator *progress.Estimator
}

// NewConsoleRenderer creates a renderer writing to out. In quiet mode only
// the instructions and the final outcome are printed.
func NewConsoleRenderer(out io.Writer, quiet bool) *ConsoleRenderer {
	return &ConsoleRenderer{
		out:       out,
		quiet:     quiet,
		width:     terminalWidth,
		estimator: progress.NewEstimator(),
	}
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// ShowInstructions prints the verification guidance for the selected
// strategy. Narrow terminals get a compact rendering.
func (r *ConsoleRenderer) ShowInstructions(inst deviceflow.Instructions) {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, titleStyle.Sprint(inst.Title))

	if r.width() < compactWidth {
		fmt.Fprintf(r.out, "%s\n", inst.VerificationURI)
		fmt.Fprintf(r.out, "Code: %s\n", codeStyle.Sprint(inst.UserCode))
	} else {
		for i, step := range inst.Steps {
			fmt.Fprintf(r.out, "  %d. %s\n", i+1, step)
		}
		fmt.Fprintf(r.out, "\n  Your one-time code: %s\n", codeStyle.Sprint(inst.UserCode))
	}

	if inst.QRCode != "" {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, inst.QRCode)
	}
	fmt.Fprintln(r.out)
}

// ObserveTransition reacts to flow state changes: it feeds the progress
// estimator and manages the polling spinner.
func (r *ConsoleRenderer) ObserveTransition(tr deviceflow.Transition) {
	r.estimator.Observe(tr.To)

	if r.quiet {
		return
	}

	switch tr.To {
	case deviceflow.StateRequestingCode:
		fmt.Fprintln(r.out, "Requesting device code...")

	case deviceflow.StatePollingToken:
		r.startSpinner("Waiting for approval" + r.etaSuffix())

	case deviceflow.StateValidating:
		r.updateSpinner("Verifying credentials")

	case deviceflow.StateComplete:
		r.stopSpinner()
		fmt.Fprintln(r.out, successStyle.Sprint("✓ Authentication complete"))

	case deviceflow.StateError:
		r.stopSpinner()
	}
}

// ObserveRetry narrates retry waits so long pauses do not look like hangs.
func (r *ConsoleRenderer) ObserveRetry(a retry.Attempt) {
	if r.quiet {
		return
	}

	r.stopSpinner()
	if a.RateLimited {
		fmt.Fprintln(r.out, noticeStyle.Sprintf(
			"Rate limited; waiting %s before continuing", a.Delay.Round(time.Second)))
		return
	}
	fmt.Fprintln(r.out, noticeStyle.Sprintf(
		"Request failed (attempt %d/%d); retrying in %s", a.Attempt, a.MaxAttempts, a.Delay.Round(time.Second)))
}

// ShowFailure prints the classified failure with its suggested actions.
func (r *ConsoleRenderer) ShowFailure(result *deviceflow.Result) {
	r.stopSpinner()
	fmt.Fprintln(r.out, text.FgRed.Sprint("✗ "+result.Message))
	if len(result.SuggestedActions) > 0 {
		fmt.Fprintln(r.out, "Try the following:")
		for _, action := range result.SuggestedActions {
			fmt.Fprintf(r.out, "  - %s\n", action)
		}
	}
}

// Close stops any live spinner. Safe to call multiple times.
func (r *ConsoleRenderer) Close() {
	r.stopSpinner()
}

func (r *ConsoleRenderer) etaSuffix() string {
	remaining, ok := r.estimator.Remaining()
	if !ok || remaining <= 0 {
		return ""
	}
	return fmt.Sprintf(" (about %s remaining)", remaining.Round(time.Second))
}

func (r *ConsoleRenderer) startSpinner(message string) {
	if r.spin != nil {
		r.updateSpinner(message)
		return
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(r.spinnerWriter()))
	s.Suffix = " " + message
	s.Start()
	r.spin = s
}

func (r *ConsoleRenderer) updateSpinner(message string) {
	if r.spin == nil {
		r.startSpinner(message)
		return
	}
	r.spin.Suffix = " " + message
}

func (r *ConsoleRenderer) stopSpinner() {
	if r.spin != nil {
		r.spin.Stop()
		r.spin = nil
	}
}

// spinnerWriter returns the writer the spinner animates on. Spinners only
// make sense on real terminals; otherwise the frames would pollute piped
// output.
func (r *ConsoleRenderer) spinnerWriter() io.Writer {
	if f, ok := r.out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return f
	}
	return io.Discard
}

// FormatScopes renders a scope string as a display list.
func FormatScopes(scope string) string {
	if scope == "" {
		return "-"
	}
	return strings.Join(strings.Split(scope, ","), ", ")
}
