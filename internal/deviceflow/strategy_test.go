package deviceflow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AstroAir/github-cli/internal/environment"
)

func TestSelectStrategy(t *testing.T) {
	tests := []struct {
		name string
		snap environment.Snapshot
		want Strategy
	}{
		{
			name: "headless wins over everything",
			snap: environment.Snapshot{IsHeadless: true, HasBrowser: true, HasDisplay: true, IsSSHSession: true},
			want: StrategyTextOnly,
		},
		{
			name: "ssh session gets manual browser",
			snap: environment.Snapshot{IsSSHSession: true, HasBrowser: true, HasDisplay: true},
			want: StrategyBrowserManual,
		},
		{
			name: "container gets manual browser",
			snap: environment.Snapshot{IsContainer: true, HasBrowser: true, HasDisplay: true},
			want: StrategyBrowserManual,
		},
		{
			name: "desktop with browser gets automatic flow",
			snap: environment.Snapshot{HasBrowser: true, HasDisplay: true},
			want: StrategyBrowserAuto,
		},
		{
			name: "display without browser gets manual",
			snap: environment.Snapshot{HasDisplay: true},
			want: StrategyBrowserManual,
		},
		{
			name: "nothing known degrades to text",
			snap: environment.Snapshot{},
			want: StrategyTextOnly,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectStrategy(tt.snap))
		})
	}
}

func TestBuildInstructions_ContainsURIAndCodeNeverDeviceCode(t *testing.T) {
	strategies := []Strategy{
		StrategyBrowserAuto, StrategyBrowserManual, StrategyTextOnly, StrategyQRCode, StrategyFallback,
	}

	for _, s := range strategies {
		t.Run(s.String(), func(t *testing.T) {
			inst := BuildInstructions(s, "https://github.com/login/device", "WDJB-MJHT", false, true)

			assert.Equal(t, "https://github.com/login/device", inst.VerificationURI)
			assert.Equal(t, "WDJB-MJHT", inst.UserCode)
			require.NotEmpty(t, inst.Steps)

			joined := strings.Join(inst.Steps, "\n")
			assert.Contains(t, joined, "WDJB-MJHT")
			assert.Contains(t, joined, "https://github.com/login/device")
		})
	}
}

func TestBuildInstructions_ClipboardHint(t *testing.T) {
	inst := BuildInstructions(StrategyTextOnly, "https://github.com/login/device", "WDJB-MJHT", true, false)

	assert.True(t, inst.ClipboardCopied)
	assert.Contains(t, strings.Join(inst.Steps, "\n"), "clipboard")
}

func TestBuildInstructions_BrowserLaunchFailureChangesWording(t *testing.T) {
	opened := BuildInstructions(StrategyBrowserAuto, "https://github.com/login/device", "WDJB-MJHT", false, true)
	failed := BuildInstructions(StrategyBrowserAuto, "https://github.com/login/device", "WDJB-MJHT", false, false)

	assert.Contains(t, opened.Steps[0], "has been opened")
	assert.Contains(t, failed.Steps[0], "could not be opened")
	// Strategy itself is unchanged; only the wording degrades.
	assert.Equal(t, StrategyBrowserAuto, failed.Strategy)
}

func TestBuildInstructions_QRCodeRendered(t *testing.T) {
	inst := BuildInstructions(StrategyQRCode, "https://github.com/login/device", "WDJB-MJHT", false, false)

	assert.NotEmpty(t, inst.QRCode)
}
