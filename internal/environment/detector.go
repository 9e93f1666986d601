// Package environment probes the runtime environment for the capabilities
// that drive authentication strategy selection: display, browser, clipboard,
// headless markers, SSH sessions, containers, and network reachability.
//
// All probes are best-effort. A probe that cannot determine its answer
// degrades to the pessimistic default (capability absent) and never fails
// the caller.
package environment

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/AstroAir/github-cli/pkg/logging"
)

// networkProbeTimeout bounds the reachability check so a hung network
// cannot stall flow startup.
const networkProbeTimeout = 5 * time.Second

// DefaultHealthURL is probed to decide whether the network path to the API
// is open. Any 2xx response counts as reachable.
const DefaultHealthURL = "https://api.github.com"

// Snapshot is an immutable view of the detected environment capabilities.
type Snapshot struct {
	Platform          string
	TerminalType      string
	HasDisplay        bool
	HasBrowser        bool
	HasClipboard      bool
	IsHeadless        bool
	IsSSHSession      bool
	IsContainer       bool
	NetworkRestricted bool
	AvailableBrowsers []string
}

// Detector runs the capability probes and caches the result. Concurrent
// Detect calls share a single probe run.
type Detector struct {
	healthURL  string
	httpClient *http.Client

	// Probe inputs, injectable for tests.
	goos     string
	getenv   func(string) string
	lookPath func(string) (string, error)
	statPath func(string) (os.FileInfo, error)
	readFile func(string) ([]byte, error)

	group singleflight.Group

	mu   sync.RWMutex
	snap *Snapshot
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithHealthURL overrides the URL probed for network reachability.
func WithHealthURL(url string) DetectorOption {
	return func(d *Detector) { d.healthURL = url }
}

// WithHTTPClient overrides the HTTP client used for the network probe.
func WithHTTPClient(client *http.Client) DetectorOption {
	return func(d *Detector) { d.httpClient = client }
}

// NewDetector creates a detector with default probe inputs.
func NewDetector(opts ...DetectorOption) *Detector {
	d := &Detector{
		healthURL:  DefaultHealthURL,
		httpClient: &http.Client{Timeout: networkProbeTimeout},
		goos:       runtime.GOOS,
		getenv:     os.Getenv,
		lookPath:   exec.LookPath,
		statPath:   os.Stat,
		readFile:   os.ReadFile,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns the capability snapshot, probing on first use. The result
// is cached for the lifetime of the detector; concurrent callers share one
// probe run.
func (d *Detector) Detect(ctx context.Context) Snapshot {
	d.mu.RLock()
	if d.snap != nil {
		snap := *d.snap
		d.mu.RUnlock()
		return snap
	}
	d.mu.RUnlock()

	result, _, _ := d.group.Do("detect", func() (interface{}, error) {
		snap := d.probe(ctx)
		d.mu.Lock()
		d.snap = &snap
		d.mu.Unlock()
		return snap, nil
	})
	return result.(Snapshot)
}

// Refresh discards the cached snapshot and probes again.
func (d *Detector) Refresh(ctx context.Context) Snapshot {
	d.mu.Lock()
	d.snap = nil
	d.mu.Unlock()
	return d.Detect(ctx)
}

func (d *Detector) probe(ctx context.Context) Snapshot {
	snap := Snapshot{
		Platform:     d.goos,
		TerminalType: d.getenv("TERM"),
	}

	snap.HasDisplay = d.detectDisplay()
	snap.AvailableBrowsers = d.detectBrowsers()
	snap.HasBrowser = len(snap.AvailableBrowsers) > 0
	snap.HasClipboard = d.detectClipboard()
	snap.IsSSHSession = d.detectSSH()
	snap.IsContainer = d.detectContainer()
	snap.IsHeadless = d.detectHeadless(snap.HasDisplay)
	snap.NetworkRestricted = !d.probeNetwork(ctx)

	logging.Debug("Environment",
		"detected environment: platform=%s display=%t browser=%t clipboard=%t headless=%t ssh=%t container=%t restricted=%t",
		snap.Platform, snap.HasDisplay, snap.HasBrowser, snap.HasClipboard,
		snap.IsHeadless, snap.IsSSHSession, snap.IsContainer, snap.NetworkRestricted)

	return snap
}

func (d *Detector) detectDisplay() bool {
	switch d.goos {
	case "windows", "darwin":
		return true
	default:
		return d.getenv("DISPLAY") != "" || d.getenv("WAYLAND_DISPLAY") != ""
	}
}

// browserCandidates returns the launch commands tried per platform, in
// preference order. On darwin the system opener comes first so the user's
// default browser wins.
func (d *Detector) browserCandidates() []string {
	switch d.goos {
	case "darwin":
		return []string{"open"}
	case "windows":
		return []string{"rundll32"}
	default:
		return []string{"xdg-open", "firefox", "chromium", "chromium-browser", "google-chrome", "chrome"}
	}
}

func (d *Detector) detectBrowsers() []string {
	var found []string
	for _, name := range d.browserCandidates() {
		if _, err := d.lookPath(name); err == nil {
			found = append(found, name)
		}
	}
	return found
}

func (d *Detector) clipboardCandidates() []string {
	switch d.goos {
	case "darwin":
		return []string{"pbcopy"}
	case "windows":
		return []string{"clip"}
	default:
		return []string{"xclip", "xsel", "wl-copy"}
	}
}

func (d *Detector) detectClipboard() bool {
	for _, name := range d.clipboardCandidates() {
		if _, err := d.lookPath(name); err == nil {
			return true
		}
	}
	return false
}

// ciMarkers are environment variables set by common CI systems.
var ciMarkers = []string{"CI", "GITHUB_ACTIONS", "JENKINS_URL", "BUILDKITE", "TRAVIS"}

func (d *Detector) detectHeadless(hasDisplay bool) bool {
	if v := d.getenv("GH_CLI_HEADLESS"); v != "" {
		return v == "1" || strings.EqualFold(v, "true")
	}
	if !hasDisplay {
		return true
	}
	for _, marker := range ciMarkers {
		if d.getenv(marker) != "" {
			return true
		}
	}
	return false
}

func (d *Detector) detectSSH() bool {
	return d.getenv("SSH_CLIENT") != "" || d.getenv("SSH_CONNECTION") != "" || d.getenv("SSH_TTY") != ""
}

func (d *Detector) detectContainer() bool {
	if _, err := d.statPath("/.dockerenv"); err == nil {
		return true
	}
	if d.getenv("container") != "" || d.getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true
	}
	if data, err := d.readFile("/proc/1/cgroup"); err == nil {
		content := string(data)
		if strings.Contains(content, "docker") || strings.Contains(content, "containerd") {
			return true
		}
	}
	return false
}

// probeNetwork reports whether the health URL answers with a 2xx within the
// probe timeout. Failure means restricted, not fatal.
func (d *Detector) probeNetwork(ctx context.Context) bool {
	if d.healthURL == "" {
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, networkProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.healthURL, nil)
	if err != nil {
		return false
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		logging.Debug("Environment", "network probe failed: %v", err)
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Describe returns a one-line human summary of the snapshot, used in debug
// output and the status command.
func (s Snapshot) Describe() string {
	var traits []string
	if s.IsHeadless {
		traits = append(traits, "headless")
	}
	if s.IsSSHSession {
		traits = append(traits, "ssh")
	}
	if s.IsContainer {
		traits = append(traits, "container")
	}
	if s.HasBrowser {
		traits = append(traits, "browser")
	}
	if s.NetworkRestricted {
		traits = append(traits, "network-restricted")
	}
	if len(traits) == 0 {
		traits = append(traits, "desktop")
	}
	return fmt.Sprintf("%s (%s)", s.Platform, strings.Join(traits, ", "))
}
