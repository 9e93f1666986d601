package deviceflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AstroAir/github-cli/internal/environment"
	"github.com/AstroAir/github-cli/internal/retry"
	"github.com/AstroAir/github-cli/pkg/ghauth"
	"github.com/AstroAir/github-cli/pkg/logging"
)

// slowDownIncrement is added to the polling interval on every slow_down
// response, per RFC 8628 section 3.5. The increase is sticky for the rest
// of the flow.
const slowDownIncrement = 5 * time.Second

// ErrFlowConsumed is returned when Run is called twice on the same Flow.
// A Flow handles exactly one grant; create a new one to authenticate again.
var ErrFlowConsumed = errors.New("device flow already ran, create a new flow")

// Client is the transport used by the flow.
type Client interface {
	// RequestDeviceCode requests a device grant for the client id and scope.
	RequestDeviceCode(ctx context.Context, clientID, scope string) (*ghauth.DeviceGrant, error)

	// RequestDeviceToken polls the token endpoint once. Protocol outcomes
	// (pending, slow_down, expired, denied) are returned as *ghauth.PollError.
	RequestDeviceToken(ctx context.Context, clientID, deviceCode string) (*ghauth.Token, error)

	// FetchUser validates the token against the user endpoint.
	FetchUser(ctx context.Context, accessToken string) (*ghauth.UserInfo, error)
}

// Environment is the capability surface the flow needs.
type Environment interface {
	Detect(ctx context.Context) environment.Snapshot
	OpenBrowser(url string) bool
	CopyToClipboard(text string) bool
}

// Display receives the verification instructions. Rendering failures are
// the display's problem; the flow carries on regardless.
type Display interface {
	ShowInstructions(inst Instructions)
}

// TokenStore persists the validated token. Persistence is best-effort.
type TokenStore interface {
	Save(token *ghauth.Token, user *ghauth.UserInfo) error
}

// Transition describes a state change, delivered to the state observer.
// Details never contain the device code.
type Transition struct {
	RunID   string
	From    FlowState
	To      FlowState
	Details map[string]string
}

// Flow runs a single device authorization grant through its state machine:
//
//	Initializing -> RequestingCode -> WaitingForUser -> PollingToken ->
//	Validating -> Complete | Error
//
// Complete and Error are absorbing. A Flow value is single-use.
type Flow struct {
	clientID string
	scope    string

	client   Client
	env      Environment
	display  Display
	store    TokenStore
	engine   *retry.Engine
	onState  func(Transition)
	override *Strategy

	runID string

	// sleep and now are swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time

	mu      sync.Mutex
	state   FlowState
	started bool
	cancel  context.CancelFunc
}

// Option configures a Flow.
type Option func(*Flow)

// WithDisplay sets the instruction renderer.
func WithDisplay(d Display) Option {
	return func(f *Flow) { f.display = d }
}

// WithTokenStore sets the persistence target for the validated token.
func WithTokenStore(s TokenStore) Option {
	return func(f *Flow) { f.store = s }
}

// WithRetryEngine overrides the retry engine used for network operations.
func WithRetryEngine(e *retry.Engine) Option {
	return func(f *Flow) { f.engine = e }
}

// WithStateObserver registers a callback fired on every state transition.
func WithStateObserver(fn func(Transition)) Option {
	return func(f *Flow) { f.onState = fn }
}

// WithStrategy forces a presentation strategy instead of deriving one from
// the environment, for example to request a QR code.
func WithStrategy(s Strategy) Option {
	return func(f *Flow) { f.override = &s }
}

// New creates a Flow for one authentication run.
func New(clientID, scope string, client Client, env Environment, opts ...Option) *Flow {
	f := &Flow{
		clientID: clientID,
		scope:    scope,
		client:   client,
		env:      env,
		runID:    uuid.NewString(),
		sleep:    sleepContext,
		now:      time.Now,
		state:    StateInitializing,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.engine == nil {
		f.engine = retry.NewEngine(retry.DefaultConfig())
	}
	return f
}

// RunID identifies this flow run in logs and observer callbacks.
func (f *Flow) RunID() string { return f.runID }

// State returns the current state.
func (f *Flow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Cancel aborts a running flow. Safe to call from any goroutine and at any
// point; the flow notices at its next suspension point.
func (f *Flow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
	}
}

// Run executes the device flow to completion. The returned Result always
// carries either a validated token and identity or a classified failure
// with recovery guidance. Run never panics and never returns nil.
func (f *Flow) Run(ctx context.Context) *Result {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return failureResult(ErrFlowConsumed)
	}
	f.started = true
	ctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.mu.Unlock()
	defer cancel()

	logging.Info("DeviceFlow", "starting device flow run %s", f.runID)

	f.transition(StateInitializing, nil)
	snap := f.env.Detect(ctx)
	strategy := SelectStrategy(snap)
	if f.override != nil {
		strategy = *f.override
	}
	logging.Debug("DeviceFlow", "selected strategy %s for %s", strategy, snap.Describe())

	grant, err := f.requestCode(ctx, strategy)
	if err != nil {
		return f.fail(err)
	}
	deadline := grant.ExpiresAt(f.now())

	f.waitForUser(ctx, strategy, grant)

	token, err := f.pollToken(ctx, grant, deadline)
	if err != nil {
		return f.fail(err)
	}

	user, err := f.validate(ctx, token)
	if err != nil {
		return f.fail(err)
	}

	f.persist(token, user)

	f.transition(StateComplete, map[string]string{"login": user.Login})
	logging.Info("DeviceFlow", "run %s complete for user %s", f.runID, user.Login)

	return &Result{
		Success:  true,
		Token:    token,
		Identity: user,
		Message:  fmt.Sprintf("Authenticated as %s.", user.Login),
	}
}

func (f *Flow) requestCode(ctx context.Context, strategy Strategy) (*ghauth.DeviceGrant, error) {
	f.transition(StateRequestingCode, map[string]string{"strategy": strategy.String()})

	var grant *ghauth.DeviceGrant
	err := f.engine.Do(ctx, "request device code", func(ctx context.Context) error {
		g, err := f.client.RequestDeviceCode(ctx, f.clientID, f.scope)
		if err != nil {
			return err
		}
		grant = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Debug("DeviceFlow", "received device grant, user code %s, expires in %ds",
		grant.UserCode, grant.ExpiresIn)
	return grant, nil
}

// waitForUser presents the verification instructions. Every side effect in
// here is best-effort; a failed clipboard copy or browser launch only
// changes the wording, never the flow.
func (f *Flow) waitForUser(ctx context.Context, strategy Strategy, grant *ghauth.DeviceGrant) {
	f.transition(StateWaitingForUser, map[string]string{
		"user_code":        grant.UserCode,
		"verification_uri": grant.VerificationURI,
		"expires_in":       strconv.Itoa(grant.ExpiresIn),
	})

	snap := f.env.Detect(ctx)

	copied := false
	if snap.HasClipboard {
		copied = f.env.CopyToClipboard(grant.UserCode)
	}

	opened := false
	if strategy == StrategyBrowserAuto {
		uri := grant.VerificationURI
		if grant.VerificationURIComplete != "" {
			uri = grant.VerificationURIComplete
		}
		opened = f.env.OpenBrowser(uri)
		if !opened {
			envErr := &ghauth.EnvironmentError{Kind: ghauth.EnvBrowserUnavailable, Message: "browser launch failed"}
			logging.Warn("DeviceFlow", "%v, showing manual instructions", envErr)
		}
	}

	inst := BuildInstructions(strategy, grant.VerificationURI, grant.UserCode, copied, opened)
	if f.display != nil {
		f.display.ShowInstructions(inst)
	}
}

func (f *Flow) pollToken(ctx context.Context, grant *ghauth.DeviceGrant, deadline time.Time) (*ghauth.Token, error) {
	interval := grant.PollInterval()
	for poll := 1; ; poll++ {
		// One transition per poll attempt so observers can narrate progress
		// and refresh their estimates while the user approves the request.
		f.transition(StatePollingToken, map[string]string{
			"poll":     strconv.Itoa(poll),
			"interval": interval.String(),
		})

		if f.now().After(deadline) {
			return nil, &ghauth.AuthError{
				Kind:    ghauth.AuthDeviceCodeExpired,
				Message: "the verification code expired before the request was approved",
			}
		}

		if err := f.sleep(ctx, interval); err != nil {
			return nil, err
		}

		var token *ghauth.Token
		err := f.engine.Do(ctx, "poll device token", func(ctx context.Context) error {
			t, err := f.client.RequestDeviceToken(ctx, f.clientID, grant.DeviceCode.Value())
			if err != nil {
				return err
			}
			token = t
			return nil
		})
		if err == nil {
			return token, nil
		}

		var pollErr *ghauth.PollError
		if !errors.As(err, &pollErr) {
			return nil, err
		}

		switch pollErr.Code {
		case ghauth.PollAuthorizationPending:
			continue
		case ghauth.PollSlowDown:
			interval += slowDownIncrement
			logging.Debug("DeviceFlow", "server asked to slow down, interval now %s", interval)
		case ghauth.PollExpiredToken:
			return nil, &ghauth.AuthError{
				Kind:    ghauth.AuthDeviceCodeExpired,
				Message: "the device code expired",
				Err:     pollErr,
			}
		case ghauth.PollAccessDenied:
			return nil, &ghauth.AuthError{
				Kind:    ghauth.AuthUserDenied,
				Message: "the authorization request was denied",
				Err:     pollErr,
			}
		default:
			return nil, fmt.Errorf("unexpected device flow response: %w", pollErr)
		}
	}
}

// validate confirms the issued token actually works. A token that cannot be
// validated is discarded; the flow never reports success on an unverified
// credential.
func (f *Flow) validate(ctx context.Context, token *ghauth.Token) (*ghauth.UserInfo, error) {
	f.transition(StateValidating, nil)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	user, err := f.client.FetchUser(ctx, token.AccessToken)
	if err != nil {
		var authErr *ghauth.AuthError
		if errors.As(err, &authErr) {
			return nil, err
		}
		return nil, &ghauth.AuthError{
			Kind:    ghauth.AuthTokenInvalid,
			Message: "a token was issued but the identity could not be confirmed",
			Err:     err,
		}
	}
	return user, nil
}

// persist stores the validated token. Failure to persist is logged and
// does not undo the authentication.
func (f *Flow) persist(token *ghauth.Token, user *ghauth.UserInfo) {
	if f.store == nil {
		return
	}
	if err := f.store.Save(token, user); err != nil {
		logging.Warn("DeviceFlow", "token obtained but could not be persisted: %v", err)
	}
}

func (f *Flow) fail(err error) *Result {
	f.transition(StateError, map[string]string{"error": err.Error()})
	logging.Error("DeviceFlow", err, "run %s failed", f.runID)
	return failureResult(err)
}

func (f *Flow) transition(to FlowState, details map[string]string) {
	f.mu.Lock()
	from := f.state
	f.state = to
	observer := f.onState
	f.mu.Unlock()

	if from != to {
		logging.Debug("DeviceFlow", "run %s: %s -> %s", f.runID, from, to)
	}
	if observer != nil {
		observer(Transition{RunID: f.runID, From: from, To: to, Details: details})
	}
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
