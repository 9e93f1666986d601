// Package api implements the HTTP transport for GitHub's device
// authorization and user endpoints, mapping wire-level failures into the
// shared error taxonomy.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/AstroAir/github-cli/pkg/ghauth"
	"github.com/AstroAir/github-cli/pkg/logging"
)

const (
	// DefaultDeviceCodeURL is GitHub's device authorization endpoint.
	DefaultDeviceCodeURL = "https://github.com/login/device/code"

	// DefaultTokenURL is GitHub's token endpoint polled during the flow.
	DefaultTokenURL = "https://github.com/login/oauth/access_token"

	// DefaultAPIBaseURL is the REST API base used for token validation.
	DefaultAPIBaseURL = "https://api.github.com"

	// deviceGrantType is the grant_type for device flow token requests,
	// per RFC 8628 section 3.4.
	deviceGrantType = "urn:ietf:params:oauth:grant-type:device_code"

	defaultUserAgent = "github-cli"

	defaultTimeout = 30 * time.Second
)

// Client talks to GitHub's authentication endpoints.
type Client struct {
	httpClient    *http.Client
	deviceCodeURL string
	tokenURL      string
	apiBaseURL    string
	userAgent     string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client, mainly for testing.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithDeviceCodeURL overrides the device authorization endpoint.
func WithDeviceCodeURL(u string) ClientOption {
	return func(c *Client) { c.deviceCodeURL = u }
}

// WithTokenURL overrides the token endpoint.
func WithTokenURL(u string) ClientOption {
	return func(c *Client) { c.tokenURL = u }
}

// WithAPIBaseURL overrides the REST API base URL.
func WithAPIBaseURL(u string) ClientOption {
	return func(c *Client) { c.apiBaseURL = strings.TrimSuffix(u, "/") }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a client with GitHub's production endpoints.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:    &http.Client{Timeout: defaultTimeout},
		deviceCodeURL: DefaultDeviceCodeURL,
		tokenURL:      DefaultTokenURL,
		apiBaseURL:    DefaultAPIBaseURL,
		userAgent:     defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestDeviceCode requests a device grant for the client id and scope.
func (c *Client) RequestDeviceCode(ctx context.Context, clientID, scope string) (*ghauth.DeviceGrant, error) {
	form := url.Values{
		"client_id": {clientID},
		"scope":     {scope},
	}

	body, err := c.postForm(ctx, c.deviceCodeURL, form)
	if err != nil {
		return nil, err
	}

	var grant ghauth.DeviceGrant
	if err := json.Unmarshal(body, &grant); err != nil {
		return nil, fmt.Errorf("decoding device code response: %w", err)
	}
	if grant.DeviceCode.IsEmpty() || grant.UserCode == "" {
		return nil, fmt.Errorf("device code response missing required fields")
	}

	logging.Debug("API", "device grant issued, expires in %ds, poll interval %ds",
		grant.ExpiresIn, grant.Interval)
	return &grant, nil
}

// tokenResponse is the token endpoint payload. GitHub returns HTTP 200 for
// protocol errors, signalled through the error field.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	Scope            string `json:"scope"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshToken     string `json:"refresh_token"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// RequestDeviceToken polls the token endpoint once. Pending, slow_down,
// expired and denied outcomes are returned as *ghauth.PollError.
func (c *Client) RequestDeviceToken(ctx context.Context, clientID, deviceCode string) (*ghauth.Token, error) {
	form := url.Values{
		"client_id":   {clientID},
		"device_code": {deviceCode},
		"grant_type":  {deviceGrantType},
	}

	body, err := c.postForm(ctx, c.tokenURL, form)
	if err != nil {
		return nil, err
	}

	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}

	if resp.Error != "" {
		switch resp.Error {
		case ghauth.PollAuthorizationPending, ghauth.PollSlowDown,
			ghauth.PollExpiredToken, ghauth.PollAccessDenied:
			return nil, &ghauth.PollError{Code: resp.Error, Description: resp.ErrorDescription}
		default:
			return nil, fmt.Errorf("token endpoint error %q: %s", resp.Error, resp.ErrorDescription)
		}
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access token")
	}

	token := &ghauth.Token{
		AccessToken:  resp.AccessToken,
		TokenType:    resp.TokenType,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		Scope:        resp.Scope,
	}
	token.SetExpiresAtFromExpiresIn()
	return token, nil
}

// FetchUser validates a token against the user endpoint and returns the
// authenticated identity.
func (c *Client) FetchUser(ctx context.Context, accessToken string) (*ghauth.UserInfo, error) {
	endpoint := c.apiBaseURL + "/user"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating user request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.wrapTransportError(endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &ghauth.AuthError{
			Kind:    ghauth.AuthTokenInvalid,
			Message: "the token was rejected by the user endpoint",
		}
	case resp.StatusCode == http.StatusForbidden:
		if rateErr := rateLimitFromResponse(resp); rateErr != nil {
			return nil, rateErr
		}
		return nil, &ghauth.AuthError{
			Kind:    ghauth.AuthTokenInvalid,
			Message: "the token lacks permission for the user endpoint",
		}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("user endpoint returned status %d", resp.StatusCode)
	}

	var user ghauth.UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decoding user response: %w", err)
	}
	return &user, nil
}

// postForm issues a form POST with JSON accept headers and returns the
// response body. Rate limit rejections and transport failures come back as
// taxonomy errors.
func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.wrapTransportError(endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, c.wrapTransportError(endpoint, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden {
		if rateErr := rateLimitFromResponse(resp); rateErr != nil {
			return nil, rateErr
		}
	}
	if resp.StatusCode >= 500 {
		return nil, &ghauth.NetworkError{
			URL: endpoint,
			Err: fmt.Errorf("server returned status %d", resp.StatusCode),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", endpoint, resp.StatusCode)
	}

	return body, nil
}

// wrapTransportError classifies a transport failure as timeout or network.
func (c *Client) wrapTransportError(endpoint string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ghauth.TimeoutError{URL: endpoint, Duration: c.httpClient.Timeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ghauth.TimeoutError{URL: endpoint, Duration: c.httpClient.Timeout, Err: err}
	}
	return &ghauth.NetworkError{URL: endpoint, Err: err}
}

// rateLimitFromResponse builds a RateLimitError from rate limit response
// headers. Returns nil when the response does not look rate limited.
func rateLimitFromResponse(resp *http.Response) *ghauth.RateLimitError {
	retryAfter := time.Duration(0)
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			retryAfter = time.Duration(secs) * time.Second
		}
	}

	remaining := -1
	if v := resp.Header.Get("X-RateLimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			remaining = n
		}
	}

	var resetAt time.Time
	if v := resp.Header.Get("X-RateLimit-Reset"); v != "" {
		if unix, err := strconv.ParseInt(v, 10, 64); err == nil && unix > 0 {
			resetAt = time.Unix(unix, 0)
		}
	}

	// A 403 without rate limit markers is a permission problem, not a
	// rate limit.
	if retryAfter == 0 && remaining != 0 && resp.StatusCode != http.StatusTooManyRequests {
		return nil
	}

	if remaining < 0 {
		remaining = 0
	}
	return &ghauth.RateLimitError{
		RetryAfter: retryAfter,
		ResetAt:    resetAt,
		Remaining:  remaining,
	}
}
