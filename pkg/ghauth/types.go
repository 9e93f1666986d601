// Package ghauth defines the shared types for the device-flow authentication
// engine: tokens, device grants, user identity, and the error taxonomy used
// across the transport, retry, and orchestration layers.
package ghauth

import (
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// DefaultExpiryMargin is the default margin when checking token expiry.
// This accounts for clock skew and network latency.
const DefaultExpiryMargin = 30 * time.Second

// DefaultTokenStorageDir is the default directory for storing tokens,
// relative to the user's home directory. This follows XDG conventions.
const DefaultTokenStorageDir = ".config/github-cli/tokens"

// Token represents an OAuth access token with associated metadata.
type Token struct {
	// AccessToken is the bearer token used for authorization.
	AccessToken string `json:"access_token"`

	// TokenType is typically "bearer".
	TokenType string `json:"token_type,omitempty"`

	// RefreshToken is used to obtain new access tokens (optional; GitHub
	// only issues one for expiring user tokens).
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresIn is the token lifetime in seconds (from token response).
	ExpiresIn int `json:"expires_in,omitempty"`

	// ExpiresAt is the calculated expiration timestamp.
	ExpiresAt time.Time `json:"expires_at,omitempty"`

	// Scope is the granted scope(s), comma- or space-separated as returned
	// by the server.
	Scope string `json:"scope,omitempty"`
}

// IsExpired checks if the token has expired.
// Returns true if the token is expired or will expire within the default margin.
func (t *Token) IsExpired() bool {
	return t.IsExpiredWithMargin(DefaultExpiryMargin)
}

// IsExpiredWithMargin checks if the token has expired or will expire within the margin.
func (t *Token) IsExpiredWithMargin(margin time.Duration) bool {
	if t.ExpiresAt.IsZero() {
		return false // Tokens without expiration don't expire
	}
	return time.Now().Add(margin).After(t.ExpiresAt)
}

// SetExpiresAtFromExpiresIn calculates and sets ExpiresAt from ExpiresIn.
func (t *Token) SetExpiresAtFromExpiresIn() {
	if t.ExpiresIn > 0 && t.ExpiresAt.IsZero() {
		t.ExpiresAt = time.Now().Add(time.Duration(t.ExpiresIn) * time.Second)
	}
}

// Scopes returns the scope as a slice of individual scopes.
// GitHub returns comma-separated scopes; space-separated is accepted too.
func (t *Token) Scopes() []string {
	if t.Scope == "" {
		return nil
	}
	if strings.Contains(t.Scope, ",") {
		parts := strings.Split(t.Scope, ",")
		scopes := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				scopes = append(scopes, p)
			}
		}
		return scopes
	}
	return strings.Fields(t.Scope)
}

// ToOAuth2Token converts the Token to an oauth2.Token for compatibility with golang.org/x/oauth2.
func (t *Token) ToOAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		Expiry:       t.ExpiresAt,
	}
}

// DeviceGrant is the response to a device authorization request as defined
// in RFC 8628 section 3.2.
type DeviceGrant struct {
	// DeviceCode is the device verification code. It is a credential and
	// must never be logged or displayed to the user, which the Secret type
	// enforces for formatting and serialization.
	DeviceCode Secret `json:"device_code"`

	// UserCode is the short code the user enters at the verification URI.
	UserCode string `json:"user_code"`

	// VerificationURI is the URL the user visits to authorize the device.
	VerificationURI string `json:"verification_uri"`

	// VerificationURIComplete embeds the user code in the URI (optional).
	VerificationURIComplete string `json:"verification_uri_complete,omitempty"`

	// ExpiresIn is the lifetime of the device and user codes in seconds.
	ExpiresIn int `json:"expires_in"`

	// Interval is the minimum number of seconds between token polls.
	Interval int `json:"interval"`
}

// PollInterval returns the polling interval as a duration, falling back to
// the RFC 8628 default of 5 seconds when the server omits it.
func (g *DeviceGrant) PollInterval() time.Duration {
	if g.Interval <= 0 {
		return 5 * time.Second
	}
	return time.Duration(g.Interval) * time.Second
}

// ExpiresAt returns the absolute deadline for the grant measured from now.
func (g *DeviceGrant) ExpiresAt(now time.Time) time.Time {
	return now.Add(time.Duration(g.ExpiresIn) * time.Second)
}

// UserInfo is the authenticated user identity returned by the user endpoint.
type UserInfo struct {
	Login     string `json:"login"`
	ID        int64  `json:"id"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}
