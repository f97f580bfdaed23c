package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token lifetimes. Access tokens are deliberately short; the refresh token
// carries the long-lived session and is rotated on every use.
const (
	// AccessTokenTTL is the lifetime of an access token (900 seconds).
	AccessTokenTTL = 15 * time.Minute

	// RefreshTokenTTL is the lifetime of a refresh token (604800 seconds).
	RefreshTokenTTL = 7 * 24 * time.Hour

	// EnrollTokenTTL bounds the window for completing MFA enrollment.
	EnrollTokenTTL = 10 * time.Minute
)

// Token type discriminators carried in the "typ" claim. Access tokens leave
// the claim empty so a refresh or enrollment token can never pass an access
// check even when signed with the same key.
const (
	TokenTypeRefresh   = "refresh"
	TokenTypeMFAEnroll = "mfa_enroll"
)

// Claims are the signed token claims shared by access, refresh, and MFA
// enrollment tokens. Additive changes only, to keep old tokens parseable.
type Claims struct {
	jwt.RegisteredClaims

	// TokenType discriminates refresh and enrollment tokens ("typ").
	TokenType string `json:"typ,omitempty"`

	// Role of the subject at issuance time.
	Role string `json:"role,omitempty"`

	// Email of the subject, for display and audit only.
	Email string `json:"email,omitempty"`

	// Scopes are the capability strings granted to this token,
	// e.g. "content:read content:write".
	Scopes []string `json:"scopes,omitempty"`
}

// NewAccessClaims builds the claims for a short-lived access token.
// The jti is supplied by the caller so both members of a pair share it.
func NewAccessClaims(
	subject, role, email, jti string,
	scopes []string,
	issuer, audience string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: registered(subject, jti, issuer, audience, now, AccessTokenTTL),
		Role:             role,
		Email:            email,
		Scopes:           scopes,
	}
}

// NewRefreshClaims builds the claims for a refresh token paired with an
// access token. It deliberately carries no role, email, or scopes; those are
// re-derived from the user record on rotation.
func NewRefreshClaims(subject, jti, issuer, audience string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: registered(subject, jti, issuer, audience, now, RefreshTokenTTL),
		TokenType:        TokenTypeRefresh,
	}
}

// NewEnrollClaims builds the claims for the short-lived MFA enrollment token.
// Signing it (instead of base64-concatenating userID:timestamp:nonce) makes
// the timestamp tamper-evident.
func NewEnrollClaims(subject, jti, issuer, audience string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: registered(subject, jti, issuer, audience, now, EnrollTokenTTL),
		TokenType:        TokenTypeMFAEnroll,
	}
}

func registered(subject, jti, issuer, audience string, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        jti,
	}
}

// ValidateIssuer checks if the issuer matches the expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience checks if the expected audience is present.
func (c *Claims) ValidateAudience(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}
	if !slices.Contains(c.Audience, expected) {
		return ErrAudience
	}
	return nil
}

// ValidateExpiryAt ensures the token is live at the given instant: not past
// exp and not before nbf. Taking the instant as a parameter keeps expiry
// testable with an injected clock.
func (c *Claims) ValidateExpiryAt(now time.Time) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}

// ValidateTokenType enforces the "typ" discriminator.
func (c *Claims) ValidateTokenType(expected string) error {
	if c.TokenType != expected {
		return ErrTokenType
	}
	return nil
}
