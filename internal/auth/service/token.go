package service

import (
	"context"
	"errors"
	"time"

	"github.com/foliocms/folio/internal/auth/audit"
	"github.com/foliocms/folio/internal/auth/domain"
	"github.com/foliocms/folio/internal/auth/revocation"
	"github.com/foliocms/folio/internal/auth/store"
	"github.com/foliocms/folio/pkg/cryptox"
	"github.com/foliocms/folio/pkg/jwtx"
	"github.com/foliocms/folio/pkg/slogx"
)

// Issuer and audience claims carried by every token.
const (
	DefaultIssuer   = "folio-auth"
	DefaultAudience = "folio"
)

// TokenService issues, verifies, rotates, and revokes signed token pairs.
// Access and refresh tokens are signed with distinct keys so compromise of
// one cannot forge the other.
type TokenService struct {
	Store       store.Store
	Revocations revocation.Store
	Events      audit.Sink

	AccessKey  *jwtx.HS256Key
	RefreshKey *jwtx.HS256Key

	Issuer   string // defaults to DefaultIssuer
	Audience string // defaults to DefaultAudience

	// Now overrides the clock for expiry checks. Nil means time.Now.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *TokenService) events() audit.Sink {
	if s.Events != nil {
		return s.Events
	}
	return audit.Discard{}
}

// IssuePair mints a fresh access/refresh pair for the user. One jti is
// generated per issuance event and shared by both tokens, so revoking it
// retires the pair together.
func (s *TokenService) IssuePair(ctx context.Context, u domain.User) (domain.TokenPair, error) {
	now := s.now()
	jti := cryptox.NewJTI()

	access, err := s.AccessKey.Sign(jwtx.NewAccessClaims(
		u.ID, string(u.Role), u.Email, jti,
		domain.ScopesForRole(u.Role),
		s.issuer(), s.audience(), now,
	))
	if err != nil {
		return domain.TokenPair{}, err
	}

	refresh, err := s.RefreshKey.Sign(jwtx.NewRefreshClaims(
		u.ID, jti, s.issuer(), s.audience(), now,
	))
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    jwtx.AccessTokenTTL,
	}, nil
}

// VerifyAccess validates an access token: signature, issuer, audience,
// expiry, and token type. Any failure comes back as ErrUnauthorized; the
// root cause is logged, not returned. Callers must additionally consult the
// revocation store (the Guard does both).
func (s *TokenService) VerifyAccess(ctx context.Context, raw string) (jwtx.Claims, error) {
	claims, err := s.AccessKey.VerifyAt(raw, s.now())
	if err != nil {
		return jwtx.Claims{}, s.unauthorized(ctx, "access token rejected", err)
	}
	if err := claims.ValidateTokenType(""); err != nil {
		return jwtx.Claims{}, s.unauthorized(ctx, "access token rejected", err)
	}
	return claims, nil
}

// VerifyRefresh validates a refresh token against the refresh-specific key.
func (s *TokenService) VerifyRefresh(ctx context.Context, raw string) (jwtx.Claims, error) {
	claims, err := s.RefreshKey.VerifyAt(raw, s.now())
	if err != nil {
		return jwtx.Claims{}, s.unauthorized(ctx, "refresh token rejected", err)
	}
	if err := claims.ValidateTokenType(jwtx.TokenTypeRefresh); err != nil {
		return jwtx.Claims{}, s.unauthorized(ctx, "refresh token rejected", err)
	}
	return claims, nil
}

// Rotate redeems a refresh token for a brand-new pair. Each refresh token
// can be redeemed exactly once: the presented token's jti is blacklisted
// before the new pair is returned, so a replay fails and is flagged as
// possible theft.
func (s *TokenService) Rotate(ctx context.Context, refreshRaw string) (domain.TokenPair, error) {
	claims, err := s.VerifyRefresh(ctx, refreshRaw)
	if err != nil {
		return domain.TokenPair{}, err
	}

	revoked, err := s.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if revoked {
		// A rotated token came back. The caller should treat an
		// Unauthorized from Rotate as a signal to revoke the whole session.
		s.events().Record(ctx, audit.NewEvent(audit.EventRefreshReuse, claims.Subject, s.now(), map[string]string{
			"jti": claims.ID,
		}))
		return domain.TokenPair{}, s.unauthorized(ctx, "refresh token reused after rotation", nil)
	}

	u, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, s.unauthorized(ctx, "refresh for unknown user", nil)
		}
		return domain.TokenPair{}, err
	}
	if !u.Active {
		return domain.TokenPair{}, s.unauthorized(ctx, "refresh for deactivated user", nil)
	}

	pair, err := s.IssuePair(ctx, u)
	if err != nil {
		return domain.TokenPair{}, err
	}

	// Retire the presented pair for the remainder of its refresh lifetime.
	// Burning the old jti only after the new pair exists means a transient
	// issuance failure leaves the caller with a still-usable refresh token.
	if err := s.Blacklist(ctx, claims.ID, remaining(claims, s.now())); err != nil {
		return domain.TokenPair{}, err
	}

	s.events().Record(ctx, audit.NewEvent(audit.EventTokenRotated, u.ID, s.now(), map[string]string{
		"old_jti": claims.ID,
	}))

	return pair, nil
}

// RevokePair blacklists both tokens of a pair, best effort. Logout succeeds
// even when the tokens are already expired or malformed; only storage
// failures surface.
func (s *TokenService) RevokePair(ctx context.Context, accessRaw, refreshRaw string) error {
	now := s.now()
	logged := map[string]bool{}

	if claims, err := s.AccessKey.Verify(accessRaw); err == nil && claims.ID != "" {
		logged[claims.ID] = true
		if err := s.Blacklist(ctx, claims.ID, remaining(claims, now)); err != nil {
			return err
		}
		s.events().Record(ctx, audit.NewEvent(audit.EventTokenRevoked, claims.Subject, now, map[string]string{
			"jti": claims.ID,
		}))
	}

	// The refresh token shares the access token's jti but outlives it, so
	// it is blacklisted too: the store never shortens an entry, and the
	// second Put stretches the deadline out to the refresh expiry.
	if claims, err := s.RefreshKey.Verify(refreshRaw); err == nil && claims.ID != "" {
		if err := s.Blacklist(ctx, claims.ID, remaining(claims, now)); err != nil {
			return err
		}
		if !logged[claims.ID] {
			s.events().Record(ctx, audit.NewEvent(audit.EventTokenRevoked, claims.Subject, now, map[string]string{
				"jti": claims.ID,
			}))
		}
	}

	return nil
}

// Blacklist marks a jti revoked for ttl.
func (s *TokenService) Blacklist(ctx context.Context, jti string, ttl time.Duration) error {
	return s.Revocations.Put(ctx, jti, ttl)
}

// IsBlacklisted reports whether a jti has been revoked.
func (s *TokenService) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	return s.Revocations.Exists(ctx, jti)
}

func (s *TokenService) issuer() string {
	if s.Issuer != "" {
		return s.Issuer
	}
	return DefaultIssuer
}

func (s *TokenService) audience() string {
	if s.Audience != "" {
		return s.Audience
	}
	return DefaultAudience
}

// unauthorized logs the real cause and returns the flattened boundary error.
func (s *TokenService) unauthorized(ctx context.Context, msg string, cause error) error {
	l := slogx.FromContext(ctx)
	if cause != nil {
		l.Info(msg, "cause", cause)
	} else {
		l.Info(msg)
	}
	return ErrUnauthorized
}

func remaining(claims jwtx.Claims, now time.Time) time.Duration {
	if claims.ExpiresAt == nil {
		return 0
	}
	return claims.ExpiresAt.Sub(now)
}
