package service

import (
	"context"

	"github.com/foliocms/folio/internal/auth/domain"
	"github.com/foliocms/folio/internal/auth/revocation"
	"github.com/foliocms/folio/pkg/jwtx"
	"github.com/foliocms/folio/pkg/slogx"
)

// Guard enforces role-rank and scope requirements on an already-verified
// access token. Every check first re-consults the revocation store: a token
// must be cryptographically valid, unexpired, AND unrevoked to pass any
// guard, at every call site.
type Guard struct {
	Revocations revocation.Store
}

// RequireRole fails with ErrUnauthorized when the token's role ranks below
// min in the member < user < admin order.
func (g *Guard) RequireRole(ctx context.Context, claims jwtx.Claims, min domain.Role) error {
	if err := g.checkRevoked(ctx, claims); err != nil {
		return err
	}
	if domain.ParseRole(claims.Role).Rank() < min.Rank() {
		return ErrUnauthorized
	}
	return nil
}

// RequireScope fails unless the token carries the required scope.
func (g *Guard) RequireScope(ctx context.Context, claims jwtx.Claims, scope string) error {
	if err := g.checkRevoked(ctx, claims); err != nil {
		return err
	}
	if !domain.HasScope(claims.Scopes, scope) {
		return ErrUnauthorized
	}
	return nil
}

// RequireAnyScope fails unless the token carries at least one listed scope.
func (g *Guard) RequireAnyScope(ctx context.Context, claims jwtx.Claims, scopes ...string) error {
	if err := g.checkRevoked(ctx, claims); err != nil {
		return err
	}
	if !domain.HasAnyScope(claims.Scopes, scopes...) {
		return ErrUnauthorized
	}
	return nil
}

// RequireAllScopes fails unless the token carries every listed scope.
func (g *Guard) RequireAllScopes(ctx context.Context, claims jwtx.Claims, scopes ...string) error {
	if err := g.checkRevoked(ctx, claims); err != nil {
		return err
	}
	if !domain.HasAllScopes(claims.Scopes, scopes...) {
		return ErrUnauthorized
	}
	return nil
}

func (g *Guard) checkRevoked(ctx context.Context, claims jwtx.Claims) error {
	revoked, err := g.Revocations.Exists(ctx, claims.ID)
	if err != nil {
		return err
	}
	if revoked {
		slogx.FromContext(ctx).Info("revoked token presented", "jti", claims.ID)
		return ErrUnauthorized
	}
	return nil
}
