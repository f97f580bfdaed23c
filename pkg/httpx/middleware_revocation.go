package httpx

import (
	"context"
	"net/http"

	"github.com/foliocms/folio/pkg/slogx"
)

// RevocationChecker reports whether a token ID has been revoked.
type RevocationChecker interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// RevocationMiddleware rejects requests whose access token has been revoked
// since issuance. It must run after AuthnMiddleware.
func RevocationMiddleware(c RevocationChecker) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			claims, ok := ClaimsFromContext(ctx)
			if !ok {
				writeBearerError(w, "missing bearer token")
				return
			}

			revoked, err := c.IsBlacklisted(ctx, claims.ID)
			if err != nil {
				slogx.FromContext(ctx).Error("revocation check failed", "err", err)
				WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
				return
			}
			if revoked {
				writeBearerError(w, "token revoked")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
