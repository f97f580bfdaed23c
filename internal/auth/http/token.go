package http

import (
	"errors"
	"net/http"

	"github.com/foliocms/folio/internal/auth/service"
	"github.com/foliocms/folio/pkg/httpx"
	"github.com/foliocms/folio/pkg/slogx"
)

// TokenHandler handles refresh rotation and logout.
type TokenHandler struct {
	TokenService *service.TokenService
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type logoutRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// HandleRefresh handles POST /v1/token/refresh. The presented refresh token
// is single use; rotation burns it and returns a fresh pair.
func (h *TokenHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req refreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "refresh_token is required")
		return
	}

	pair, err := h.TokenService.Rotate(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_grant", "Refresh token is invalid, expired, or revoked")
			return
		}
		log.Error("token rotation failed", "err", err)
		writeServerError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokenResponse(pair))
}

// HandleLogout handles POST /v1/logout. Both tokens of the pair are
// blacklisted; the call is idempotent and succeeds even for tokens that are
// already expired or malformed.
func (h *TokenHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req logoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	if err := h.TokenService.RevokePair(ctx, req.AccessToken, req.RefreshToken); err != nil {
		log.Error("logout failed", "err", err)
		writeServerError(w)
		return
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
