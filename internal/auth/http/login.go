package http

import (
	"errors"
	"net/http"

	"github.com/foliocms/folio/internal/auth/domain"
	"github.com/foliocms/folio/internal/auth/service"
	"github.com/foliocms/folio/pkg/httpx"
	"github.com/foliocms/folio/pkg/slogx"
)

// LoginHandler handles the password and MFA login steps.
type LoginHandler struct {
	LoginService *service.LoginService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginMFARequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

// HandleLogin handles POST /v1/login. A correct password on an MFA-enrolled
// account yields mfa_required instead of tokens; every authentication
// failure yields the same 401 regardless of cause.
func (h *LoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	res, err := h.LoginService.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			writeInvalidCredentials(w)
			return
		}
		log.Error("login failed", "err", err)
		writeServerError(w)
		return
	}

	if res.MFARequired {
		httpx.WriteJSON(w, http.StatusOK, LoginResponse{MFARequired: true})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, LoginResponse{Tokens: tokenResponse(*res.Pair)})
}

// HandleLoginMFA handles POST /v1/login/mfa, the second step for enrolled
// accounts. The password is re-submitted with the TOTP or backup code.
func (h *LoginHandler) HandleLoginMFA(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginMFARequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" || req.Code == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email, password and code are required")
		return
	}

	pair, err := h.LoginService.CompleteMFA(ctx, req.Email, req.Password, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthorized):
			writeInvalidCredentials(w)
		case errors.Is(err, service.ErrConflict):
			httpx.WriteError(w, http.StatusBadRequest, "mfa_not_enabled", "MFA is not enabled for this account")
		default:
			log.Error("mfa login failed", "err", err)
			writeServerError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, LoginResponse{Tokens: tokenResponse(pair)})
}

func tokenResponse(pair domain.TokenPair) *TokenResponse {
	return &TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    int64(pair.ExpiresIn.Seconds()),
	}
}

func writeInvalidCredentials(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
}

func writeServerError(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
}
