package http

import (
	"errors"
	"net/http"

	"github.com/foliocms/folio/internal/auth/service"
	"github.com/foliocms/folio/pkg/httpx"
	"github.com/foliocms/folio/pkg/slogx"
)

// MFAHandler handles all MFA lifecycle endpoints. Every handler here sits
// behind AuthnMiddleware, so the user ID is taken from the request context.
type MFAHandler struct {
	MFAService *service.MFAService
}

type mfaVerifyRequest struct {
	Code            string `json:"code"`
	EnrollmentToken string `json:"enrollment_token"`
}

type mfaDisableRequest struct {
	Password string `json:"password"`
}

// HandleEnroll handles POST /v1/mfa/enroll. Returns the provisional secret,
// otpauth URL, backup codes, and the enrollment token needed to complete
// setup. MFA is not enabled until the code is verified.
func (h *MFAHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		writeInvalidToken(w)
		return
	}

	enrollment, err := h.MFAService.Enroll(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrMFAAlreadyEnabled) {
			httpx.WriteError(w, http.StatusConflict, "mfa_already_enabled", "MFA is already enabled for this account")
			return
		}
		log.Error("mfa enrollment failed", "user_id", userID, "err", err)
		writeServerError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MFAEnrollResponse{
		Secret:          enrollment.Secret,
		OTPAuthURL:      enrollment.OTPAuthURL,
		BackupCodes:     enrollment.BackupCodes,
		EnrollmentToken: enrollment.EnrollmentToken,
		Issuer:          enrollment.Issuer,
		Account:         enrollment.Account,
	})
}

// HandleVerify handles POST /v1/mfa/verify, completing enrollment. The
// enrollment token must still be inside its ten minute window.
func (h *MFAHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		writeInvalidToken(w)
		return
	}

	var req mfaVerifyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Code == "" || req.EnrollmentToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "code and enrollment_token are required")
		return
	}

	ok, err := h.MFAService.VerifySetup(ctx, userID, req.Code, req.EnrollmentToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthorized):
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_enrollment_token", "Enrollment token is invalid or expired")
		case errors.Is(err, service.ErrMFAAlreadyEnabled):
			httpx.WriteError(w, http.StatusConflict, "mfa_already_enabled", "MFA is already enabled for this account")
		case errors.Is(err, service.ErrMFANotEnrolled):
			httpx.WriteError(w, http.StatusConflict, "mfa_not_enrolled", "No enrollment in progress")
		default:
			log.Error("mfa verification failed", "user_id", userID, "err", err)
			writeServerError(w)
		}
		return
	}
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_code", "Invalid TOTP code")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"enabled": true})
}

// HandleRegenerateBackupCodes handles POST /v1/mfa/backup-codes. The old
// code set stops working immediately.
func (h *MFAHandler) HandleRegenerateBackupCodes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		writeInvalidToken(w)
		return
	}

	codes, err := h.MFAService.RegenerateBackupCodes(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrMFANotEnabled) {
			httpx.WriteError(w, http.StatusConflict, "mfa_not_enabled", "MFA is not enabled for this account")
			return
		}
		log.Error("backup code regeneration failed", "user_id", userID, "err", err)
		writeServerError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, BackupCodesResponse{Codes: codes})
}

// HandleDisable handles DELETE /v1/mfa. The account password is re-verified
// before the secret and backup codes are cleared.
func (h *MFAHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		writeInvalidToken(w)
		return
	}

	var req mfaDisableRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "password is required")
		return
	}

	if err := h.MFAService.Disable(ctx, userID, req.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthorized):
			writeInvalidCredentials(w)
		case errors.Is(err, service.ErrMFANotEnabled):
			httpx.WriteError(w, http.StatusConflict, "mfa_not_enabled", "MFA is not enabled for this account")
		default:
			log.Error("mfa disable failed", "user_id", userID, "err", err)
			writeServerError(w)
		}
		return
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

func writeInvalidToken(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Missing or invalid access token")
}
