package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/foliocms/folio/internal/auth/audit"
	"github.com/foliocms/folio/internal/auth/domain"
	"github.com/foliocms/folio/internal/auth/store"
	"github.com/foliocms/folio/pkg/cryptox"
	"github.com/foliocms/folio/pkg/jwtx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	backupCodeCount = 10

	totpPeriod = 30
	// totpSkew accepts codes up to two 30s steps either side of now,
	// tolerating about a minute of device clock drift.
	totpSkew = 2
)

// MFAService drives the per-user MFA state machine: Unenrolled →
// PendingVerification → Enrolled. The secret and backup codes generated at
// enrollment are provisional; mfa_enabled flips only after the user proves
// possession of the secret within the enrollment token's window.
type MFAService struct {
	Store       store.Store
	Credentials CredentialService
	Events      audit.Sink

	// EnrollKey signs the short-lived enrollment token. It is the same key
	// that signs access tokens; the typ claim keeps the two apart.
	EnrollKey *jwtx.HS256Key

	Issuer string // TOTP issuer shown in authenticator apps

	// TokenIssuer is the iss claim stamped on enrollment tokens. It must
	// match the issuer EnrollKey verifies against, not the TOTP Issuer
	// label above. Empty falls back to DefaultIssuer.
	TokenIssuer string
	Audience    string

	Now func() time.Time
}

func (s *MFAService) tokenIssuer() string {
	if s.TokenIssuer != "" {
		return s.TokenIssuer
	}
	return DefaultIssuer
}

func (s *MFAService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *MFAService) events() audit.Sink {
	if s.Events != nil {
		return s.Events
	}
	return audit.Discard{}
}

// Enroll generates a provisional TOTP secret and backup codes for the user
// and returns them with an enrollment token valid for ten minutes. MFA is
// NOT enabled yet; the user must complete VerifySetup first.
func (s *MFAService) Enroll(ctx context.Context, userID string) (domain.MFAEnrollment, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.MFAEnrollment{}, mapStoreErr(err)
	}
	if u.MFAEnabled {
		return domain.MFAEnrollment{}, ErrMFAAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: u.Email,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.MFAEnrollment{}, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	codes, err := cryptox.GenerateBackupCodes(backupCodeCount)
	if err != nil {
		return domain.MFAEnrollment{}, err
	}

	// Store secret and code fingerprints; re-enrollment before verification
	// replaces any earlier provisional state.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdateMFASecret(ctx, userID, key.Secret()); err != nil {
			return err
		}
		if err := tx.BackupCodes().DeleteAllBackupCodes(ctx, userID); err != nil {
			return err
		}
		for _, code := range codes {
			if err := tx.BackupCodes().CreateBackupCode(ctx, userID, cryptox.FingerprintToken(code)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.MFAEnrollment{}, err
	}

	enrollToken, err := s.EnrollKey.Sign(jwtx.NewEnrollClaims(
		userID, cryptox.NewJTI(), s.tokenIssuer(), s.audience(), s.now(),
	))
	if err != nil {
		return domain.MFAEnrollment{}, err
	}

	return domain.MFAEnrollment{
		Secret:          key.Secret(),
		OTPAuthURL:      key.URL(),
		BackupCodes:     codes,
		EnrollmentToken: enrollToken,
		Issuer:          s.Issuer,
		Account:         u.Email,
	}, nil
}

// VerifySetup completes enrollment. The enrollment token must verify, be of
// the right type, name the same user, and be inside its window; the TOTP
// code must match the provisional secret. A wrong code returns (false, nil)
// and leaves the user in PendingVerification.
func (s *MFAService) VerifySetup(ctx context.Context, userID, totpCode, enrollToken string) (bool, error) {
	claims, err := s.EnrollKey.VerifyAt(enrollToken, s.now())
	if err != nil {
		return false, ErrUnauthorized
	}
	if claims.ValidateTokenType(jwtx.TokenTypeMFAEnroll) != nil || claims.Subject != userID {
		return false, ErrUnauthorized
	}

	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return false, mapStoreErr(err)
	}
	if u.MFAEnabled {
		return false, ErrMFAAlreadyEnabled
	}
	if u.MFASecret == nil || *u.MFASecret == "" {
		return false, ErrMFANotEnrolled
	}

	if !s.validTOTP(totpCode, *u.MFASecret) {
		return false, nil
	}

	if err := s.Store.Users().EnableMFA(ctx, userID); err != nil {
		return false, err
	}

	s.events().Record(ctx, audit.NewEvent(audit.EventMFAEnrolled, userID, s.now(), nil))
	return true, nil
}

// VerifyLogin checks a second factor during login: a TOTP code within the
// skew window, or an exact backup code which is consumed atomically. Wrong
// codes return (false, nil); only structural misuse errors.
func (s *MFAService) VerifyLogin(ctx context.Context, userID, code string) (bool, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return false, mapStoreErr(err)
	}
	if !u.MFAEnabled || u.MFASecret == nil || *u.MFASecret == "" {
		return false, ErrMFANotEnabled
	}

	if s.validTOTP(code, *u.MFASecret) {
		return true, nil
	}

	// Backup codes are uppercase hex; normalize before fingerprinting.
	if len(code) == cryptox.BackupCodeLength {
		hash := cryptox.FingerprintToken(strings.ToUpper(code))
		used, err := s.Store.BackupCodes().ConsumeBackupCode(ctx, userID, hash)
		if err != nil {
			return false, err
		}
		if used {
			remaining, err := s.Store.BackupCodes().CountBackupCodes(ctx, userID)
			if err == nil {
				s.events().Record(ctx, audit.NewEvent(audit.EventMFAChallenge, userID, s.now(), map[string]string{
					"method":          "backup_code",
					"codes_remaining": fmt.Sprint(remaining),
				}))
			}
			return true, nil
		}
	}

	return false, nil
}

// Disable turns MFA off after re-verifying the account password, clearing
// the secret, backup codes, and flag in one transaction.
func (s *MFAService) Disable(ctx context.Context, userID, password string) error {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return mapStoreErr(err)
	}
	if !u.MFAEnabled {
		return ErrMFANotEnabled
	}
	if !s.Credentials.Verify(password, u.PasswordHash) {
		return ErrUnauthorized
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.BackupCodes().DeleteAllBackupCodes(ctx, userID); err != nil {
			return err
		}
		return tx.Users().DisableMFA(ctx, userID)
	})
	if err != nil {
		return err
	}

	s.events().Record(ctx, audit.NewEvent(audit.EventMFADisabled, userID, s.now(), nil))
	return nil
}

// RegenerateBackupCodes replaces the full backup code set. Old codes stop
// working the moment the transaction commits.
func (s *MFAService) RegenerateBackupCodes(ctx context.Context, userID string) ([]string, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if !u.MFAEnabled {
		return nil, ErrMFANotEnabled
	}

	codes, err := cryptox.GenerateBackupCodes(backupCodeCount)
	if err != nil {
		return nil, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.BackupCodes().DeleteAllBackupCodes(ctx, userID); err != nil {
			return err
		}
		for _, code := range codes {
			if err := tx.BackupCodes().CreateBackupCode(ctx, userID, cryptox.FingerprintToken(code)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return codes, nil
}

func (s *MFAService) validTOTP(code, secret string) bool {
	ok, err := totp.ValidateCustom(code, secret, s.now(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

func (s *MFAService) audience() string {
	if s.Audience != "" {
		return s.Audience
	}
	return DefaultAudience
}

func mapStoreErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
