package service

import (
	"context"
	"errors"
	"time"

	"github.com/foliocms/folio/internal/auth/audit"
	"github.com/foliocms/folio/internal/auth/domain"
	"github.com/foliocms/folio/internal/auth/store"
)

// LoginService orchestrates the login flow: credential check, MFA challenge
// when enrolled, then token issuance. Every failure path returns the same
// ErrUnauthorized, and the unknown-email path burns a dummy hash
// verification, so neither content nor timing reveals whether an account
// exists.
type LoginService struct {
	Store       store.Store
	Credentials CredentialService
	Tokens      *TokenService
	MFA         *MFAService
	Events      audit.Sink

	Now func() time.Time
}

// LoginResult is the outcome of a successful first authentication step.
// When MFARequired is set the pair is absent; the caller must complete the
// challenge via CompleteMFA.
type LoginResult struct {
	Pair        *domain.TokenPair
	MFARequired bool
}

func (s *LoginService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *LoginService) events() audit.Sink {
	if s.Events != nil {
		return s.Events
	}
	return audit.Discard{}
}

// Authenticate verifies email+password. It returns a token pair, an
// MFA-required result, or ErrUnauthorized.
func (s *LoginService) Authenticate(ctx context.Context, email, password string) (LoginResult, error) {
	u, err := s.verifyCredentials(ctx, email, password)
	if err != nil {
		return LoginResult{}, err
	}

	if u.MFAEnabled {
		s.events().Record(ctx, audit.NewEvent(audit.EventMFAChallenge, u.ID, s.now(), map[string]string{
			"method": "totp",
		}))
		return LoginResult{MFARequired: true}, nil
	}

	pair, err := s.Tokens.IssuePair(ctx, u)
	if err != nil {
		return LoginResult{}, err
	}

	s.events().Record(ctx, audit.NewEvent(audit.EventLoginSuccess, u.ID, s.now(), nil))
	return LoginResult{Pair: &pair}, nil
}

// CompleteMFA finishes a login for an MFA-enrolled user. The password is
// re-verified alongside the code so the core stays stateless between the
// two steps.
func (s *LoginService) CompleteMFA(ctx context.Context, email, password, code string) (domain.TokenPair, error) {
	u, err := s.verifyCredentials(ctx, email, password)
	if err != nil {
		return domain.TokenPair{}, err
	}

	ok, err := s.MFA.VerifyLogin(ctx, u.ID, code)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if !ok {
		s.events().Record(ctx, audit.NewEvent(audit.EventLoginFailure, u.ID, s.now(), map[string]string{
			"reason": "mfa_code_rejected",
		}))
		return domain.TokenPair{}, ErrUnauthorized
	}

	pair, err := s.Tokens.IssuePair(ctx, u)
	if err != nil {
		return domain.TokenPair{}, err
	}

	s.events().Record(ctx, audit.NewEvent(audit.EventLoginSuccess, u.ID, s.now(), map[string]string{
		"mfa": "true",
	}))
	return pair, nil
}

// verifyCredentials resolves the user and checks the password. All failures
// collapse to ErrUnauthorized; the failure event never records the
// attempted email.
func (s *LoginService) verifyCredentials(ctx context.Context, email, password string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn the same hashing cost as a real check.
			s.Credentials.BurnVerify(password)
			s.events().Record(ctx, audit.NewEvent(audit.EventLoginFailure, "", s.now(), map[string]string{
				"reason": "unknown_account",
			}))
			return domain.User{}, ErrUnauthorized
		}
		return domain.User{}, err
	}

	if !s.Credentials.Verify(password, u.PasswordHash) {
		s.events().Record(ctx, audit.NewEvent(audit.EventLoginFailure, u.ID, s.now(), map[string]string{
			"reason": "bad_password",
		}))
		return domain.User{}, ErrUnauthorized
	}

	if !u.Active {
		s.events().Record(ctx, audit.NewEvent(audit.EventLoginFailure, u.ID, s.now(), map[string]string{
			"reason": "inactive_account",
		}))
		return domain.User{}, ErrUnauthorized
	}

	return u, nil
}
