package service

import (
	"context"
	"testing"

	"github.com/foliocms/folio/internal/auth/audit"
	"github.com/foliocms/folio/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestLoginService_Authenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, domain.RoleUser, "hunter2!")

	res, err := env.Login.Authenticate(ctx, u.Email, "hunter2!")
	require.NoError(t, err)
	require.False(t, res.MFARequired)
	require.NotNil(t, res.Pair)

	claims, err := env.Tokens.VerifyAccess(ctx, res.Pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.Subject)
	require.Equal(t, 1, env.Ring.CountByType()[audit.EventLoginSuccess])
}

func TestLoginService_FailureModesLookAlike(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, domain.RoleUser, "hunter2!")

	inactive := env.seedUser(t, domain.RoleUser, "hunter2!")
	require.NoError(t, env.Store.Users().SetActive(ctx, inactive.ID, false))

	// Unknown account, wrong password, and deactivated account must be
	// indistinguishable to the caller.
	_, errUnknown := env.Login.Authenticate(ctx, "nobody@example.com", "hunter2!")
	_, errWrongPw := env.Login.Authenticate(ctx, u.Email, "not-the-password")
	_, errInactive := env.Login.Authenticate(ctx, inactive.Email, "hunter2!")

	require.ErrorIs(t, errUnknown, ErrUnauthorized)
	require.ErrorIs(t, errWrongPw, ErrUnauthorized)
	require.ErrorIs(t, errInactive, ErrUnauthorized)
	require.Equal(t, errUnknown.Error(), errWrongPw.Error())
	require.Equal(t, errWrongPw.Error(), errInactive.Error())

	require.Equal(t, 3, env.Ring.CountByType()[audit.EventLoginFailure])
}

func TestLoginService_MFAChallenge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, domain.RoleUser, "hunter2!")
	enrollment := env.enrollMFA(t, u.ID)

	// Password alone yields a challenge, never tokens.
	res, err := env.Login.Authenticate(ctx, u.Email, "hunter2!")
	require.NoError(t, err)
	require.True(t, res.MFARequired)
	require.Nil(t, res.Pair)
	require.Equal(t, 1, env.Ring.CountByType()[audit.EventMFAChallenge])

	// Completing with a wrong code fails closed.
	_, err = env.Login.CompleteMFA(ctx, u.Email, "hunter2!", "000000")
	require.ErrorIs(t, err, ErrUnauthorized)

	// Completing with a bad password fails even with a valid code.
	code := totpCodeAt(t, enrollment.Secret, env.Clock.Now())
	_, err = env.Login.CompleteMFA(ctx, u.Email, "wrong", code)
	require.ErrorIs(t, err, ErrUnauthorized)

	pair, err := env.Login.CompleteMFA(ctx, u.Email, "hunter2!", code)
	require.NoError(t, err)

	claims, err := env.Tokens.VerifyAccess(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.Subject)
}

func TestLoginService_CompleteMFAWithBackupCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, domain.RoleUser, "hunter2!")
	enrollment := env.enrollMFA(t, u.ID)

	pair, err := env.Login.CompleteMFA(ctx, u.Email, "hunter2!", enrollment.BackupCodes[0])
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)

	// The code burned on use.
	_, err = env.Login.CompleteMFA(ctx, u.Email, "hunter2!", enrollment.BackupCodes[0])
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestLoginService_CompleteMFAWithoutEnrollment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, domain.RoleUser, "hunter2!")

	// An account without MFA cannot use the MFA completion path.
	_, err := env.Login.CompleteMFA(ctx, u.Email, "hunter2!", "123456")
	require.Error(t, err)
}
