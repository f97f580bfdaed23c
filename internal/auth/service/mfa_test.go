package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/foliocms/folio/internal/auth/domain"
	"github.com/foliocms/folio/pkg/jwtx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

// totpCodeAt computes the code an authenticator app would show at t.
func totpCodeAt(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    totpPeriod,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

func TestMFAService_EnrollAndVerifySetup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, domain.RoleUser, "hunter2!")

	enrollment, err := env.MFA.Enroll(ctx, u.ID)
	require.NoError(t, err)
	require.NotEmpty(t, enrollment.Secret)
	require.Contains(t, enrollment.OTPAuthURL, "otpauth://totp/")
	require.Len(t, enrollment.BackupCodes, 10)
	for _, code := range enrollment.BackupCodes {
		require.Len(t, code, 8)
		require.Equal(t, strings.ToUpper(code), code)
	}

	// Enrollment alone does not enable MFA.
	got, err := env.Store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, got.MFAEnabled)

	// A wrong code leaves the user pending.
	ok, err := env.MFA.VerifySetup(ctx, u.ID, "000000", enrollment.EnrollmentToken)
	require.NoError(t, err)
	require.False(t, ok)

	code := totpCodeAt(t, enrollment.Secret, env.Clock.Now())
	ok, err = env.MFA.VerifySetup(ctx, u.ID, code, enrollment.EnrollmentToken)
	require.NoError(t, err)
	require.True(t, ok)

	got, err = env.Store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.MFAEnabled)

	// Enrolling an already-enabled account is a conflict.
	_, err = env.MFA.Enroll(ctx, u.ID)
	require.ErrorIs(t, err, ErrMFAAlreadyEnabled)
}

func TestMFAService_EnrollmentTokenExpires(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, domain.RoleUser, "hunter2!")

	enrollment, err := env.MFA.Enroll(ctx, u.ID)
	require.NoError(t, err)

	env.Clock.Advance(11 * time.Minute)

	code := totpCodeAt(t, enrollment.Secret, env.Clock.Now())
	_, err = env.MFA.VerifySetup(ctx, u.ID, code, enrollment.EnrollmentToken)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestMFAService_EnrollmentTokenWrongUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seedUser(t, domain.RoleUser, "hunter2!")
	bob := env.seedUser(t, domain.RoleUser, "hunter2!")

	aliceEnrollment, err := env.MFA.Enroll(ctx, alice.ID)
	require.NoError(t, err)
	bobEnrollment, err := env.MFA.Enroll(ctx, bob.ID)
	require.NoError(t, err)

	// Bob cannot complete his enrollment with Alice's token.
	code := totpCodeAt(t, bobEnrollment.Secret, env.Clock.Now())
	_, err = env.MFA.VerifySetup(ctx, bob.ID, code, aliceEnrollment.EnrollmentToken)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestMFAService_EnrollWithCustomIssuer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, domain.RoleUser, "hunter2!")

	// A deployment that overrides the issuer and audience must still be
	// able to complete the enrollment handshake: the token the service
	// signs has to carry the same iss the key verifies against.
	key, err := jwtx.NewHS256Key(
		[]byte("staging-access-secret-0123456789abcdef"), "folio-staging-auth", "folio-staging")
	require.NoError(t, err)

	mfa := &MFAService{
		Store:       env.Store,
		EnrollKey:   key,
		Issuer:      "Folio Staging",
		TokenIssuer: "folio-staging-auth",
		Audience:    "folio-staging",
		Now:         env.Clock.Now,
	}

	enrollment, err := mfa.Enroll(ctx, u.ID)
	require.NoError(t, err)

	code := totpCodeAt(t, enrollment.Secret, env.Clock.Now())
	ok, err := mfa.VerifySetup(ctx, u.ID, code, enrollment.EnrollmentToken)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMFAService_VerifyLoginSkewWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, domain.RoleUser, "hunter2!")
	enrollment := env.enrollMFA(t, u.ID)

	now := env.Clock.Now()
	cases := []struct {
		name   string
		offset time.Duration
		want   bool
	}{
		{"current step", 0, true},
		{"one step behind", -30 * time.Second, true},
		{"one step ahead", 30 * time.Second, true},
		{"two steps behind", -60 * time.Second, true},
		{"two steps ahead", 60 * time.Second, true},
		{"three steps behind", -90 * time.Second, false},
		{"three steps ahead", 90 * time.Second, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code := totpCodeAt(t, enrollment.Secret, now.Add(tc.offset))
			ok, err := env.MFA.VerifyLogin(ctx, u.ID, code)
			require.NoError(t, err)
			require.Equal(t, tc.want, ok)
		})
	}
}

func TestMFAService_BackupCodeSingleUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, domain.RoleUser, "hunter2!")
	enrollment := env.enrollMFA(t, u.ID)

	code := enrollment.BackupCodes[0]

	ok, err := env.MFA.VerifyLogin(ctx, u.ID, code)
	require.NoError(t, err)
	require.True(t, ok)

	// Consumed. A replay fails.
	ok, err = env.MFA.VerifyLogin(ctx, u.ID, code)
	require.NoError(t, err)
	require.False(t, ok)

	// Case-insensitive match on entry.
	ok, err = env.MFA.VerifyLogin(ctx, u.ID, strings.ToLower(enrollment.BackupCodes[1]))
	require.NoError(t, err)
	require.True(t, ok)

	remaining, err := env.Store.BackupCodes().CountBackupCodes(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 8, remaining)
}

func TestMFAService_VerifyLoginNotEnabled(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, domain.RoleUser, "hunter2!")

	_, err := env.MFA.VerifyLogin(ctx, u.ID, "123456")
	require.ErrorIs(t, err, ErrMFANotEnabled)
	require.ErrorIs(t, err, ErrConflict)
}

func TestMFAService_Disable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, domain.RoleUser, "hunter2!")
	env.enrollMFA(t, u.ID)

	require.ErrorIs(t, env.MFA.Disable(ctx, u.ID, "wrong-password"), ErrUnauthorized)

	require.NoError(t, env.MFA.Disable(ctx, u.ID, "hunter2!"))

	got, err := env.Store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, got.MFAEnabled)
	require.Nil(t, got.MFASecret)

	remaining, err := env.Store.BackupCodes().CountBackupCodes(ctx, u.ID)
	require.NoError(t, err)
	require.Zero(t, remaining)

	require.ErrorIs(t, env.MFA.Disable(ctx, u.ID, "hunter2!"), ErrMFANotEnabled)
}

func TestMFAService_RegenerateBackupCodes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.seedUser(t, domain.RoleUser, "hunter2!")
	enrollment := env.enrollMFA(t, u.ID)

	fresh, err := env.MFA.RegenerateBackupCodes(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, fresh, 10)

	// The old set is dead, the new set works.
	ok, err := env.MFA.VerifyLogin(ctx, u.ID, enrollment.BackupCodes[0])
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = env.MFA.VerifyLogin(ctx, u.ID, fresh[0])
	require.NoError(t, err)
	require.True(t, ok)
}
