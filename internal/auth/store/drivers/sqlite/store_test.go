package sqlite

import (
	"context"
	"testing"

	"github.com/foliocms/folio/internal/auth/domain"
	"github.com/foliocms/folio/internal/auth/store"
	"github.com/foliocms/folio/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedUser(t *testing.T, s *Store, role domain.Role) domain.User {
	t.Helper()

	u := domain.User{
		ID:           idx.New().String(),
		Email:        idx.New().String() + "@example.com",
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		Role:         role,
		Active:       true,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func TestUsers_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := seedUser(t, s, domain.RoleUser)

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, got.Email)
	require.Equal(t, domain.RoleUser, got.Role)
	require.True(t, got.Active)
	require.False(t, got.MFAEnabled)
	require.Nil(t, got.MFASecret)

	byEmail, err := s.Users().GetUserByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)

	_, err = s.Users().GetUserByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUsers_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := seedUser(t, s, domain.RoleMember)
	dup := u
	dup.ID = idx.New().String()

	err := s.Users().CreateUser(ctx, dup)
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestUsers_MFALifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, domain.RoleUser)

	require.NoError(t, s.Users().UpdateMFASecret(ctx, u.ID, "JBSWY3DPEHPK3PXP"))

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.MFASecret)
	require.False(t, got.MFAEnabled, "secret alone does not enable MFA")

	require.NoError(t, s.Users().EnableMFA(ctx, u.ID))
	got, err = s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.MFAEnabled)

	require.NoError(t, s.Users().DisableMFA(ctx, u.ID))
	got, err = s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, got.MFAEnabled)
	require.Nil(t, got.MFASecret)

	require.ErrorIs(t, s.Users().EnableMFA(ctx, "missing"), store.ErrNotFound)
}

func TestUsers_SetActive(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, domain.RoleUser)

	require.NoError(t, s.Users().SetActive(ctx, u.ID, false))
	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, got.Active)
}

func TestBackupCodes_ConsumeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, domain.RoleUser)

	require.NoError(t, s.BackupCodes().CreateBackupCode(ctx, u.ID, "hash-1"))
	require.NoError(t, s.BackupCodes().CreateBackupCode(ctx, u.ID, "hash-2"))

	n, err := s.BackupCodes().CountBackupCodes(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	ok, err := s.BackupCodes().ConsumeBackupCode(ctx, u.ID, "hash-1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.BackupCodes().ConsumeBackupCode(ctx, u.ID, "hash-1")
	require.NoError(t, err)
	require.False(t, ok, "a consumed code never verifies again")

	ok, err = s.BackupCodes().ConsumeBackupCode(ctx, u.ID, "never-existed")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBackupCodes_DeleteAll(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, domain.RoleUser)

	for _, h := range []string{"a", "b", "c"} {
		require.NoError(t, s.BackupCodes().CreateBackupCode(ctx, u.ID, h))
	}
	require.NoError(t, s.BackupCodes().DeleteAllBackupCodes(ctx, u.ID))

	n, err := s.BackupCodes().CountBackupCodes(ctx, u.ID)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, domain.RoleUser)

	boom := context.Canceled
	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.BackupCodes().CreateBackupCode(ctx, u.ID, "tx-hash"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	n, err := s.BackupCodes().CountBackupCodes(ctx, u.ID)
	require.NoError(t, err)
	require.Zero(t, n, "rolled-back insert must not persist")
}

func TestWithTx_Commits(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, domain.RoleUser)

	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdateMFASecret(ctx, u.ID, "SECRET"); err != nil {
			return err
		}
		return tx.BackupCodes().CreateBackupCode(ctx, u.ID, "tx-hash")
	})
	require.NoError(t, err)

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.MFASecret)

	n, err := s.BackupCodes().CountBackupCodes(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
