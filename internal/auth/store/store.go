package store

import (
	"context"
	"errors"

	"github.com/foliocms/folio/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface the auth core consumes. User
// lifecycle is owned elsewhere; the core reads users and writes back only the
// MFA fields, all through this interface so the storage engine stays
// swappable.
type Store interface {
	Users() Users
	BackupCodes() BackupCodes

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, rolling back when fn errors
	// and committing otherwise. Multi-step MFA state changes (enable,
	// disable, backup-code replacement) go through here so concurrent
	// mutations of one user's MFA state serialize on the write transaction.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the backing database is still reachable.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. Same repos, plus Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateMFASecret stores a provisional TOTP secret without enabling MFA.
	UpdateMFASecret(ctx context.Context, userID string, secret string) error

	// EnableMFA flips mfa_enabled after the first successful verification.
	EnableMFA(ctx context.Context, userID string) error

	// DisableMFA clears mfa_enabled and the stored secret.
	DisableMFA(ctx context.Context, userID string) error

	// SetActive toggles the account's active flag.
	SetActive(ctx context.Context, userID string, active bool) error
}

type BackupCodes interface {
	// CreateBackupCode stores one backup code fingerprint for a user.
	CreateBackupCode(ctx context.Context, userID string, codeHash string) error

	// ConsumeBackupCode atomically removes the fingerprint if present and
	// reports whether it was there. Two concurrent consumers of the same
	// code cannot both see true.
	ConsumeBackupCode(ctx context.Context, userID string, codeHash string) (bool, error)

	// DeleteAllBackupCodes removes every code for a user.
	DeleteAllBackupCodes(ctx context.Context, userID string) error

	// CountBackupCodes returns how many unused codes remain.
	CountBackupCodes(ctx context.Context, userID string) (int, error)
}
