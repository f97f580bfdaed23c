package sqlite

import (
	"context"
	"errors"

	"github.com/foliocms/folio/internal/auth/store"
)

// storeTx exposes the same repos scoped onto one sql.Tx. Nested transactions
// are deliberately unsupported.
type storeTx struct {
	tx txHandle
}

type txHandle interface {
	dbtx
	Commit() error
	Rollback() error
}

func (t *storeTx) Users() store.Users             { return &usersRepo{db: t.tx} }
func (t *storeTx) BackupCodes() store.BackupCodes { return &backupCodesRepo{db: t.tx} }

func (t *storeTx) Commit() error   { return t.tx.Commit() }
func (t *storeTx) Rollback() error { return t.tx.Rollback() }

func (t *storeTx) ApplyMigrations() error {
	return errors.New("sqlite: migrations cannot run inside a transaction")
}

func (t *storeTx) Tx(context.Context) (store.Tx, error) {
	return nil, errors.New("sqlite: nested transactions are not supported")
}

func (t *storeTx) WithTx(context.Context, func(tx store.Tx) error) error {
	return errors.New("sqlite: nested transactions are not supported")
}

func (t *storeTx) Close() error { return nil }

func (t *storeTx) Ping(context.Context) error { return nil }
