package database

import (
	"context"
	"fmt"
	"time"

	"pointshop/config"

	"gorm.io/gorm"
)

// UnitOfWork runs a function inside one transaction with a bounded lock wait
// and an overall deadline. Either every mutation in fn commits or none does.
type UnitOfWork struct {
	db          *gorm.DB
	lockTimeout time.Duration
	txTimeout   time.Duration
}

func NewUnitOfWork(db *gorm.DB, cfg config.LedgerConfig) *UnitOfWork {
	return &UnitOfWork{db: db, lockTimeout: cfg.LockTimeout, txTimeout: cfg.TxTimeout}
}

// DB returns the pool for reads that need no transaction.
func (u *UnitOfWork) DB() *gorm.DB { return u.db }

// Run executes fn in a transaction. Errors returned by fn roll back the
// transaction and are returned unchanged unless they are transient store
// failures, which are wrapped with ErrTransient.
func (u *UnitOfWork) Run(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if u.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.txTimeout)
		defer cancel()
	}
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := u.boundLockWait(tx); err != nil {
			return err
		}
		return fn(tx)
	})
	return Classify(err)
}

func (u *UnitOfWork) boundLockWait(tx *gorm.DB) error {
	if u.lockTimeout <= 0 {
		return nil
	}
	if tx.Dialector.Name() == "postgres" {
		return tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", u.lockTimeout.Milliseconds())).Error
	}
	// MySQL connections carry the bound from the DSN (see MySQLDSNWithLockWait).
	// sqlite serialises writers itself; busy waits are bounded by the deadline.
	return nil
}
