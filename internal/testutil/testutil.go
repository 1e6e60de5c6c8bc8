// Package testutil opens isolated in-memory stores for package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"pointshop/config"
	"pointshop/internal/database"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory SQLite pool private to the test. The pool
// holds a single connection, so concurrent units of work queue for it the way
// they would queue on row locks in a server database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "open sqlite")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db), "migrate")
	return db
}

// LedgerConfig is a ledger configuration with generous deadlines for tests.
func LedgerConfig() config.LedgerConfig {
	return config.LedgerConfig{
		Location:      time.UTC,
		LockTimeout:   time.Second,
		TxTimeout:     30 * time.Second,
		ClaimAttempts: 3,
	}
}

// Clock returns a settable clock for services that accept a now func.
type Clock struct {
	T time.Time
}

func NewClock(t time.Time) *Clock { return &Clock{T: t} }

func (c *Clock) Now() time.Time { return c.T }

func (c *Clock) Advance(d time.Duration) { c.T = c.T.Add(d) }
