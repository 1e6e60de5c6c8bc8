package database

import (
	"fmt"
	"strconv"
	"time"

	"pointshop/config"
	"pointshop/internal/models"

	"github.com/glebarez/sqlite"
	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens the process-wide connection pool. The caller owns it and must Close it.
// lockWait bounds row-lock waits on MySQL connections; Postgres bounds them per transaction.
func NewDB(cfg *config.DatabaseConfig, lockWait time.Duration) (*gorm.DB, error) {
	dsn := cfg.DSN
	if cfg.Driver == "mysql" {
		var err error
		if dsn, err = MySQLDSNWithLockWait(dsn, lockWait); err != nil {
			return nil, err
		}
	}
	dialector, err := dialectorFor(cfg.Driver, dsn)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error), // Only log errors, not every SQL query
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "postgres", "":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("database: unsupported driver %q", driver)
	}
}

// MySQLDSNWithLockWait sets innodb_lock_wait_timeout as a connection parameter,
// so every pooled connection starts with the same bound.
func MySQLDSNWithLockWait(dsn string, lockWait time.Duration) (string, error) {
	if lockWait <= 0 {
		return dsn, nil
	}
	mc, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("database: parse mysql dsn: %w", err)
	}
	secs := int64(lockWait / time.Second)
	if secs < 1 {
		secs = 1
	}
	if mc.Params == nil {
		mc.Params = map[string]string{}
	}
	mc.Params["innodb_lock_wait_timeout"] = strconv.FormatInt(secs, 10)
	return mc.FormatDSN(), nil
}

// Close releases every pooled connection.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Account{},
		&models.DeviceBinding{},
		&models.CouponItem{},
		&models.RedemptionRecord{},
		&models.Referral{},
		&models.SystemSetting{},
		&models.AuditLog{},
	)
}
