package db

import (
	"errors"  // Error inspection
	"fmt"     // Error wrapping
	"strings" // DSN handling
	"time"    // Pool lifetimes

	"gorm.io/driver/mysql"     // MySQL driver for GORM
	"gorm.io/driver/postgres"  // PostgreSQL driver for GORM
	"gorm.io/driver/sqlite"    // SQLite driver for GORM
	"gorm.io/driver/sqlserver" // SQL Server driver for GORM
	"gorm.io/gorm"             // GORM ORM library
	"gorm.io/gorm/logger"      // GORM logger levels
)

// Open connects to the database selected by driver and configures the pool.
// Driver errors are translated so unique violations surface as
// gorm.ErrDuplicatedKey on every backend.
func Open(driver, dsn string, debug bool) (*gorm.DB, error) {
	dialector, err := dialectorFor(driver, dsn)
	if err != nil {
		return nil, err
	}
	gormLogger := logger.Default.LogMode(logger.Silent)
	if debug {
		gormLogger = logger.Default.LogMode(logger.Info)
	}
	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("db: open %s: %w", driver, err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("db: get sql.DB: %w", err)
	}
	if driver == "sqlite" {
		// One writer; in-memory databases also vanish with their last connection
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("db: ping: %w", err)
	}
	return conn, nil
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	if dsn == "" {
		return nil, errors.New("db: empty connection string")
	}
	switch driver {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlserver":
		return sqlserver.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(withForeignKeys(dsn)), nil
	default:
		return nil, fmt.Errorf("db: unsupported DB_DRIVER %q (supported: mysql, postgres, sqlite, sqlserver)", driver)
	}
}

// withForeignKeys turns on SQLite foreign key enforcement, which cascades rely on.
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

// IsNotFound reports whether err is GORM's missing-row error
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate reports whether err is a unique-index violation
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
