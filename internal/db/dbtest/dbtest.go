// Package dbtest opens throwaway migrated SQLite databases for tests.
package dbtest

import (
	"testing"

	"shop_system/internal/db"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// New returns a migrated in-memory database private to t.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := db.Open("sqlite", dsn, false)
	if err != nil {
		t.Fatalf("dbtest: open: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("dbtest: migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}
