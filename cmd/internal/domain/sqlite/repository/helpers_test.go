package repository

import (
	"rastru/cmd/internal/domain/sqlite"
	"testing"

	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := sqlite.Init(sqlite.MemoryPath)
	if err != nil {
		t.Fatalf("failed to init sqlite: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func strPtr(s string) *string {
	return &s
}
