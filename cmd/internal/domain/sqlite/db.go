package sqlite

import (
	"rastru/cmd/internal/domain/entity"
	"rastru/cmd/internal/utils"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	glog "github.com/labstack/gommon/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const MemoryPath = ":memory:"

func Init(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn(path)), &gorm.Config{
		Logger: logger.New(glog.New("gorm"), logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, err
	}

	// SQLite allows a single writer, and an in-memory database only lives
	// as long as its one connection.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	if path != MemoryPath {
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	err = db.AutoMigrate(
		&entity.Store{},
		&entity.Product{},
		&entity.Price{},
		&entity.LookupCache{},
	)
	if err != nil {
		return nil, err
	}

	if err = backfillSearchNames(db); err != nil {
		return nil, err
	}
	return db, nil
}

// backfillSearchNames fills search_name for products stored before the
// column existed.
func backfillSearchNames(db *gorm.DB) error {
	var batch []*entity.Product
	return db.Where("search_name = ''").FindInBatches(&batch, 500, func(tx *gorm.DB, _ int) error {
		for _, p := range batch {
			err := tx.Model(&entity.Product{}).
				Where("id = ?", p.ID).
				Update("search_name", utils.FoldText(p.Name)).Error
			if err != nil {
				return err
			}
		}
		return nil
	}).Error
}

// Ping is used by the health route.
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func dsn(path string) string {
	if path == MemoryPath || strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
}
