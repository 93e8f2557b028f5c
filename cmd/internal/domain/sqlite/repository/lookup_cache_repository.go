package repository

import (
	"errors"
	"rastru/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

type DefaultLookupCacheRepository struct {
	db *gorm.DB
}

func NewLookupCacheRepository(db *gorm.DB) *DefaultLookupCacheRepository {
	return &DefaultLookupCacheRepository{db: db}
}

// FindFresh returns the cached lookup only when it was stored after notBefore.
func (r *DefaultLookupCacheRepository) FindFresh(accessKey string, notBefore int64) (*entity.LookupCache, error) {
	var cached entity.LookupCache
	err := r.db.
		Where("access_key = ? AND cached_at >= ?", accessKey, notBefore).
		First(&cached).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &cached, nil
}

func (r *DefaultLookupCacheRepository) Save(cached *entity.LookupCache) error {
	return r.db.Save(cached).Error
}

func (r *DefaultLookupCacheRepository) DeleteExpired(before int64) (int64, error) {
	result := r.db.
		Where("cached_at < ?", before).
		Delete(&entity.LookupCache{})
	return result.RowsAffected, result.Error
}
