package repository

import (
	"errors"
	"rastru/cmd/internal/domain/entity"
	"rastru/cmd/internal/utils/uid"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultPriceRepository struct {
	db *gorm.DB
}

func NewPriceRepository(db *gorm.DB) *DefaultPriceRepository {
	return &DefaultPriceRepository{db: db}
}

func (r *DefaultPriceRepository) ExistsByNaturalKey(productKey, storeCNPJ, accessKey string) (bool, error) {
	var exists int
	err := r.db.
		Raw("SELECT EXISTS(SELECT 1 FROM prices WHERE product_key = ? AND store_cnpj = ? AND document_access_key = ?)",
			productKey, storeCNPJ, accessKey).
		Scan(&exists).Error
	if err != nil {
		return false, err
	}
	return exists == 1, nil
}

// Insert adds the price fact unless its natural key already exists.
// A conflicting insert is not an error: it returns false.
func (r *DefaultPriceRepository) Insert(price *entity.Price) (bool, error) {
	if price.ID == 0 {
		price.ID = uid.Generate()
	}

	result := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "product_key"},
			{Name: "store_cnpj"},
			{Name: "document_access_key"},
		},
		DoNothing: true,
	}).Create(price)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// FindByEAN returns the newest prices first.
func (r *DefaultPriceRepository) FindByEAN(ean string, limit int) ([]*entity.Price, error) {
	var prices []*entity.Price
	err := r.db.
		Where("ean = ?", ean).
		Order("date DESC, id DESC").
		Limit(limit).
		Find(&prices).Error
	if err != nil {
		return nil, err
	}
	return prices, nil
}

func (r *DefaultPriceRepository) FindAllByEAN(ean string) ([]*entity.Price, error) {
	var prices []*entity.Price
	err := r.db.Where("ean = ?", ean).Find(&prices).Error
	if err != nil {
		return nil, err
	}
	return prices, nil
}

// FindLowestByEAN breaks ties between equal prices by the most recent date.
func (r *DefaultPriceRepository) FindLowestByEAN(ean string) (*entity.Price, error) {
	var price entity.Price
	err := r.db.
		Where("ean = ?", ean).
		Order("price ASC, date DESC, id DESC").
		First(&price).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &price, nil
}

func (r *DefaultPriceRepository) CountByDocument(accessKey string) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Price{}).
		Where("document_access_key = ?", accessKey).
		Count(&count).Error
	return count, err
}
