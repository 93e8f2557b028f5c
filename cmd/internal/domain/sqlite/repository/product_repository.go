package repository

import (
	"errors"
	"rastru/cmd/internal/domain/entity"
	"rastru/cmd/internal/utils"
	"rastru/cmd/internal/utils/uid"
	"strings"

	"gorm.io/gorm"
)

type DefaultProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *DefaultProductRepository {
	return &DefaultProductRepository{db: db}
}

func (r *DefaultProductRepository) FindByEAN(ean string) (*entity.Product, error) {
	var product entity.Product
	err := r.db.Where("ean = ?", ean).Order("id").First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *DefaultProductRepository) FindByName(name string) (*entity.Product, error) {
	var product entity.Product
	err := r.db.Where("name = ?", name).Order("id").First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *DefaultProductRepository) Create(product *entity.Product) error {
	if product.ID == 0 {
		product.ID = uid.Generate()
	}
	product.SearchName = utils.FoldText(product.Name)
	return r.db.Create(product).Error
}

// Upsert finds the product by EAN, or by name when it has none, and merges
// into it or inserts it. The lookup and the write share one transaction so
// two receipts introducing the same product cannot both insert it.
func (r *DefaultProductRepository) Upsert(product *entity.Product) (bool, error) {
	created := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		txRepo := &DefaultProductRepository{db: tx}

		var existing *entity.Product
		var err error
		if product.EAN != nil {
			existing, err = txRepo.FindByEAN(*product.EAN)
		} else {
			existing, err = txRepo.FindByName(product.Name)
		}
		if err != nil {
			return err
		}

		if existing == nil {
			created = true
			product.Hits = 1
			return txRepo.Create(product)
		}

		product.ID = existing.ID
		product.CreatedAt = existing.CreatedAt
		if err = txRepo.Merge(product); err != nil {
			return err
		}
		product.Hits = existing.Hits + 1
		return nil
	})
	return created, err
}

// Merge writes the descriptive fields of product over the stored row and
// bumps its hit counter. Nil optional fields keep their stored value.
func (r *DefaultProductRepository) Merge(product *entity.Product) error {
	updates := map[string]interface{}{
		"name":        product.Name,
		"search_name": utils.FoldText(product.Name),
		"hits":        gorm.Expr("hits + 1"),
		"updated_at":  product.UpdatedAt,
	}
	if product.EAN != nil {
		updates["ean"] = *product.EAN
	}
	if product.NCM != nil {
		updates["ncm"] = *product.NCM
	}
	if product.Brand != "" {
		updates["brand"] = product.Brand
	}
	if product.Category != "" {
		updates["category"] = product.Category
	}

	return r.db.Model(&entity.Product{}).
		Where("id = ?", product.ID).
		Updates(updates).Error
}

// SearchByName matches anywhere in the name, ignoring case and accents.
func (r *DefaultProductRepository) SearchByName(q string, limit int) ([]*entity.Product, error) {
	pattern := "%" + escapeLike(utils.FoldText(q)) + "%"

	var products []*entity.Product
	err := r.db.
		Where("search_name LIKE ? ESCAPE '\\'", pattern).
		Order("hits DESC, name").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
