package repository

import (
	"errors"
	"math"
	"rastru/cmd/internal/domain/entity"
	"rastru/cmd/internal/domain/geo"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultStoreRepository struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) *DefaultStoreRepository {
	return &DefaultStoreRepository{db: db}
}

// Upsert inserts the store or refreshes its descriptive fields in a single
// statement. Blank incoming values never overwrite known ones, and the
// location is only touched when the incoming store carries one.
func (r *DefaultStoreRepository) Upsert(store *entity.Store) error {
	set := map[string]interface{}{
		"name":                gorm.Expr("COALESCE(NULLIF(excluded.name, ''), stores.name)"),
		"trade_name":          gorm.Expr("COALESCE(NULLIF(excluded.trade_name, ''), stores.trade_name)"),
		"city":                gorm.Expr("COALESCE(NULLIF(excluded.city, ''), stores.city)"),
		"state":               gorm.Expr("COALESCE(NULLIF(excluded.state, ''), stores.state)"),
		"documents_processed": gorm.Expr("stores.documents_processed + 1"),
		"last_seen_at":        gorm.Expr("excluded.last_seen_at"),
		"updated_at":          gorm.Expr("excluded.updated_at"),
	}
	if store.Location() != nil {
		set["latitude"] = gorm.Expr("excluded.latitude")
		set["longitude"] = gorm.Expr("excluded.longitude")
	}

	if store.DocumentsProcessed == 0 {
		store.DocumentsProcessed = 1
	}

	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cnpj"}},
		DoUpdates: clause.Assignments(set),
	}).Create(store).Error
}

func (r *DefaultStoreRepository) FindByCNPJ(cnpj string) (*entity.Store, error) {
	var store entity.Store
	err := r.db.Where("cnpj = ?", cnpj).First(&store).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *DefaultStoreRepository) FindAllInCNPJs(cnpjs []string) ([]*entity.Store, error) {
	if len(cnpjs) == 0 {
		return []*entity.Store{}, nil
	}

	var stores []*entity.Store
	err := r.db.Where("cnpj IN ?", cnpjs).Find(&stores).Error
	if err != nil {
		return nil, err
	}
	return stores, nil
}

// FindWithinBox returns geolocated stores inside the box, closest to center
// first, so a limit drops the farthest rows. Callers still have to apply the
// exact distance check.
func (r *DefaultStoreRepository) FindWithinBox(center geo.Point, box geo.BoundingBox, limit int) ([]*entity.Store, error) {
	query := r.db.
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat)

	// Boxes that wrap past the antimeridian only filter on latitude.
	if !box.CrossesAntimeridian() {
		query = query.Where("longitude BETWEEN ? AND ?", box.MinLng, box.MaxLng)
	}

	var stores []*entity.Store
	err := query.Order(closestFirst(center)).Limit(limit).Find(&stores).Error
	if err != nil {
		return nil, err
	}
	return stores, nil
}

// closestFirst orders by the squared equirectangular distance to center,
// which ranks points the same way as the great-circle distance at the
// radii served here.
func closestFirst(center geo.Point) clause.OrderBy {
	cosLat := math.Cos(center.Lat * math.Pi / 180)
	return clause.OrderBy{Expression: clause.Expr{
		SQL: "(latitude - ?) * (latitude - ?) + " +
			"(MIN(ABS(longitude - ?), 360 - ABS(longitude - ?)) * ?) * " +
			"(MIN(ABS(longitude - ?), 360 - ABS(longitude - ?)) * ?), cnpj",
		Vars: []interface{}{
			center.Lat, center.Lat,
			center.Lng, center.Lng, cosLat,
			center.Lng, center.Lng, cosLat,
		},
		WithoutParentheses: true,
	}}
}

// UpdateLocation sets the point of an existing store. It reports false
// when no store has the given CNPJ.
func (r *DefaultStoreRepository) UpdateLocation(cnpj string, point geo.Point, now int64) (bool, error) {
	result := r.db.Model(&entity.Store{}).
		Where("cnpj = ?", cnpj).
		Updates(map[string]interface{}{
			"latitude":   point.Lat,
			"longitude":  point.Lng,
			"updated_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
