package entity

import "rastru/cmd/internal/domain/geo"

// Store is the issuer of a fiscal receipt, one row per CNPJ.
type Store struct {
	CNPJ      string `gorm:"primaryKey;column:cnpj;size:14"`
	Name      string `gorm:"not null"`
	TradeName string
	City      string
	State     string `gorm:"size:2"`

	// Latitude and Longitude are either both set or both nil.
	Latitude  *float64 `gorm:"index:idx_store_location,priority:1"`
	Longitude *float64 `gorm:"index:idx_store_location,priority:2"`

	DocumentsProcessed int64 `gorm:"not null;default:0"`
	LastSeenAt         int64 `gorm:"not null;default:0"`
	CreatedAt          int64 `gorm:"not null;autoCreateTime:false"`
	UpdatedAt          int64 `gorm:"not null;autoUpdateTime:false"`
}

// Location returns nil when the store was never geolocated.
func (s *Store) Location() *geo.Point {
	if s.Latitude == nil || s.Longitude == nil {
		return nil
	}
	return &geo.Point{Lat: *s.Latitude, Lng: *s.Longitude}
}

func (s *Store) SetLocation(p geo.Point) {
	lat, lng := p.Lat, p.Lng
	s.Latitude = &lat
	s.Longitude = &lng
}
