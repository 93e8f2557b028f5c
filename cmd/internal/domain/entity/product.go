package entity

// Product is keyed by EAN when the receipt carries one, otherwise by its
// cleaned name. EAN is not unique at the storage level because of that
// name fallback.
type Product struct {
	ID        int64   `gorm:"primaryKey;autoIncrement:false"`
	EAN       *string `gorm:"index"`
	Name      string  `gorm:"not null;index"`

	// SearchName is Name without accents or case, kept for LIKE searches.
	SearchName string `gorm:"not null;default:'';index"`

	Brand     string
	Category  string
	NCM       *string
	Hits      int64 `gorm:"not null;default:0"`
	CreatedAt int64 `gorm:"not null;autoCreateTime:false"`
	UpdatedAt int64 `gorm:"not null;autoUpdateTime:false"`
}
