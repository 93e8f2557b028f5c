package entity

import "github.com/shopspring/decimal"

const (
	SourceNFCe = "nfce"
	SourceNFe  = "nfe"

	DefaultConfidence = 1.0
)

// Price is an immutable observation of a product price on one receipt.
//
// The natural key (ProductKey, StoreCNPJ, DocumentAccessKey) is enforced by a
// unique index, so re-ingesting the same receipt can never add a second row.
type Price struct {
	ID         int64   `gorm:"primaryKey;autoIncrement:false"`
	ProductKey string  `gorm:"not null;uniqueIndex:idx_price_natural_key,priority:1"`
	EAN        *string `gorm:"index:idx_price_ean_price,priority:1;index:idx_price_ean_date,priority:1"`

	ProductName string `gorm:"not null"`
	StoreCNPJ   string `gorm:"not null;size:14;uniqueIndex:idx_price_natural_key,priority:2;index:idx_price_store_date,priority:1"`
	StoreName   string `gorm:"not null"`
	City        string
	State       string `gorm:"size:2"`

	Price    decimal.Decimal `gorm:"type:decimal(14,4);not null;index:idx_price_ean_price,priority:2"`
	Quantity decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	Unit     string

	// Date is the receipt issue date in epoch millis.
	Date              int64  `gorm:"not null;index:idx_price_store_date,priority:2,sort:desc;index:idx_price_ean_date,priority:2,sort:desc"`
	DocumentAccessKey string `gorm:"not null;size:44;uniqueIndex:idx_price_natural_key,priority:3"`

	Source     string  `gorm:"not null;default:nfce;index"`
	Confidence float64 `gorm:"not null;default:1"`
	Collector  string
	CreatedAt  int64 `gorm:"not null;autoCreateTime:false"`
}
