package fiscal

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// NormalizedDocument is the provider-agnostic view of one fiscal receipt.
type NormalizedDocument struct {
	AccessKey    *AccessKey
	IssuerName   string
	TradeName    string
	IssuerCNPJ   string
	Municipality string
	State        string
	TotalValue   decimal.Decimal
	IssueDate    time.Time
	LineItems    []*NormalizedLineItem
}

type NormalizedLineItem struct {
	ItemNumber  int
	Description string
	// EAN is nil when none of the barcode fields were populated.
	EAN        *string
	NCM        *string
	Quantity   decimal.Decimal
	UnitValue  decimal.Decimal
	TotalValue decimal.Decimal
	Unit       string
}

// ProductKey is the natural product identity: the EAN when known,
// otherwise the description. Empty means the item cannot be deduplicated.
func (i *NormalizedLineItem) ProductKey() string {
	if i.HasEAN() {
		return *i.EAN
	}
	if name := CleanName(i.Description); name != "" {
		return nameKeyPrefix + name
	}
	return ""
}

func (i *NormalizedLineItem) HasEAN() bool {
	return i.EAN != nil && *i.EAN != ""
}

const nameKeyPrefix = "name:"

// CleanName trims and collapses inner whitespace of a product description.
func CleanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
