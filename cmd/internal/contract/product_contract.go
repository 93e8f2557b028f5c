package contract

type ProductResponse struct {
	ID        string  `json:"id"`
	EAN       *string `json:"ean"`
	Name      string  `json:"name"`
	Brand     string  `json:"brand"`
	Category  string  `json:"category"`
	NCM       *string `json:"ncm"`
	Hits      int64   `json:"hits"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

type ProductDetailsResponse struct {
	Product      *ProductResponse `json:"product"`
	RecentPrices []*PriceResponse `json:"recent_prices"`
}
