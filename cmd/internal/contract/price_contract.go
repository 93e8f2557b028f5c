package contract

import "github.com/shopspring/decimal"

type PriceResponse struct {
	ID                string          `json:"id"`
	EAN               *string         `json:"ean"`
	ProductName       string          `json:"product_name"`
	StoreCNPJ         string          `json:"store_cnpj"`
	StoreName         string          `json:"store_name"`
	City              string          `json:"city"`
	State             string          `json:"state"`
	Price             decimal.Decimal `json:"price"`
	Quantity          decimal.Decimal `json:"quantity"`
	Unit              string          `json:"unit"`
	Date              string          `json:"date"`
	DocumentAccessKey string          `json:"document_access_key"`
	Source            string          `json:"source"`
	Confidence        float64         `json:"confidence"`
	CreatedAt         string          `json:"created_at"`
}

type LowestPriceResponse struct {
	Price *PriceResponse `json:"price"`
	Store *StoreResponse `json:"store"`
}

type NearbyPriceResponse struct {
	Price      *PriceResponse `json:"price"`
	Store      *StoreResponse `json:"store"`
	DistanceKm float64        `json:"distance_km"`
}
