package contract

import "encoding/json"

type IngestRequest struct {
	AccessKey      string `json:"access_key" validate:"required" sanitize:"-"`
	TimeoutSeconds int    `json:"timeout_seconds" validate:"gte=0"`
}

type QRCodeIngestRequest struct {
	QRCode         string `json:"qr_code" validate:"required,max=4096"`
	TimeoutSeconds int    `json:"timeout_seconds" validate:"gte=0"`
}

type IngestResponse struct {
	AccessKey        string         `json:"access_key"`
	Model            string         `json:"model"`
	Store            *StoreResponse `json:"store"`
	ProductsUpserted int            `json:"products_upserted"`
	PricesCreated    int            `json:"prices_created"`
	ItemsSkipped     int            `json:"items_skipped"`
	ItemsFailed      int            `json:"items_failed"`
	Cached           bool           `json:"cached"`
}

type RawLookupResponse struct {
	AccessKey   string          `json:"access_key"`
	Model       string          `json:"model"`
	Code        int             `json:"code"`
	CodeMessage string          `json:"code_message"`
	DataCount   int             `json:"data_count"`
	Document    json.RawMessage `json:"document"`
	Cached      bool            `json:"cached"`
}
