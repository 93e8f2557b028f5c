package contract

type LocationResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type StoreResponse struct {
	CNPJ               string            `json:"cnpj"`
	Name               string            `json:"name"`
	TradeName          string            `json:"trade_name"`
	City               string            `json:"city"`
	State              string            `json:"state"`
	Location           *LocationResponse `json:"location"`
	DocumentsProcessed int64             `json:"documents_processed"`
	LastSeenAt         string            `json:"last_seen_at"`
	CreatedAt          string            `json:"created_at"`
	UpdatedAt          string            `json:"updated_at"`
}

type NearbyStoreResponse struct {
	Store      *StoreResponse `json:"store"`
	DistanceKm float64        `json:"distance_km"`
}

type UpdateLocationRequest struct {
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lng *float64 `json:"lng" validate:"required,longitude"`
}
