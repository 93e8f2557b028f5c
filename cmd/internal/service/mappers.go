package service

import (
	"rastru/cmd/internal/contract"
	"rastru/cmd/internal/domain/entity"
	"rastru/cmd/internal/utils"
	"strconv"
)

func toStoreResponse(s *entity.Store) *contract.StoreResponse {
	if s == nil {
		return nil
	}

	resp := &contract.StoreResponse{
		CNPJ:               s.CNPJ,
		Name:               s.Name,
		TradeName:          s.TradeName,
		City:               s.City,
		State:              s.State,
		DocumentsProcessed: s.DocumentsProcessed,
		LastSeenAt:         utils.FormatEpoch(s.LastSeenAt),
		CreatedAt:          utils.FormatEpoch(s.CreatedAt),
		UpdatedAt:          utils.FormatEpoch(s.UpdatedAt),
	}
	if loc := s.Location(); loc != nil {
		resp.Location = &contract.LocationResponse{Lat: loc.Lat, Lng: loc.Lng}
	}
	return resp
}

func toPriceResponse(p *entity.Price) *contract.PriceResponse {
	return &contract.PriceResponse{
		ID:                strconv.FormatInt(p.ID, 10),
		EAN:               p.EAN,
		ProductName:       p.ProductName,
		StoreCNPJ:         p.StoreCNPJ,
		StoreName:         p.StoreName,
		City:              p.City,
		State:             p.State,
		Price:             p.Price,
		Quantity:          p.Quantity,
		Unit:              p.Unit,
		Date:              utils.FormatEpoch(p.Date),
		DocumentAccessKey: p.DocumentAccessKey,
		Source:            p.Source,
		Confidence:        p.Confidence,
		CreatedAt:         utils.FormatEpoch(p.CreatedAt),
	}
}

func toPricesResponse(ps []*entity.Price) []*contract.PriceResponse {
	prices := make([]*contract.PriceResponse, len(ps))
	for i, p := range ps {
		prices[i] = toPriceResponse(p)
	}
	return prices
}

func toProductResponse(p *entity.Product) *contract.ProductResponse {
	return &contract.ProductResponse{
		ID:        strconv.FormatInt(p.ID, 10),
		EAN:       p.EAN,
		Name:      p.Name,
		Brand:     p.Brand,
		Category:  p.Category,
		NCM:       p.NCM,
		Hits:      p.Hits,
		CreatedAt: utils.FormatEpoch(p.CreatedAt),
		UpdatedAt: utils.FormatEpoch(p.UpdatedAt),
	}
}
