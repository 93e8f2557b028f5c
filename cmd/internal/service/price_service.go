package service

import (
	"rastru/cmd/internal/contract"
	"rastru/cmd/internal/domain/entity"
	"rastru/cmd/internal/domain/fiscal"
	"rastru/cmd/internal/domain/geo"
	"rastru/cmd/internal/utils/apierror"
	"sort"

	"github.com/labstack/gommon/log"
)

const DefaultHistoryLimit = 100

type PriceQueryRepository interface {
	FindByEAN(ean string, limit int) ([]*entity.Price, error)
	FindAllByEAN(ean string) ([]*entity.Price, error)
	FindLowestByEAN(ean string) (*entity.Price, error)
}

type StoreLookupRepository interface {
	FindByCNPJ(cnpj string) (*entity.Store, error)
	FindAllInCNPJs(cnpjs []string) ([]*entity.Store, error)
}

type DefaultPriceService struct {
	PriceRepo       PriceQueryRepository
	StoreRepo       StoreLookupRepository
	HistoryLimit    int
	DefaultRadiusKm float64
}

func NewPriceService(priceRepo PriceQueryRepository, storeRepo StoreLookupRepository, historyLimit int, defaultRadiusKm float64) *DefaultPriceService {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}

	return &DefaultPriceService{
		PriceRepo:       priceRepo,
		StoreRepo:       storeRepo,
		HistoryLimit:    historyLimit,
		DefaultRadiusKm: defaultRadiusKm,
	}
}

// History returns the most recent prices for ean, newest first.
func (p *DefaultPriceService) History(ean string) ([]*contract.PriceResponse, apierror.ErrorResponse) {
	if !isValidEAN(ean) {
		return nil, apierror.InvalidEANError
	}

	prices, err := p.PriceRepo.FindByEAN(ean, p.HistoryLimit)
	if err != nil {
		log.Errorf("failed to fetch price history for ean %s: %v", ean, err)
		return nil, apierror.InternalServerError
	}
	return toPricesResponse(prices), nil
}

// Lowest returns the cheapest price ever seen for ean, the most recent one
// among equal prices, together with the store as it is known now.
func (p *DefaultPriceService) Lowest(ean string) (*contract.LowestPriceResponse, apierror.ErrorResponse) {
	if !isValidEAN(ean) {
		return nil, apierror.InvalidEANError
	}

	price, err := p.PriceRepo.FindLowestByEAN(ean)
	if err != nil {
		log.Errorf("failed to fetch lowest price for ean %s: %v", ean, err)
		return nil, apierror.InternalServerError
	}

	if price == nil {
		return nil, apierror.PriceNotFoundError
	}

	store, err := p.StoreRepo.FindByCNPJ(price.StoreCNPJ)
	if err != nil {
		log.Errorf("failed to find store %s for lowest price of %s: %v", price.StoreCNPJ, ean, err)
		return nil, apierror.InternalServerError
	}

	return &contract.LowestPriceResponse{
		Price: toPriceResponse(price),
		Store: toStoreResponse(store),
	}, nil
}

// Nearby returns the prices for ean at stores within radiusKm of the given
// point, cheapest first. Stores without a known location are left out.
func (p *DefaultPriceService) Nearby(ean string, lat, lng float64, radiusKm *float64) ([]*contract.NearbyPriceResponse, apierror.ErrorResponse) {
	if !isValidEAN(ean) {
		return nil, apierror.InvalidEANError
	}

	center, radius, apierr := checkArea(lat, lng, radiusKm, p.DefaultRadiusKm)
	if apierr != nil {
		return nil, apierr
	}

	prices, err := p.PriceRepo.FindAllByEAN(ean)
	if err != nil {
		log.Errorf("failed to fetch prices for ean %s: %v", ean, err)
		return nil, apierror.InternalServerError
	}

	stores, err := p.findStores(prices)
	if err != nil {
		log.Errorf("failed to resolve stores for ean %s: %v", ean, err)
		return nil, apierror.InternalServerError
	}

	type candidate struct {
		price *entity.Price
		store *entity.Store
		dist  float64
	}

	candidates := make([]candidate, 0, len(prices))
	for _, price := range prices {
		store := stores[price.StoreCNPJ]
		if store == nil || store.Location() == nil {
			continue
		}

		dist := geo.Distance(center, *store.Location())
		if dist > radius {
			continue
		}
		candidates = append(candidates, candidate{price: price, store: store, dist: dist})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if c := a.price.Price.Cmp(b.price.Price); c != 0 {
			return c < 0
		}
		if a.dist != b.dist {
			return a.dist < b.dist
		}
		return a.price.Date > b.price.Date
	})

	resp := make([]*contract.NearbyPriceResponse, len(candidates))
	for i, c := range candidates {
		resp[i] = &contract.NearbyPriceResponse{
			Price:      toPriceResponse(c.price),
			Store:      toStoreResponse(c.store),
			DistanceKm: c.dist,
		}
	}
	return resp, nil
}

func (p *DefaultPriceService) findStores(prices []*entity.Price) (map[string]*entity.Store, error) {
	seen := make(map[string]bool)
	cnpjs := make([]string, 0)
	for _, price := range prices {
		if !seen[price.StoreCNPJ] {
			seen[price.StoreCNPJ] = true
			cnpjs = append(cnpjs, price.StoreCNPJ)
		}
	}

	stores, err := p.StoreRepo.FindAllInCNPJs(cnpjs)
	if err != nil {
		return nil, err
	}

	byCNPJ := make(map[string]*entity.Store, len(stores))
	for _, s := range stores {
		byCNPJ[s.CNPJ] = s
	}
	return byCNPJ, nil
}

// GTINs come in 8, 12, 13 and 14 digit flavours.
func isValidEAN(ean string) bool {
	return len(ean) >= 8 && len(ean) <= 14 && fiscal.IsOnlyDigits(ean)
}
