package service

import (
	"rastru/cmd/internal/contract"
	"rastru/cmd/internal/domain/entity"
	"rastru/cmd/internal/utils/apierror"
	"strings"
	"unicode/utf8"

	"github.com/labstack/gommon/log"
)

const (
	MaxSearchResults  = 50
	RecentPricesLimit = 10
	minSearchLength   = 2
)

type ProductQueryRepository interface {
	FindByEAN(ean string) (*entity.Product, error)
	SearchByName(q string, limit int) ([]*entity.Product, error)
}

type RecentPriceRepository interface {
	FindByEAN(ean string, limit int) ([]*entity.Price, error)
}

type DefaultProductService struct {
	ProductRepo ProductQueryRepository
	PriceRepo   RecentPriceRepository
}

func NewProductService(productRepo ProductQueryRepository, priceRepo RecentPriceRepository) *DefaultProductService {
	return &DefaultProductService{
		ProductRepo: productRepo,
		PriceRepo:   priceRepo,
	}
}

func (p *DefaultProductService) GetByEAN(ean string) (*contract.ProductDetailsResponse, apierror.ErrorResponse) {
	if !isValidEAN(ean) {
		return nil, apierror.InvalidEANError
	}

	product, err := p.ProductRepo.FindByEAN(ean)
	if err != nil {
		log.Errorf("failed to find product by ean %s: %v", ean, err)
		return nil, apierror.InternalServerError
	}

	if product == nil {
		return nil, apierror.ProductNotFoundError
	}

	prices, err := p.PriceRepo.FindByEAN(ean, RecentPricesLimit)
	if err != nil {
		log.Errorf("failed to fetch recent prices for ean %s: %v", ean, err)
		return nil, apierror.InternalServerError
	}

	return &contract.ProductDetailsResponse{
		Product:      toProductResponse(product),
		RecentPrices: toPricesResponse(prices),
	}, nil
}

func (p *DefaultProductService) Search(q string) ([]*contract.ProductResponse, apierror.ErrorResponse) {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < minSearchLength {
		return nil, apierror.ShortQueryError
	}

	products, err := p.ProductRepo.SearchByName(q, MaxSearchResults)
	if err != nil {
		log.Errorf("failed to search products by %q: %v", q, err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*contract.ProductResponse, len(products))
	for i, product := range products {
		resp[i] = toProductResponse(product)
	}
	return resp, nil
}
