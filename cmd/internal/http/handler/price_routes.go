package handler

import (
	"net/http"
	"rastru/cmd/internal/contract"
	"rastru/cmd/internal/utils/apierror"
	"strings"

	"github.com/labstack/echo/v4"
)

type PriceService interface {
	History(ean string) ([]*contract.PriceResponse, apierror.ErrorResponse)
	Lowest(ean string) (*contract.LowestPriceResponse, apierror.ErrorResponse)
	Nearby(ean string, lat, lng float64, radiusKm *float64) ([]*contract.NearbyPriceResponse, apierror.ErrorResponse)
}

type DefaultPriceRoute struct {
	PriceService PriceService
}

func NewPriceRoute(priceService PriceService) *DefaultPriceRoute {
	return &DefaultPriceRoute{PriceService: priceService}
}

func (p *DefaultPriceRoute) GetHistory(c echo.Context) error {
	prices, apierr := p.PriceService.History(strings.TrimSpace(c.Param("ean")))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"prices": prices}
	return c.JSON(http.StatusOK, &resp)
}

func (p *DefaultPriceRoute) GetLowest(c echo.Context) error {
	lowest, apierr := p.PriceService.Lowest(strings.TrimSpace(c.Param("ean")))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, lowest)
}

func (p *DefaultPriceRoute) GetNearby(c echo.Context) error {
	ean := strings.TrimSpace(c.QueryParam("ean"))
	if ean == "" {
		apierr := apierror.NewMissingParamError("ean")
		return c.JSON(apierr.Code(), apierr)
	}

	a, apierr := queryArea(c)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	prices, apierr := p.PriceService.Nearby(ean, a.lat, a.lng, a.radius)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"prices": prices}
	return c.JSON(http.StatusOK, &resp)
}
