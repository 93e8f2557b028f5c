package handler

import (
	"net/http"
	"rastru/cmd/internal/contract"
	"rastru/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type StoreService interface {
	GetStore(cnpj string) (*contract.StoreResponse, apierror.ErrorResponse)
	FindNearby(lat, lng float64, radiusKm *float64) ([]*contract.NearbyStoreResponse, apierror.ErrorResponse)
	UpdateLocation(cnpj string, req *contract.UpdateLocationRequest) (*contract.StoreResponse, apierror.ErrorResponse)
}

type DefaultStoreRoute struct {
	StoreService StoreService
}

func NewStoreRoute(storeService StoreService) *DefaultStoreRoute {
	return &DefaultStoreRoute{StoreService: storeService}
}

func (s *DefaultStoreRoute) GetStore(c echo.Context) error {
	store, apierr := s.StoreService.GetStore(c.Param("cnpj"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, store)
}

func (s *DefaultStoreRoute) GetNearby(c echo.Context) error {
	a, apierr := queryArea(c)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	stores, apierr := s.StoreService.FindNearby(a.lat, a.lng, a.radius)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"stores": stores}
	return c.JSON(http.StatusOK, &resp)
}

func (s *DefaultStoreRoute) UpdateLocation(c echo.Context) error {
	var req contract.UpdateLocationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	store, apierr := s.StoreService.UpdateLocation(c.Param("cnpj"), &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, store)
}
