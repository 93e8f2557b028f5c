package handler

import (
	"context"
	"net/http"
	"rastru/cmd/internal/contract"
	"rastru/cmd/internal/utils"
	"rastru/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type IngestionService interface {
	IngestAccessKey(ctx context.Context, collector string, req *contract.IngestRequest) (*contract.IngestResponse, apierror.ErrorResponse)
	IngestQRCode(ctx context.Context, collector string, req *contract.QRCodeIngestRequest) (*contract.IngestResponse, apierror.ErrorResponse)
	GetRawLookup(ctx context.Context, accessKey string) (*contract.RawLookupResponse, apierror.ErrorResponse)
}

type DefaultIngestRoute struct {
	IngestionService IngestionService
}

func NewIngestRoute(ingestionService IngestionService) *DefaultIngestRoute {
	return &DefaultIngestRoute{IngestionService: ingestionService}
}

func (i *DefaultIngestRoute) IngestAccessKey(c echo.Context) error {
	var req contract.IngestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	collector := utils.GetCollectorFromContext(c)
	resp, apierr := i.IngestionService.IngestAccessKey(c.Request().Context(), collector, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (i *DefaultIngestRoute) IngestQRCode(c echo.Context) error {
	var req contract.QRCodeIngestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedJSONError)
	}

	collector := utils.GetCollectorFromContext(c)
	resp, apierr := i.IngestionService.IngestQRCode(c.Request().Context(), collector, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (i *DefaultIngestRoute) GetRawLookup(c echo.Context) error {
	resp, apierr := i.IngestionService.GetRawLookup(c.Request().Context(), c.Param("key"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}
