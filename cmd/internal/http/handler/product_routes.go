package handler

import (
	"net/http"
	"rastru/cmd/internal/contract"
	"rastru/cmd/internal/utils/apierror"
	"strings"

	"github.com/labstack/echo/v4"
)

type ProductService interface {
	GetByEAN(ean string) (*contract.ProductDetailsResponse, apierror.ErrorResponse)
	Search(q string) ([]*contract.ProductResponse, apierror.ErrorResponse)
}

type DefaultProductRoute struct {
	ProductService ProductService
}

func NewProductRoute(productService ProductService) *DefaultProductRoute {
	return &DefaultProductRoute{ProductService: productService}
}

func (p *DefaultProductRoute) GetProduct(c echo.Context) error {
	product, apierr := p.ProductService.GetByEAN(strings.TrimSpace(c.Param("ean")))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, product)
}

func (p *DefaultProductRoute) Search(c echo.Context) error {
	products, apierr := p.ProductService.Search(c.QueryParam("q"))
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"products": products}
	return c.JSON(http.StatusOK, &resp)
}
