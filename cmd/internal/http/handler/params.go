package handler

import (
	"math"
	"rastru/cmd/internal/utils/apierror"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// queryFloat reads a numeric query parameter. A missing value is nil.
func queryFloat(c echo.Context, name string) (*float64, apierror.ErrorResponse) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, apierror.NewInvalidParamTypeError(name, "number")
	}
	return &v, nil
}

func requiredQueryFloat(c echo.Context, name string) (float64, apierror.ErrorResponse) {
	v, apierr := queryFloat(c, name)
	if apierr != nil {
		return 0, apierr
	}

	if v == nil {
		return 0, apierror.NewMissingParamError(name)
	}
	return *v, nil
}

type area struct {
	lat, lng float64

	// radius is nil when the caller left it to the server default.
	radius *float64
}

func queryArea(c echo.Context) (*area, apierror.ErrorResponse) {
	lat, apierr := requiredQueryFloat(c, "lat")
	if apierr != nil {
		return nil, apierr
	}

	lng, apierr := requiredQueryFloat(c, "lng")
	if apierr != nil {
		return nil, apierr
	}

	radius, apierr := queryFloat(c, "radius")
	if apierr != nil {
		return nil, apierr
	}
	return &area{lat: lat, lng: lng, radius: radius}, nil
}
