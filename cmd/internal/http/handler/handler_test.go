package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"rastru/cmd/internal/contract"
	"rastru/cmd/internal/utils"
	"rastru/cmd/internal/utils/apierror"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

type stubIngestion struct {
	gotKey       string
	gotQR        string
	gotCollector string
	apierr       apierror.ErrorResponse
}

func (s *stubIngestion) IngestAccessKey(_ context.Context, collector string, req *contract.IngestRequest) (*contract.IngestResponse, apierror.ErrorResponse) {
	s.gotKey = req.AccessKey
	s.gotCollector = collector
	if s.apierr != nil {
		return nil, s.apierr
	}
	return &contract.IngestResponse{AccessKey: req.AccessKey, PricesCreated: 2}, nil
}

func (s *stubIngestion) IngestQRCode(_ context.Context, collector string, req *contract.QRCodeIngestRequest) (*contract.IngestResponse, apierror.ErrorResponse) {
	s.gotQR = req.QRCode
	s.gotCollector = collector
	return &contract.IngestResponse{}, nil
}

func (s *stubIngestion) GetRawLookup(_ context.Context, accessKey string) (*contract.RawLookupResponse, apierror.ErrorResponse) {
	s.gotKey = accessKey
	return &contract.RawLookupResponse{AccessKey: accessKey, Code: 2000}, nil
}

type stubPrices struct {
	ean      string
	lat, lng float64
	radius   *float64
}

func (s *stubPrices) History(ean string) ([]*contract.PriceResponse, apierror.ErrorResponse) {
	s.ean = ean
	return []*contract.PriceResponse{{ID: "1"}}, nil
}

func (s *stubPrices) Lowest(ean string) (*contract.LowestPriceResponse, apierror.ErrorResponse) {
	s.ean = ean
	return nil, apierror.PriceNotFoundError
}

func (s *stubPrices) Nearby(ean string, lat, lng float64, radiusKm *float64) ([]*contract.NearbyPriceResponse, apierror.ErrorResponse) {
	s.ean, s.lat, s.lng, s.radius = ean, lat, lng, radiusKm
	return []*contract.NearbyPriceResponse{}, nil
}

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestIngestAccessKey_PassesBodyAndCollector(t *testing.T) {
	svc := &stubIngestion{}
	route := NewIngestRoute(svc)

	c, rec := newContext(http.MethodPost, "/api/ingest/nfce", `{"access_key":"123","timeout_seconds":30}`)
	c.Set(utils.CollectorKey, "collector-1")

	if err := route.IngestAccessKey(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.gotKey != "123" || svc.gotCollector != "collector-1" {
		t.Fatalf("unexpected call: key=%q collector=%q", svc.gotKey, svc.gotCollector)
	}

	var resp contract.IngestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.PricesCreated != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestIngestAccessKey_MalformedBody(t *testing.T) {
	route := NewIngestRoute(&stubIngestion{})

	c, rec := newContext(http.MethodPost, "/api/ingest/nfce", `{"access_key":`)
	if err := route.IngestAccessKey(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestIngestAccessKey_ServiceErrorStatus(t *testing.T) {
	route := NewIngestRoute(&stubIngestion{apierr: apierror.LookupTimeoutError})

	c, rec := newContext(http.MethodPost, "/api/ingest/nfce", `{"access_key":"123"}`)
	if err := route.IngestAccessKey(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "timed out") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestIngestQRCode_PassesPayload(t *testing.T) {
	svc := &stubIngestion{}
	route := NewIngestRoute(svc)

	c, rec := newContext(http.MethodPost, "/api/ingest/auto", `{"qr_code":"https://example.com/?p=1|2"}`)
	if err := route.IngestQRCode(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK || svc.gotQR != "https://example.com/?p=1|2" {
		t.Fatalf("unexpected result: %d %q", rec.Code, svc.gotQR)
	}
	if svc.gotCollector != "" {
		t.Fatalf("expected empty collector, got %q", svc.gotCollector)
	}
}

func TestGetRawLookup_UsesPathParam(t *testing.T) {
	svc := &stubIngestion{}
	route := NewIngestRoute(svc)

	c, rec := newContext(http.MethodGet, "/", "")
	c.SetParamNames("key")
	c.SetParamValues("35240312345678000199650010000012341000012345")

	if err := route.GetRawLookup(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK || svc.gotKey != "35240312345678000199650010000012341000012345" {
		t.Fatalf("unexpected result: %d %q", rec.Code, svc.gotKey)
	}
}

func TestPriceRoutes_History(t *testing.T) {
	svc := &stubPrices{}
	route := NewPriceRoute(svc)

	c, rec := newContext(http.MethodGet, "/", "")
	c.SetParamNames("ean")
	c.SetParamValues("7891000100103")

	if err := route.GetHistory(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK || svc.ean != "7891000100103" {
		t.Fatalf("unexpected result: %d %q", rec.Code, svc.ean)
	}

	var body struct {
		Prices []contract.PriceResponse `json:"prices"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Prices) != 1 {
		t.Fatalf("expected one price, got %d", len(body.Prices))
	}
}

func TestPriceRoutes_LowestNotFound(t *testing.T) {
	route := NewPriceRoute(&stubPrices{})

	c, rec := newContext(http.MethodGet, "/", "")
	c.SetParamNames("ean")
	c.SetParamValues("7891000100103")

	if err := route.GetLowest(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPriceRoutes_NearbyParams(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"ok", "?ean=7891000100103&lat=-23.5&lng=-46.6&radius=5", http.StatusOK},
		{"default radius", "?ean=7891000100103&lat=-23.5&lng=-46.6", http.StatusOK},
		{"missing ean", "?lat=-23.5&lng=-46.6", http.StatusBadRequest},
		{"missing lat", "?ean=7891000100103&lng=-46.6", http.StatusBadRequest},
		{"bad lng", "?ean=7891000100103&lat=-23.5&lng=abc", http.StatusBadRequest},
		{"nan radius", "?ean=7891000100103&lat=-23.5&lng=-46.6&radius=NaN", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubPrices{}
			route := NewPriceRoute(svc)

			c, rec := newContext(http.MethodGet, "/api/prices/nearby"+tt.query, "")
			if err := route.GetNearby(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}

	svc := &stubPrices{}
	c, _ := newContext(http.MethodGet, "/api/prices/nearby?ean=789&lat=-23.5&lng=-46.6&radius=2.5", "")
	_ = NewPriceRoute(svc).GetNearby(c)
	if svc.lat != -23.5 || svc.lng != -46.6 || svc.radius == nil || *svc.radius != 2.5 {
		t.Fatalf("unexpected area: %f %f %v", svc.lat, svc.lng, svc.radius)
	}

	svc = &stubPrices{}
	c, _ = newContext(http.MethodGet, "/api/prices/nearby?ean=789&lat=-23.5&lng=-46.6", "")
	_ = NewPriceRoute(svc).GetNearby(c)
	if svc.radius != nil {
		t.Fatalf("expected missing radius to stay unset, got %f", *svc.radius)
	}

	svc = &stubPrices{}
	c, _ = newContext(http.MethodGet, "/api/prices/nearby?ean=789&lat=-23.5&lng=-46.6&radius=0", "")
	_ = NewPriceRoute(svc).GetNearby(c)
	if svc.radius == nil || *svc.radius != 0 {
		t.Fatalf("expected explicit zero radius to be forwarded, got %v", svc.radius)
	}
}

func TestHealthRoute(t *testing.T) {
	ok := NewHealthRoute(func() error { return nil }, "mock")
	c, rec := newContext(http.MethodGet, "/health", "")
	_ = ok.Check(c)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"lookup_mode":"mock"`) {
		t.Fatalf("unexpected health: %d %s", rec.Code, rec.Body.String())
	}

	down := NewHealthRoute(func() error { return context.DeadlineExceeded }, "live")
	c, rec = newContext(http.MethodGet, "/health", "")
	_ = down.Check(c)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
