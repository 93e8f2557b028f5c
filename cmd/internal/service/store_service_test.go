package service

import (
	"fmt"
	"net/http"
	"rastru/cmd/internal/contract"
	"rastru/cmd/internal/domain/entity"
	"rastru/cmd/internal/domain/geo"
	"rastru/cmd/internal/utils/apierror"
	"testing"
)

func floatPtr(f float64) *float64 {
	return &f
}

func TestStoreGet(t *testing.T) {
	env := newTestEnv(t, 0)
	seedStore(t, env, storeNear, nil)

	store, apierr := env.stores.GetStore("11.222.333/0001-81")
	if apierr != nil {
		t.Fatalf("unexpected error: %+v", apierr)
	}
	if store.CNPJ != storeNear || store.Location != nil {
		t.Fatalf("unexpected store: %+v", store)
	}

	if _, apierr = env.stores.GetStore("12345678000199"); apierr == nil || apierr.Code() != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad check digits, got %+v", apierr)
	}
	if _, apierr = env.stores.GetStore(storeFar); apierr == nil || apierr.Code() != http.StatusNotFound {
		t.Fatalf("expected 404, got %+v", apierr)
	}
}

func TestStoreUpdateLocationThenNearby(t *testing.T) {
	env := newTestEnv(t, 0)
	seedStore(t, env, storeNear, nil)
	seedStore(t, env, storeFar, nil)

	center := geo.Point{Lat: -30.0346, Lng: -51.2177}

	req := &contract.UpdateLocationRequest{Lat: floatPtr(center.Lat + 4/111.195), Lng: floatPtr(center.Lng)}
	store, apierr := env.stores.UpdateLocation(storeNear, req)
	if apierr != nil {
		t.Fatalf("unexpected error: %+v", apierr)
	}
	if store.Location == nil || store.Location.Lat != *req.Lat {
		t.Fatalf("location not stored: %+v", store.Location)
	}

	req = &contract.UpdateLocationRequest{Lat: floatPtr(center.Lat + 1/111.195), Lng: floatPtr(center.Lng)}
	if _, apierr = env.stores.UpdateLocation(storeFar, req); apierr != nil {
		t.Fatalf("unexpected error: %+v", apierr)
	}

	nearby, apierr := env.stores.FindNearby(center.Lat, center.Lng, floatPtr(10))
	if apierr != nil {
		t.Fatalf("unexpected error: %+v", apierr)
	}
	if len(nearby) != 2 || nearby[0].Store.CNPJ != storeFar {
		t.Fatalf("expected closest store first, got %+v", nearby)
	}
	if nearby[0].DistanceKm > nearby[1].DistanceKm {
		t.Fatalf("stores not sorted by distance")
	}

	nearby, _ = env.stores.FindNearby(center.Lat, center.Lng, floatPtr(2))
	if len(nearby) != 1 {
		t.Fatalf("expected 1 store within 2 km, got %d", len(nearby))
	}
}

func TestStoreUpdateLocation_Rejects(t *testing.T) {
	env := newTestEnv(t, 0)

	missing := &contract.UpdateLocationRequest{Lat: floatPtr(-23.5), Lng: floatPtr(-46.6)}
	if _, apierr := env.stores.UpdateLocation(storeNear, missing); apierr == nil || apierr.Code() != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown store, got %+v", apierr)
	}

	seedStore(t, env, storeNear, nil)
	for _, req := range []*contract.UpdateLocationRequest{
		{Lat: floatPtr(-95), Lng: floatPtr(0)},
		{Lat: floatPtr(0), Lng: floatPtr(200)},
		{Lat: floatPtr(0)},
	} {
		if _, apierr := env.stores.UpdateLocation(storeNear, req); apierr == nil || apierr.Code() != http.StatusBadRequest {
			t.Fatalf("expected 400 for %+v, got %+v", req, apierr)
		}
	}
}

func TestStoreNearby_CrowdedBoxKeepsClosest(t *testing.T) {
	env := newTestEnv(t, 0)

	center := geo.Point{Lat: -23, Lng: -46}
	box := geo.NewBoundingBox(center, 10)

	// Box corners are about 13 km out, past the 10 km circle.
	corner := make([]*entity.Store, 0, nearbyScanLimit+100)
	for i := 0; i < nearbyScanLimit+100; i++ {
		s := &entity.Store{CNPJ: fmt.Sprintf("%014d", i+1), Name: "CORNER"}
		s.SetLocation(geo.Point{Lat: box.MaxLat - 0.001, Lng: box.MaxLng - 0.001})
		corner = append(corner, s)
	}
	if err := env.db.CreateInBatches(corner, 500).Error; err != nil {
		t.Fatalf("seed corner stores: %v", err)
	}

	seedStore(t, env, storeNear, &geo.Point{Lat: center.Lat + 0.15/111.195, Lng: center.Lng})

	nearby, apierr := env.stores.FindNearby(center.Lat, center.Lng, floatPtr(10))
	if apierr != nil {
		t.Fatalf("unexpected error: %+v", apierr)
	}
	if len(nearby) != 1 || nearby[0].Store.CNPJ != storeNear {
		t.Fatalf("expected only the close store, got %d results", len(nearby))
	}
}

func TestStoreNearby_Radius(t *testing.T) {
	env := newTestEnv(t, 0)
	seedStore(t, env, storeNear, &geo.Point{Lat: -23 + 8/111.195, Lng: -46})

	// Default radius of 10 km.
	nearby, apierr := env.stores.FindNearby(-23, -46, nil)
	if apierr != nil || len(nearby) != 1 {
		t.Fatalf("expected default radius to find the store, got %d (%+v)", len(nearby), apierr)
	}

	for _, radius := range []float64{0, -1, MaxRadiusKm + 1} {
		_, apierr := env.stores.FindNearby(-23, -46, floatPtr(radius))
		if apierr != apierror.InvalidRadiusError {
			t.Fatalf("expected invalid radius for %f, got %+v", radius, apierr)
		}
	}
}
