package service

import (
	"math"
	"rastru/cmd/internal/contract"
	"rastru/cmd/internal/domain/entity"
	"rastru/cmd/internal/domain/geo"
	"rastru/cmd/internal/utils"
	"rastru/cmd/internal/utils/apierror"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

const (
	MaxRadiusKm     = 200.0
	MaxNearbyStores = 100

	// Rows pulled by the bounding box before the exact distance cut.
	nearbyScanLimit = 2000
)

type StoreQueryRepository interface {
	FindByCNPJ(cnpj string) (*entity.Store, error)
	FindWithinBox(center geo.Point, box geo.BoundingBox, limit int) ([]*entity.Store, error)
	UpdateLocation(cnpj string, point geo.Point, now int64) (bool, error)
}

type DefaultStoreService struct {
	StoreRepo       StoreQueryRepository
	Validate        *validator.Validate
	DefaultRadiusKm float64
}

func NewStoreService(storeRepo StoreQueryRepository, validate *validator.Validate, defaultRadiusKm float64) *DefaultStoreService {
	return &DefaultStoreService{
		StoreRepo:       storeRepo,
		Validate:        validate,
		DefaultRadiusKm: defaultRadiusKm,
	}
}

func (s *DefaultStoreService) GetStore(cnpj string) (*contract.StoreResponse, apierror.ErrorResponse) {
	cnpj = utils.CleanCNPJ(cnpj)
	if err := s.Validate.Var(cnpj, "required,cnpj"); err != nil {
		return nil, apierror.InvalidCNPJError
	}

	store, err := s.StoreRepo.FindByCNPJ(cnpj)
	if err != nil {
		log.Errorf("failed to find store by cnpj %s: %v", cnpj, err)
		return nil, apierror.InternalServerError
	}

	if store == nil {
		return nil, apierror.StoreNotFoundError
	}
	return toStoreResponse(store), nil
}

// FindNearby returns geolocated stores within radiusKm, closest first.
func (s *DefaultStoreService) FindNearby(lat, lng float64, radiusKm *float64) ([]*contract.NearbyStoreResponse, apierror.ErrorResponse) {
	center, radius, apierr := checkArea(lat, lng, radiusKm, s.DefaultRadiusKm)
	if apierr != nil {
		return nil, apierr
	}

	stores, err := s.StoreRepo.FindWithinBox(center, geo.NewBoundingBox(center, radius), nearbyScanLimit)
	if err != nil {
		log.Errorf("failed to find stores near %f,%f: %v", lat, lng, err)
		return nil, apierror.InternalServerError
	}

	nearby := make([]*contract.NearbyStoreResponse, 0, len(stores))
	for _, store := range stores {
		loc := store.Location()
		if loc == nil {
			continue
		}

		dist := geo.Distance(center, *loc)
		if dist > radius {
			continue
		}
		nearby = append(nearby, &contract.NearbyStoreResponse{
			Store:      toStoreResponse(store),
			DistanceKm: dist,
		})
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})
	if len(nearby) > MaxNearbyStores {
		nearby = nearby[:MaxNearbyStores]
	}
	return nearby, nil
}

func (s *DefaultStoreService) UpdateLocation(cnpj string, req *contract.UpdateLocationRequest) (*contract.StoreResponse, apierror.ErrorResponse) {
	cnpj = utils.CleanCNPJ(cnpj)
	if err := s.Validate.Var(cnpj, "required,cnpj"); err != nil {
		return nil, apierror.InvalidCNPJError
	}

	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	point := geo.Point{Lat: *req.Lat, Lng: *req.Lng}
	updated, err := s.StoreRepo.UpdateLocation(cnpj, point, utils.NowUTC())
	if err != nil {
		log.Errorf("failed to update location of store %s: %v", cnpj, err)
		return nil, apierror.InternalServerError
	}

	if !updated {
		return nil, apierror.StoreNotFoundError
	}
	return s.GetStore(cnpj)
}

// checkArea validates a search center. A nil radius takes the default;
// an explicit one must be positive.
func checkArea(lat, lng float64, radiusKm *float64, defaultRadiusKm float64) (geo.Point, float64, apierror.ErrorResponse) {
	if !geo.ValidCoordinates(lat, lng) {
		return geo.Point{}, 0, apierror.InvalidCoordsError
	}

	radius := defaultRadiusKm
	if radiusKm != nil {
		radius = *radiusKm
	}
	if math.IsNaN(radius) || radius <= 0 || radius > MaxRadiusKm {
		return geo.Point{}, 0, apierror.InvalidRadiusError
	}
	return geo.Point{Lat: lat, Lng: lng}, radius, nil
}
