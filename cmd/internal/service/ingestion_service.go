package service

import (
	"context"
	"errors"
	"rastru/cmd/internal/contract"
	"rastru/cmd/internal/domain/fiscal"
	"rastru/cmd/internal/infrastructure/aws/storage"
	"rastru/cmd/internal/infrastructure/infosimples"
	"rastru/cmd/internal/utils"
	"rastru/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

type DocumentFetcher interface {
	Fetch(ctx context.Context, key *fiscal.AccessKey, timeoutSeconds int) (*infosimples.Envelope, bool, error)
}

type DefaultIngestionService struct {
	Fetcher        DocumentFetcher
	Normalizer     *ResponseNormalizer
	Engine         *ReconciliationEngine
	Archive        storage.PayloadArchive
	Validate       *validator.Validate
	DefaultTimeout int
}

func NewIngestionService(
	fetcher DocumentFetcher,
	engine *ReconciliationEngine,
	archive storage.PayloadArchive,
	validate *validator.Validate,
	defaultTimeout int,
) *DefaultIngestionService {
	if archive == nil {
		archive = storage.NopArchive{}
	}

	return &DefaultIngestionService{
		Fetcher:        fetcher,
		Normalizer:     NewResponseNormalizer(),
		Engine:         engine,
		Archive:        archive,
		Validate:       validate,
		DefaultTimeout: defaultTimeout,
	}
}

func (s *DefaultIngestionService) IngestAccessKey(ctx context.Context, collector string, req *contract.IngestRequest) (*contract.IngestResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	key, err := fiscal.ParseAccessKey(req.AccessKey)
	if err != nil {
		return nil, toAccessKeyError(err)
	}
	return s.ingest(ctx, collector, key, req.TimeoutSeconds)
}

func (s *DefaultIngestionService) IngestQRCode(ctx context.Context, collector string, req *contract.QRCodeIngestRequest) (*contract.IngestResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	rawKey, err := fiscal.ExtractAccessKey(req.QRCode)
	if err != nil {
		return nil, toAccessKeyError(err)
	}

	key, err := fiscal.ParseAccessKey(rawKey)
	if err != nil {
		return nil, toAccessKeyError(err)
	}
	return s.ingest(ctx, collector, key, req.TimeoutSeconds)
}

// GetRawLookup runs the lookup without normalizing or persisting anything.
func (s *DefaultIngestionService) GetRawLookup(ctx context.Context, accessKey string) (*contract.RawLookupResponse, apierror.ErrorResponse) {
	key, err := fiscal.ParseAccessKey(accessKey)
	if err != nil {
		return nil, toAccessKeyError(err)
	}

	env, cached, err := s.Fetcher.Fetch(ctx, key, s.timeout(0))
	if err != nil {
		return nil, s.toLookupError(key, err)
	}

	return &contract.RawLookupResponse{
		AccessKey:   key.Raw,
		Model:       key.Model.Source(),
		Code:        env.Code,
		CodeMessage: env.CodeMessage,
		DataCount:   env.DataCount,
		Document:    env.First(),
		Cached:      cached,
	}, nil
}

// ingest is the sequential pipeline: lookup, normalize, reconcile. Only
// lookup and normalization failures fail the request.
func (s *DefaultIngestionService) ingest(ctx context.Context, collector string, key *fiscal.AccessKey, timeoutSeconds int) (*contract.IngestResponse, apierror.ErrorResponse) {
	env, cached, err := s.Fetcher.Fetch(ctx, key, s.timeout(timeoutSeconds))
	if err != nil {
		var nerr *fiscal.NormalizationError
		if errors.As(err, &nerr) {
			s.archive(ctx, key, nerr.Raw)
		}
		return nil, s.toLookupError(key, err)
	}

	if !cached {
		s.archive(ctx, key, env.Raw)
	}

	doc, err := s.Normalizer.Normalize(env, key)
	if err != nil {
		return nil, s.toLookupError(key, err)
	}

	result := s.Engine.Reconcile(doc, collector)
	log.Infof("ingested %s: store=%s products=%d prices=%d skipped=%d failed=%d",
		key.Raw, result.StoreID, result.ProductsUpserted, result.PricesCreated, result.ItemsSkipped, result.ItemsFailed)

	return &contract.IngestResponse{
		AccessKey:        key.Raw,
		Model:            key.Model.Source(),
		Store:            toStoreResponse(result.Store),
		ProductsUpserted: result.ProductsUpserted,
		PricesCreated:    result.PricesCreated,
		ItemsSkipped:     result.ItemsSkipped,
		ItemsFailed:      result.ItemsFailed,
		Cached:           cached,
	}, nil
}

func (s *DefaultIngestionService) timeout(requested int) int {
	if requested <= 0 {
		requested = s.DefaultTimeout
	}
	return infosimples.ClampTimeout(requested)
}

// archive failures are logged only, the payload is already in hand.
func (s *DefaultIngestionService) archive(ctx context.Context, key *fiscal.AccessKey, raw []byte) {
	if len(raw) == 0 {
		return
	}

	objectKey, err := s.Archive.Archive(context.WithoutCancel(ctx), key.Raw, raw)
	if err != nil {
		log.Errorf("failed to archive lookup payload for %s: %v", key.Raw, err)
		return
	}
	if objectKey != "" {
		log.Debugf("archived lookup payload for %s at %s", key.Raw, objectKey)
	}
}

func (s *DefaultIngestionService) toLookupError(key *fiscal.AccessKey, err error) apierror.ErrorResponse {
	var nerr *fiscal.NormalizationError

	switch {
	case errors.Is(err, fiscal.ErrEmptyResult):
		return apierror.DocumentNotFoundError
	case errors.Is(err, fiscal.ErrLookupTimeout):
		log.Warnf("lookup for %s timed out: %v", key.Raw, err)
		return apierror.LookupTimeoutError
	case errors.Is(err, fiscal.ErrLookupUnreachable), errors.Is(err, infosimples.ErrProviderRejected):
		log.Errorf("lookup for %s failed: %v", key.Raw, err)
		return apierror.LookupUnavailableError
	case errors.As(err, &nerr):
		log.Errorf("unrecognized document for %s (%d raw bytes): %s", key.Raw, len(nerr.Raw), nerr.Reason)
		return apierror.UnprocessableDocumentError
	default:
		log.Errorf("unexpected lookup error for %s: %v", key.Raw, err)
		return apierror.InternalServerError
	}
}

func toAccessKeyError(err error) apierror.ErrorResponse {
	var verr *fiscal.ValidationError
	if errors.As(err, &verr) {
		return apierror.FromAccessKeyError(verr)
	}

	log.Errorf("unexpected access key error: %v", err)
	return apierror.InternalServerError
}
