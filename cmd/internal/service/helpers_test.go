package service

import (
	"rastru/cmd/internal/domain/entity"
	"rastru/cmd/internal/domain/sqlite"
	"rastru/cmd/internal/domain/sqlite/repository"
	"rastru/cmd/internal/infrastructure/aws/storage"
	"rastru/cmd/internal/infrastructure/infosimples"
	"rastru/cmd/internal/utils/validators"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	testNFCeKey = "35240312345678000199650010000012341000012345"
	testNFeKey  = "35240312345678000199550010000012341000012345"
)

// twoItemReceipt is an NFC-e with one barcoded item and one item known
// only by its description.
const twoItemReceipt = `{
  "code": 2000,
  "code_message": "A requisição foi processada com sucesso.",
  "data_count": 1,
  "data": [{
    "emitente": {
      "nome": "SUPERMERCADO EXEMPLO LTDA",
      "nome_fantasia": "EXEMPLO",
      "cnpj": "12.345.678/0001-99",
      "municipio": "SAO PAULO",
      "uf": "SP"
    },
    "resumo": {
      "data_emissao": "15/03/2024 10:30:00",
      "valor_total": "1.042,40",
      "produtos": [
        {"num": "1", "descricao": "CAFE PILAO 500G", "ean_comercial": "7891000100103", "qtd": "2,0000", "unidade": "UN", "valor_unitario": "18,75", "valor_total": "37,50"},
        {"num": "2", "descricao": "ARROZ X", "ean_comercial": "SEM GTIN", "qtd": "1", "unidade": "un", "valor_unitario": "1.004,90", "valor_total": "1.004,90"}
      ]
    }
  }]
}`

type testEnv struct {
	db        *gorm.DB
	mock      *infosimples.MockClient
	archive   *storage.MemoryArchive
	ingestion *DefaultIngestionService
	prices    *DefaultPriceService
	stores    *DefaultStoreService
	products  *DefaultProductService

	storeRepo   *repository.DefaultStoreRepository
	productRepo *repository.DefaultProductRepository
	priceRepo   *repository.DefaultPriceRepository
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := sqlite.Init(sqlite.MemoryPath)
	if err != nil {
		t.Fatalf("failed to init sqlite: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newTestEnv(t *testing.T, cacheTTL time.Duration) *testEnv {
	t.Helper()

	db := newTestDB(t)
	validate := validator.New()
	validators.Register(validate)

	storeRepo := repository.NewStoreRepository(db)
	productRepo := repository.NewProductRepository(db)
	priceRepo := repository.NewPriceRepository(db)
	cacheRepo := repository.NewLookupCacheRepository(db)

	mock := infosimples.NewMockClient()
	archive := storage.NewMemoryArchive()
	engine := NewReconciliationEngine(storeRepo, productRepo, priceRepo)
	fetcher := NewCachedLookup(mock, cacheRepo, cacheTTL)

	return &testEnv{
		db:          db,
		mock:        mock,
		archive:     archive,
		ingestion:   NewIngestionService(fetcher, engine, archive, validate, 120),
		prices:      NewPriceService(priceRepo, storeRepo, 100, 10),
		stores:      NewStoreService(storeRepo, validate, 10),
		products:    NewProductService(productRepo, priceRepo),
		storeRepo:   storeRepo,
		productRepo: productRepo,
		priceRepo:   priceRepo,
	}
}

func (e *testEnv) count(t *testing.T, model any) int64 {
	t.Helper()

	var n int64
	if err := e.db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func (e *testEnv) counts(t *testing.T) (stores, products, prices int64) {
	return e.count(t, &entity.Store{}), e.count(t, &entity.Product{}), e.count(t, &entity.Price{})
}

func strPtr(s string) *string {
	return &s
}
