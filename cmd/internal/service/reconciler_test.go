package service

import (
	"errors"
	"rastru/cmd/internal/domain/entity"
	"rastru/cmd/internal/domain/fiscal"
	"testing"

	"github.com/shopspring/decimal"
)

type stubStoreRepo struct {
	err error
}

func (s *stubStoreRepo) Upsert(*entity.Store) error {
	return s.err
}

func (s *stubStoreRepo) FindByCNPJ(string) (*entity.Store, error) {
	return nil, nil
}

type stubProductRepo struct {
	failOn string
}

func (s *stubProductRepo) Upsert(p *entity.Product) (bool, error) {
	if p.Name == s.failOn {
		return false, errors.New("disk full")
	}
	return true, nil
}

type stubPriceRepo struct {
	inserted []*entity.Price
	failOn   string
}

func (s *stubPriceRepo) ExistsByNaturalKey(string, string, string) (bool, error) {
	return false, nil
}

func (s *stubPriceRepo) Insert(p *entity.Price) (bool, error) {
	if p.ProductKey == s.failOn {
		return false, errors.New("constraint check failed")
	}
	s.inserted = append(s.inserted, p)
	return true, nil
}

func newDocument(t *testing.T, items ...*fiscal.NormalizedLineItem) *fiscal.NormalizedDocument {
	return &fiscal.NormalizedDocument{
		AccessKey:  mustKey(t, testNFCeKey),
		IssuerName: "LOJA",
		TradeName:  "LOJA",
		IssuerCNPJ: "12345678000199",
		State:      "SP",
		LineItems:  items,
	}
}

func lineItem(n int, name string, ean *string, price string) *fiscal.NormalizedLineItem {
	return &fiscal.NormalizedLineItem{
		ItemNumber:  n,
		Description: name,
		EAN:         ean,
		Quantity:    decimal.NewFromInt(1),
		UnitValue:   decimal.RequireFromString(price),
		TotalValue:  decimal.RequireFromString(price),
	}
}

func TestReconcile_ItemFailuresDoNotAbort(t *testing.T) {
	prices := &stubPriceRepo{failOn: "name:FEIJAO"}
	engine := NewReconciliationEngine(&stubStoreRepo{err: errors.New("locked")}, &stubProductRepo{failOn: "MACARRAO"}, prices)

	doc := newDocument(t,
		lineItem(1, "MACARRAO", nil, "4.50"),
		lineItem(2, "FEIJAO", nil, "8.00"),
		lineItem(3, "", nil, "1.00"),
		lineItem(4, "CAFE", strPtr("7891000100103"), "18.75"),
	)

	result := engine.Reconcile(doc, "c1")

	if result.ItemsFailed != 2 || result.ItemsSkipped != 1 || result.PricesCreated != 1 || result.ProductsUpserted != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.StoreID != "12345678000199" {
		t.Fatalf("store failure must not lose the store id, got %s", result.StoreID)
	}
	if len(prices.inserted) != 1 || prices.inserted[0].ProductKey != "7891000100103" {
		t.Fatalf("unexpected inserted prices: %+v", prices.inserted)
	}
}

func TestReconcile_DuplicateItemInOneReceipt(t *testing.T) {
	env := newTestEnv(t, 0)
	engine := NewReconciliationEngine(env.storeRepo, env.productRepo, env.priceRepo)

	doc := newDocument(t,
		lineItem(1, "CAFE", strPtr("7891000100103"), "18.75"),
		lineItem(2, "CAFE", strPtr("7891000100103"), "18.75"),
	)

	result := engine.Reconcile(doc, "")
	if result.PricesCreated != 1 || result.ItemsFailed != 0 {
		t.Fatalf("expected the natural key to collapse repeated items, got %+v", result)
	}
	if _, products, prices := env.counts(t); products != 1 || prices != 1 {
		t.Fatalf("unexpected rows: %d/%d", products, prices)
	}
}
