package service

import (
	"rastru/cmd/internal/domain/entity"
	"rastru/cmd/internal/domain/fiscal"
	"rastru/cmd/internal/utils"

	"github.com/labstack/gommon/log"
)

type StoreRepository interface {
	Upsert(store *entity.Store) error
	FindByCNPJ(cnpj string) (*entity.Store, error)
}

type ProductRepository interface {
	Upsert(product *entity.Product) (bool, error)
}

type PriceRepository interface {
	ExistsByNaturalKey(productKey, storeCNPJ, accessKey string) (bool, error)
	Insert(price *entity.Price) (bool, error)
}

type ReconciliationResult struct {
	StoreID string
	Store   *entity.Store

	ProductsUpserted int
	PricesCreated    int
	ItemsSkipped     int
	ItemsFailed      int
}

// ReconciliationEngine writes a normalized receipt into the store, product
// and price tables. Failures on a single line item are logged and counted;
// they never abort the rest of the receipt.
type ReconciliationEngine struct {
	StoreRepo   StoreRepository
	ProductRepo ProductRepository
	PriceRepo   PriceRepository
}

func NewReconciliationEngine(storeRepo StoreRepository, productRepo ProductRepository, priceRepo PriceRepository) *ReconciliationEngine {
	return &ReconciliationEngine{
		StoreRepo:   storeRepo,
		ProductRepo: productRepo,
		PriceRepo:   priceRepo,
	}
}

func (r *ReconciliationEngine) Reconcile(doc *fiscal.NormalizedDocument, collector string) *ReconciliationResult {
	now := utils.NowUTC()
	store := r.upsertStore(doc, now)
	result := &ReconciliationResult{
		StoreID: store.CNPJ,
		Store:   store,
	}

	date := now
	if !doc.IssueDate.IsZero() {
		date = doc.IssueDate.UnixMilli()
	}

	for _, item := range doc.LineItems {
		productKey := item.ProductKey()
		if productKey == "" {
			log.Warnf("skipping item %d of %s: no ean and no description", item.ItemNumber, doc.AccessKey.Raw)
			result.ItemsSkipped++
			continue
		}

		product, err := r.upsertProduct(item, now)
		if err != nil {
			log.Errorf("failed to upsert product %s (item %d of %s): %v", productKey, item.ItemNumber, doc.AccessKey.Raw, err)
			result.ItemsFailed++
			continue
		}
		result.ProductsUpserted++

		created, err := r.insertPrice(doc, item, product, store, productKey, date, collector, now)
		if err != nil {
			log.Errorf("failed to insert price %s (item %d of %s): %v", productKey, item.ItemNumber, doc.AccessKey.Raw, err)
			result.ItemsFailed++
			continue
		}
		if created {
			result.PricesCreated++
		}
	}
	return result
}

// upsertStore never fails the receipt: prices only reference the CNPJ, so
// items are still recorded when the store row could not be written.
func (r *ReconciliationEngine) upsertStore(doc *fiscal.NormalizedDocument, now int64) *entity.Store {
	store := &entity.Store{
		CNPJ:       doc.IssuerCNPJ,
		Name:       doc.IssuerName,
		TradeName:  doc.TradeName,
		City:       doc.Municipality,
		State:      doc.State,
		LastSeenAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := r.StoreRepo.Upsert(store); err != nil {
		log.Errorf("failed to upsert store %s for %s: %v", store.CNPJ, doc.AccessKey.Raw, err)
		return store
	}

	stored, err := r.StoreRepo.FindByCNPJ(store.CNPJ)
	if err != nil || stored == nil {
		log.Warnf("failed to reload store %s: %v", store.CNPJ, err)
		return store
	}
	return stored
}

func (r *ReconciliationEngine) upsertProduct(item *fiscal.NormalizedLineItem, now int64) (*entity.Product, error) {
	name := fiscal.CleanName(item.Description)
	if name == "" {
		name = *item.EAN
	}

	product := &entity.Product{
		EAN:       item.EAN,
		Name:      name,
		NCM:       item.NCM,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.ProductRepo.Upsert(product); err != nil {
		return nil, err
	}
	return product, nil
}

// insertPrice never updates an existing fact. The existence check spares
// an insert; the unique index still settles concurrent resends.
func (r *ReconciliationEngine) insertPrice(
	doc *fiscal.NormalizedDocument,
	item *fiscal.NormalizedLineItem,
	product *entity.Product,
	store *entity.Store,
	productKey string,
	date int64,
	collector string,
	now int64,
) (bool, error) {
	exists, err := r.PriceRepo.ExistsByNaturalKey(productKey, store.CNPJ, doc.AccessKey.Raw)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	storeName := store.TradeName
	if storeName == "" {
		storeName = store.Name
	}

	price := &entity.Price{
		ProductKey:        productKey,
		EAN:               item.EAN,
		ProductName:       product.Name,
		StoreCNPJ:         store.CNPJ,
		StoreName:         storeName,
		City:              doc.Municipality,
		State:             doc.State,
		Price:             item.UnitValue,
		Quantity:          item.Quantity,
		Unit:              item.Unit,
		Date:              date,
		DocumentAccessKey: doc.AccessKey.Raw,
		Source:            doc.AccessKey.Model.Source(),
		Confidence:        entity.DefaultConfidence,
		Collector:         collector,
		CreatedAt:         now,
	}
	return r.PriceRepo.Insert(price)
}
