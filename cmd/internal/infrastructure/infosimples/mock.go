package infosimples

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"rastru/cmd/internal/domain/fiscal"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"
)

type mockProduct struct {
	ean   string
	name  string
	unit  string
	price string
}

var mockCatalog = []mockProduct{
	{"7891000100103", "LEITE CONDENSADO MOCOCA 395G", "UN", "6.49"},
	{"7896005800010", "ARROZ TIPO 1 CAMIL 5KG", "UN", "27.90"},
	{"7891910000197", "ACUCAR REFINADO UNIAO 1KG", "UN", "4.99"},
	{"7891149103102", "CAFE PILAO TRADICIONAL 500G", "UN", "18.75"},
	{"7894900011517", "REFRIGERANTE COCA COLA 2L", "UN", "9.99"},
	{"7891021006125", "DETERGENTE YPE NEUTRO 500ML", "UN", "2.39"},
	{"", "PAO FRANCES KG", "KG", "15.90"},
}

// MockClient answers every lookup with a document derived from the key, so
// the same key always yields the same payload. Registered fixtures take
// precedence over the generated document.
type MockClient struct {
	mu       sync.RWMutex
	fixtures map[string][]byte
	calls    atomic.Int64
}

func NewMockClient() *MockClient {
	return &MockClient{fixtures: make(map[string][]byte)}
}

// SetFixture registers the raw envelope returned for accessKey.
func (m *MockClient) SetFixture(accessKey string, envelope []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fixtures[accessKey] = envelope
}

func (m *MockClient) Calls() int64 {
	return m.calls.Load()
}

func (m *MockClient) Lookup(ctx context.Context, key *fiscal.AccessKey, _ int) (*Envelope, error) {
	m.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, classifyTransportError(err)
	}

	m.mu.RLock()
	raw, ok := m.fixtures[key.Raw]
	m.mu.RUnlock()

	if !ok {
		var err error
		raw, err = generateEnvelope(key)
		if err != nil {
			return nil, err
		}
	}

	env, err := DecodeEnvelope(raw)
	if err != nil {
		return nil, err
	}
	return env, env.Err()
}

func generateEnvelope(key *fiscal.AccessKey) ([]byte, error) {
	h := fnv.New32a()
	h.Write([]byte(key.Raw))
	seed := int(h.Sum32() % uint32(len(mockCatalog)))

	items := make([]mockProduct, 0, 3)
	for i := 0; i < 3; i++ {
		items = append(items, mockCatalog[(seed+i)%len(mockCatalog)])
	}

	// Positions 2..6 of the key hold the issue year and month (AAMM).
	issued := fmt.Sprintf("01/%s/20%s 12:00:00", key.Raw[4:6], key.Raw[2:4])
	issuer := map[string]any{
		"nome":          "MERCADO MOCK " + key.CNPJ[:8],
		"nome_fantasia": "MERCADO MOCK",
		"cnpj":          key.CNPJ,
		"municipio":     "SAO PAULO",
		"uf":            key.State(),
	}

	var doc map[string]any
	if key.Model == fiscal.ModelNFe {
		doc = mockNFe(issuer, issued, items)
	} else {
		doc = mockNFCe(issuer, issued, items)
	}

	return json.Marshal(map[string]any{
		"code":         CodeSuccess,
		"code_message": "A requisição foi processada com sucesso.",
		"data_count":   1,
		"data":         []any{doc},
	})
}

func mockNFCe(issuer map[string]any, issued string, items []mockProduct) map[string]any {
	total := decimal.Zero
	var products []map[string]any
	for i, it := range items {
		price := decimal.RequireFromString(it.price)
		total = total.Add(price)
		products = append(products, map[string]any{
			"num":            i + 1,
			"descricao":      it.name,
			"ean_comercial":  eanOrPlaceholder(it.ean),
			"qtd":            "1,0000",
			"unidade":        it.unit,
			"valor_unitario": brazilian(price),
			"valor_total":    brazilian(price),
		})
	}

	return map[string]any{
		"emitente": issuer,
		"resumo": map[string]any{
			"data_emissao": issued,
			"valor_total":  brazilian(total),
			"produtos":     products,
		},
	}
}

func mockNFe(issuer map[string]any, issued string, items []mockProduct) map[string]any {
	total := decimal.Zero
	var products []map[string]any
	for i, it := range items {
		price := decimal.RequireFromString(it.price)
		total = total.Add(price)
		products = append(products, map[string]any{
			"num":            i + 1,
			"descricao":      it.name,
			"gtin":           eanOrPlaceholder(it.ean),
			"quantidade":     "1.0000",
			"unidade":        it.unit,
			"valor_unitario": price.StringFixed(4),
			"valor_total":    price.StringFixed(2),
		})
	}

	return map[string]any{
		"emitente": issuer,
		"nfe": map[string]any{
			"data_emissao": issued,
			"valor_total":  total.StringFixed(2),
		},
		"produtos": products,
	}
}

func eanOrPlaceholder(ean string) string {
	if ean == "" {
		return "SEM GTIN"
	}
	return ean
}

func brazilian(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}
