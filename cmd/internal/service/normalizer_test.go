package service

import (
	"errors"
	"rastru/cmd/internal/domain/fiscal"
	"rastru/cmd/internal/infrastructure/infosimples"
	"testing"
)

func mustKey(t *testing.T, raw string) *fiscal.AccessKey {
	t.Helper()
	key, err := fiscal.ParseAccessKey(raw)
	if err != nil {
		t.Fatalf("parse key: %v", err)
	}
	return key
}

func mustEnvelope(t *testing.T, raw string) *infosimples.Envelope {
	t.Helper()
	env, err := infosimples.DecodeEnvelope([]byte(raw))
	if err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestNormalize_NFCe(t *testing.T) {
	doc, err := NewResponseNormalizer().Normalize(mustEnvelope(t, twoItemReceipt), mustKey(t, testNFCeKey))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.IssuerCNPJ != "12345678000199" || doc.IssuerName != "SUPERMERCADO EXEMPLO LTDA" || doc.TradeName != "EXEMPLO" {
		t.Fatalf("unexpected header: %+v", doc)
	}
	if doc.Municipality != "SAO PAULO" || doc.State != "SP" {
		t.Fatalf("unexpected location: %s/%s", doc.Municipality, doc.State)
	}
	if doc.TotalValue.String() != "1042.4" {
		t.Fatalf("unexpected total: %s", doc.TotalValue)
	}
	if len(doc.LineItems) != 2 {
		t.Fatalf("expected 2 items, got %d", len(doc.LineItems))
	}

	cafe := doc.LineItems[0]
	if cafe.EAN == nil || *cafe.EAN != "7891000100103" {
		t.Fatalf("unexpected ean: %v", cafe.EAN)
	}
	if cafe.Quantity.String() != "2" || cafe.UnitValue.String() != "18.75" || cafe.TotalValue.String() != "37.5" {
		t.Fatalf("unexpected values: %s x %s = %s", cafe.Quantity, cafe.UnitValue, cafe.TotalValue)
	}

	arroz := doc.LineItems[1]
	if arroz.EAN != nil {
		t.Fatalf("SEM GTIN must resolve to an absent ean, got %q", *arroz.EAN)
	}
	if arroz.ProductKey() != "name:ARROZ X" || arroz.ItemNumber != 2 {
		t.Fatalf("unexpected item: %+v", arroz)
	}
}

func TestNormalize_NFeUsesDotDecimals(t *testing.T) {
	raw := `{"code":2000,"data_count":1,"data":[{
		"emitente": {"razao_social": "DISTRIBUIDORA  SUL", "cnpj": "", "endereco": {"municipio": "PORTO ALEGRE", "uf": "rs"}},
		"nfe": {"data_emissao": "2024-03-15T10:30:00-03:00", "valor_total": 1234.5},
		"produtos": [
			{"num": 1, "descricao": "OLEO SOJA 900ML", "ean_comercial": "", "ean_tributavel": "SEM GTIN", "codigo_barras": "7891107101621", "quantidade": "2.0000", "valor_unitario": "10.5000", "valor_total": "21.00"},
			{"num": 2, "descricao": "SAL 1KG", "gtin": 7896110005100, "quantidade": 3, "valor_unitario": "1,99"}
		]
	}]}`

	doc, err := NewResponseNormalizer().Normalize(mustEnvelope(t, raw), mustKey(t, testNFeKey))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Blank issuer CNPJ falls back to the one encoded in the key.
	if doc.IssuerCNPJ != "12345678000199" || doc.IssuerName != "DISTRIBUIDORA SUL" {
		t.Fatalf("unexpected issuer: %+v", doc)
	}
	if doc.Municipality != "PORTO ALEGRE" || doc.State != "RS" {
		t.Fatalf("unexpected address: %s/%s", doc.Municipality, doc.State)
	}
	if doc.TotalValue.String() != "1234.5" || doc.IssueDate.IsZero() {
		t.Fatalf("unexpected header values: %s %v", doc.TotalValue, doc.IssueDate)
	}

	oleo := doc.LineItems[0]
	if oleo.EAN == nil || *oleo.EAN != "7891107101621" {
		t.Fatalf("expected barcode candidate, got %v", oleo.EAN)
	}
	if oleo.Quantity.String() != "2" || oleo.UnitValue.String() != "10.5" {
		t.Fatalf("unexpected dot decimals: %s %s", oleo.Quantity, oleo.UnitValue)
	}

	sal := doc.LineItems[1]
	if sal.EAN == nil || *sal.EAN != "7896110005100" {
		t.Fatalf("expected numeric gtin, got %v", sal.EAN)
	}
	if sal.UnitValue.String() != "1.99" || sal.TotalValue.String() != "5.97" {
		t.Fatalf("unexpected comma fallback: %s %s", sal.UnitValue, sal.TotalValue)
	}
}

func TestNormalize_EANCandidateOrder(t *testing.T) {
	tests := []struct {
		name string
		line infosimples.ProductLine
		want string
	}{
		{"commercial wins", infosimples.ProductLine{
			EANComercial:  infosimples.Text{Value: "111", Valid: true},
			EANTributavel: infosimples.Text{Value: "222", Valid: true},
		}, "111"},
		{"tax after blank commercial", infosimples.ProductLine{
			EANComercial:  infosimples.Text{Value: " ", Valid: true},
			EANTributavel: infosimples.Text{Value: "222", Valid: true},
			GTIN:          infosimples.Text{Value: "444", Valid: true},
		}, "222"},
		{"gtin last", infosimples.ProductLine{
			EANComercial: infosimples.Text{Value: "SEM GTIN", Valid: true},
			CodigoBarras: infosimples.Text{Value: "N/A", Valid: true},
			GTIN:         infosimples.Text{Value: "444", Valid: true},
		}, "444"},
		{"none", infosimples.ProductLine{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveEAN(&tt.line)
			if tt.want == "" {
				if got != nil {
					t.Fatalf("expected absent ean, got %q", *got)
				}
				return
			}
			if got == nil || *got != tt.want {
				t.Fatalf("expected %s, got %v", tt.want, got)
			}
		})
	}
}

func TestNormalize_Failures(t *testing.T) {
	n := NewResponseNormalizer()

	_, err := n.Normalize(mustEnvelope(t, `{"code":2000,"data_count":0,"data":[]}`), mustKey(t, testNFCeKey))
	if !errors.Is(err, fiscal.ErrEmptyResult) {
		t.Fatalf("expected empty result, got %v", err)
	}

	raw := `{"code":2000,"data_count":1,"data":[{"foo":"bar"}]}`
	_, err = n.Normalize(mustEnvelope(t, raw), mustKey(t, testNFCeKey))

	var nerr *fiscal.NormalizationError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected normalization error, got %v", err)
	}
	if string(nerr.Raw) != raw {
		t.Fatalf("raw payload not retained")
	}

	unknown := mustKey(t, "35240312345678000199990010000012341000012345")
	_, err = n.Normalize(mustEnvelope(t, twoItemReceipt), unknown)
	if !errors.As(err, &nerr) {
		t.Fatalf("expected normalization error for unknown model, got %v", err)
	}
}
