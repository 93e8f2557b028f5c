package service

import (
	"rastru/cmd/internal/domain/fiscal"
	"rastru/cmd/internal/infrastructure/infosimples"
	"rastru/cmd/internal/utils"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/shopspring/decimal"
)

// Receipts carry Brasília local time without an offset.
var brazilTime = time.FixedZone("BRT", -3*60*60)

var issueDateLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

const noGTIN = "SEM GTIN"

type ResponseNormalizer struct{}

func NewResponseNormalizer() *ResponseNormalizer {
	return &ResponseNormalizer{}
}

// Normalize picks the extraction path from the access key model. A payload
// that matches neither document shape is returned as a NormalizationError
// carrying the raw body.
func (n *ResponseNormalizer) Normalize(env *infosimples.Envelope, key *fiscal.AccessKey) (*fiscal.NormalizedDocument, error) {
	if env == nil {
		return nil, fiscal.ErrEmptyResult
	}
	if err := env.Err(); err != nil {
		return nil, err
	}

	switch doc := infosimples.DecodeDocument(env.First(), key.Model).(type) {
	case *infosimples.NFCeDocument:
		return n.normalizeNFCe(doc, key), nil
	case *infosimples.NFeDocument:
		return n.normalizeNFe(doc, key), nil
	case *infosimples.UnrecognizedDocument:
		return nil, fiscal.NewNormalizationError(env.Raw, "%s", doc.Reason)
	default:
		return nil, fiscal.NewNormalizationError(env.Raw, "unexpected document type %T", doc)
	}
}

func (n *ResponseNormalizer) normalizeNFCe(doc *infosimples.NFCeDocument, key *fiscal.AccessKey) *fiscal.NormalizedDocument {
	out := newDocumentHeader(doc.Emitente, key)
	out.TotalValue = decodeBR(doc.Resumo.ValorTotal)
	out.IssueDate = parseIssueDate(doc.Resumo.DataEmissao, key)

	out.LineItems = make([]*fiscal.NormalizedLineItem, 0, len(doc.Resumo.Produtos))
	for i := range doc.Resumo.Produtos {
		line := &doc.Resumo.Produtos[i]
		out.LineItems = append(out.LineItems, newLineItem(line, i, decodeBR, firstPresent(line.Qtd, line.Quantidade)))
	}
	return out
}

func (n *ResponseNormalizer) normalizeNFe(doc *infosimples.NFeDocument, key *fiscal.AccessKey) *fiscal.NormalizedDocument {
	out := newDocumentHeader(doc.Emitente, key)
	out.TotalValue = decodePlain(doc.NFe.ValorTotal)
	out.IssueDate = parseIssueDate(doc.NFe.DataEmissao, key)

	out.LineItems = make([]*fiscal.NormalizedLineItem, 0, len(doc.Produtos))
	for i := range doc.Produtos {
		line := &doc.Produtos[i]
		out.LineItems = append(out.LineItems, newLineItem(line, i, decodePlain, firstPresent(line.Quantidade, line.Qtd)))
	}
	return out
}

func newDocumentHeader(issuer *infosimples.Issuer, key *fiscal.AccessKey) *fiscal.NormalizedDocument {
	name := firstPresent(issuer.Nome, issuer.RazaoSocial, issuer.NomeFantasia).String()
	trade := firstPresent(issuer.NomeFantasia).String()
	if trade == "" {
		trade = name
	}

	// The key itself encodes the issuer CNPJ.
	cnpj := utils.CleanCNPJ(issuer.CNPJ.String())
	if len(cnpj) != fiscal.CNPJLength {
		cnpj = key.CNPJ
	}
	if name == "" {
		name = cnpj
	}

	municipality := issuer.Municipio
	state := issuer.UF
	if issuer.Endereco != nil {
		municipality = firstPresent(municipality, issuer.Endereco.Municipio)
		state = firstPresent(state, issuer.Endereco.UF)
	}

	uf := strings.ToUpper(state.String())
	if uf == "" && key.State() != fiscal.UnknownRegion {
		uf = key.State()
	}

	return &fiscal.NormalizedDocument{
		AccessKey:    key,
		IssuerName:   fiscal.CleanName(name),
		TradeName:    fiscal.CleanName(trade),
		IssuerCNPJ:   cnpj,
		Municipality: fiscal.CleanName(municipality.String()),
		State:        uf,
	}
}

func newLineItem(line *infosimples.ProductLine, index int, decode func(infosimples.Text) decimal.Decimal, qty infosimples.Text) *fiscal.NormalizedLineItem {
	item := &fiscal.NormalizedLineItem{
		ItemNumber:  index + 1,
		Description: fiscal.CleanName(line.Descricao.String()),
		EAN:         resolveEAN(line),
		NCM:         line.NCM.Ptr(),
		Quantity:    decode(qty),
		UnitValue:   decode(line.ValorUnitario),
		TotalValue:  decode(line.ValorTotal),
		Unit:        strings.ToUpper(line.Unidade.String()),
	}

	if num, err := strconv.Atoi(line.Num.String()); err == nil && num > 0 {
		item.ItemNumber = num
	}

	// Some receipts only print one of the two values.
	switch {
	case item.UnitValue.IsZero() && !item.Quantity.IsZero():
		item.UnitValue = item.TotalValue.DivRound(item.Quantity, 4)
	case item.TotalValue.IsZero():
		item.TotalValue = item.UnitValue.Mul(item.Quantity).Round(2)
	}
	return item
}

// resolveEAN walks the barcode fields in priority order. The provider
// prints "SEM GTIN" when the product has none.
func resolveEAN(line *infosimples.ProductLine) *string {
	candidates := []infosimples.Text{line.EANComercial, line.EANTributavel, line.CodigoBarras, line.GTIN}
	for _, c := range candidates {
		if !c.Present() || strings.EqualFold(c.String(), noGTIN) {
			continue
		}

		ean := fiscal.OnlyDigits(c.String())
		if ean == "" {
			continue
		}
		return &ean
	}
	return nil
}

func parseIssueDate(t infosimples.Text, key *fiscal.AccessKey) time.Time {
	raw := t.String()
	if raw == "" {
		return time.Time{}
	}

	for _, layout := range issueDateLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, brazilTime); err == nil {
			return parsed
		}
	}

	log.Warnf("unparseable issue date %q on document %s", raw, key.Raw)
	return time.Time{}
}

func firstPresent(values ...infosimples.Text) infosimples.Text {
	for _, v := range values {
		if v.Present() {
			return v
		}
	}
	return infosimples.Text{}
}

// JSON numbers are already dot-decimal; only strings follow the
// document's locale.
func decodeBR(t infosimples.Text) decimal.Decimal {
	if t.Number {
		return decodeNumber(t.Value)
	}
	return fiscal.DecodeBR(t.Ptr())
}

func decodePlain(t infosimples.Text) decimal.Decimal {
	if t.Number {
		return decodeNumber(t.Value)
	}
	return fiscal.DecodePlain(t.Ptr())
}

func decodeNumber(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
