package infosimples

import (
	"bytes"
	"encoding/json"
	"fmt"
	"rastru/cmd/internal/domain/fiscal"
	"strings"
)

const (
	CodeSuccess  = 2000
	CodeNotFound = 612
)

// Envelope is the outer wrapper of every provider answer.
type Envelope struct {
	Code        int               `json:"code"`
	CodeMessage string            `json:"code_message"`
	DataCount   int               `json:"data_count"`
	Data        []json.RawMessage `json:"data"`

	// Raw is the body exactly as received, kept for diagnostics.
	Raw []byte `json:"-"`
}

func DecodeEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fiscal.NewNormalizationError(raw, "invalid provider envelope: %v", err)
	}
	env.Raw = raw
	return &env, nil
}

// Err classifies the provider status. A nil error means Data[0] is usable.
func (e *Envelope) Err() error {
	switch e.Code {
	case CodeSuccess:
		if len(e.Data) == 0 || e.DataCount <= 0 {
			return fiscal.ErrEmptyResult
		}
		return nil
	case CodeNotFound:
		return fiscal.ErrEmptyResult
	default:
		msg := strings.TrimSpace(e.CodeMessage)
		if msg == "" {
			msg = "no message"
		}
		return fmt.Errorf("%w: code %d: %s", ErrProviderRejected, e.Code, msg)
	}
}

// First returns the document payload, or nil when there is none.
func (e *Envelope) First() json.RawMessage {
	if len(e.Data) == 0 {
		return nil
	}
	return e.Data[0]
}

// Text is a loosely typed scalar leaf. The provider sends the same field as
// a string on some documents and as a number on others; objects and arrays
// where a scalar is expected are treated as absent.
type Text struct {
	Value  string
	Valid  bool
	Number bool
}

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*t = Text{}

	if len(b) == 0 || string(b) == "null" {
		return nil
	}

	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text{Value: s, Valid: true}
	case '{', '[':
		return nil
	case 't', 'f':
		*t = Text{Value: string(b), Valid: true}
	default:
		*t = Text{Value: string(b), Valid: true, Number: true}
	}
	return nil
}

func (t Text) String() string {
	return strings.TrimSpace(t.Value)
}

// Present reports a non-blank value.
func (t Text) Present() bool {
	return t.Valid && t.String() != ""
}

func (t Text) Ptr() *string {
	if !t.Present() {
		return nil
	}
	s := t.String()
	return &s
}

// Document is the tagged union of the shapes the provider can return.
type Document interface {
	Model() fiscal.DocumentModel
}

type Address struct {
	Municipio Text `json:"municipio"`
	UF        Text `json:"uf"`
}

type Issuer struct {
	Nome         Text     `json:"nome"`
	RazaoSocial  Text     `json:"razao_social"`
	NomeFantasia Text     `json:"nome_fantasia"`
	CNPJ         Text     `json:"cnpj"`
	Municipio    Text     `json:"municipio"`
	UF           Text     `json:"uf"`
	Endereco     *Address `json:"endereco"`
}

// ProductLine covers the item fields of both models; NFC-e uses "qtd"
// where NF-e uses "quantidade".
type ProductLine struct {
	Num           Text `json:"num"`
	Descricao     Text `json:"descricao"`
	Codigo        Text `json:"codigo"`
	EANComercial  Text `json:"ean_comercial"`
	EANTributavel Text `json:"ean_tributavel"`
	CodigoBarras  Text `json:"codigo_barras"`
	GTIN          Text `json:"gtin"`
	Qtd           Text `json:"qtd"`
	Quantidade    Text `json:"quantidade"`
	Unidade       Text `json:"unidade"`
	ValorUnitario Text `json:"valor_unitario"`
	ValorTotal    Text `json:"valor_total"`
	NCM           Text `json:"ncm"`
}

// NFCeDocument (model 65) nests its items inside the "resumo" section and
// formats every number the Brazilian way.
type NFCeDocument struct {
	Emitente *Issuer     `json:"emitente"`
	Resumo   *NFCeResumo `json:"resumo"`
}

type NFCeResumo struct {
	DataEmissao Text          `json:"data_emissao"`
	ValorTotal  Text          `json:"valor_total"`
	Produtos    []ProductLine `json:"produtos"`
}

func (*NFCeDocument) Model() fiscal.DocumentModel {
	return fiscal.ModelNFCe
}

// NFeDocument (model 55) keeps its items at the top level in dot-decimal
// notation.
type NFeDocument struct {
	Emitente *Issuer       `json:"emitente"`
	NFe      *NFeHeader    `json:"nfe"`
	Produtos []ProductLine `json:"produtos"`
}

type NFeHeader struct {
	DataEmissao Text `json:"data_emissao"`
	ValorTotal  Text `json:"valor_total"`
}

func (*NFeDocument) Model() fiscal.DocumentModel {
	return fiscal.ModelNFe
}

// UnrecognizedDocument carries a payload that matched neither shape.
type UnrecognizedDocument struct {
	Reason string
	Raw    json.RawMessage
}

func (*UnrecognizedDocument) Model() fiscal.DocumentModel {
	return fiscal.ModelUnknown
}

// DecodeDocument picks the shape from the access key model, not from which
// fields happen to be present.
func DecodeDocument(raw json.RawMessage, model fiscal.DocumentModel) Document {
	if len(raw) == 0 {
		return &UnrecognizedDocument{Reason: "empty document", Raw: raw}
	}

	switch model {
	case fiscal.ModelNFCe:
		var doc NFCeDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return &UnrecognizedDocument{Reason: "nfce: " + err.Error(), Raw: raw}
		}
		if doc.Emitente == nil || doc.Resumo == nil {
			return &UnrecognizedDocument{Reason: "nfce: missing emitente or resumo section", Raw: raw}
		}
		return &doc

	case fiscal.ModelNFe:
		var doc NFeDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return &UnrecognizedDocument{Reason: "nfe: " + err.Error(), Raw: raw}
		}
		if doc.Emitente == nil || doc.NFe == nil {
			return &UnrecognizedDocument{Reason: "nfe: missing emitente or nfe section", Raw: raw}
		}
		return &doc

	default:
		return &UnrecognizedDocument{Reason: fmt.Sprintf("unsupported document model %q", model), Raw: raw}
	}
}
