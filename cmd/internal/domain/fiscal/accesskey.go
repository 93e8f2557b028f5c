package fiscal

const (
	AccessKeyLength = 44
	CNPJLength      = 14

	// UnknownRegion is returned for UF codes outside the IBGE table.
	UnknownRegion = "??"
)

type DocumentModel string

const (
	ModelNFe     DocumentModel = "55"
	ModelNFCe    DocumentModel = "65"
	ModelUnknown DocumentModel = "UNKNOWN"
)

// Source is the value persisted on price facts for this model.
func (m DocumentModel) Source() string {
	switch m {
	case ModelNFe:
		return "nfe"
	case ModelNFCe:
		return "nfce"
	default:
		return "unknown"
	}
}

// AccessKey is the decoded form of the 44-digit "chave de acesso".
// Fields are fixed-offset slices of Raw, no checksum is verified.
type AccessKey struct {
	Raw    string
	UFCode string
	CNPJ   string
	Model  DocumentModel
	Series string
	Number string
}

var ufByCode = map[string]string{
	"11": "RO", "12": "AC", "13": "AM", "14": "RR", "15": "PA", "16": "AP", "17": "TO",
	"21": "MA", "22": "PI", "23": "CE", "24": "RN", "25": "PB", "26": "PE", "27": "AL",
	"28": "SE", "29": "BA",
	"31": "MG", "32": "ES", "33": "RJ", "35": "SP",
	"41": "PR", "42": "SC", "43": "RS",
	"50": "MS", "51": "MT", "52": "GO", "53": "DF",
}

// ParseAccessKey validates and slices a raw access key.
func ParseAccessKey(key string) (*AccessKey, error) {
	if len(key) != AccessKeyLength {
		return nil, &ValidationError{Kind: InvalidLength, Field: "access_key", Value: key}
	}

	if !IsOnlyDigits(key) {
		return nil, &ValidationError{Kind: NonNumeric, Field: "access_key", Value: key}
	}

	return &AccessKey{
		Raw:    key,
		UFCode: key[0:2],
		CNPJ:   key[6:20],
		Model:  toModel(key[20:22]),
		Series: key[22:25],
		Number: key[25:34],
	}, nil
}

// State maps the UF code to its two-letter abbreviation.
func (k *AccessKey) State() string {
	return StateForUF(k.UFCode)
}

func (k *AccessKey) String() string {
	return k.Raw
}

func StateForUF(code string) string {
	if uf, ok := ufByCode[code]; ok {
		return uf
	}
	return UnknownRegion
}

func toModel(code string) DocumentModel {
	switch code {
	case string(ModelNFe):
		return ModelNFe
	case string(ModelNFCe):
		return ModelNFCe
	default:
		return ModelUnknown
	}
}

func IsOnlyDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// OnlyDigits drops every non-digit character, so "12.345.678/0001-99"
// becomes "12345678000199".
func OnlyDigits(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
