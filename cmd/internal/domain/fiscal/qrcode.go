package fiscal

import (
	"regexp"
	"strings"
)

var keyPattern = regexp.MustCompile(`\d{44}`)

// ExtractAccessKey finds the access key inside a scanned NFC-e QR code.
//
// The SEFAZ QR URL carries it in the "p" parameter as "key|version|env|...",
// so that parameter is checked first (cut at its first '|'). Otherwise the
// first run of 44 digits anywhere in the payload is used.
func ExtractAccessKey(payload string) (string, error) {
	payload = strings.TrimSpace(payload)

	if p, ok := queryParam(payload, "p"); ok {
		if idx := strings.IndexByte(p, '|'); idx >= 0 {
			p = p[:idx]
		}
		if key := keyPattern.FindString(p); key != "" {
			return key, nil
		}
	}

	if key := keyPattern.FindString(payload); key != "" {
		return key, nil
	}
	return "", &ValidationError{Kind: MissingKey, Field: "qr_code", Value: payload}
}

// queryParam reads a raw query parameter without url-decoding it, since the
// pipe separators are sometimes sent unescaped and sometimes as %7C.
func queryParam(payload, name string) (string, bool) {
	q := payload
	if idx := strings.IndexByte(q, '?'); idx >= 0 {
		q = q[idx+1:]
	}

	for _, part := range strings.Split(q, "&") {
		k, v, found := strings.Cut(part, "=")
		if !found || k != name {
			continue
		}
		v = strings.ReplaceAll(v, "%7C", "|")
		v = strings.ReplaceAll(v, "%7c", "|")
		return v, true
	}
	return "", false
}
