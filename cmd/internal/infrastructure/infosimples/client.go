package infosimples

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"rastru/cmd/internal/domain/fiscal"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL        = "https://api.infosimples.com/api/v2"
	DefaultTimeoutSeconds = 120
	MaxTimeoutSeconds     = 300
	DefaultClientMargin   = 5 * time.Second

	maxBodySize = 8 << 20
)

var (
	ErrProviderRejected = errors.New("provider rejected the lookup")
	ErrMissingToken     = errors.New("infosimples token is required in live mode")
)

type Mode string

const (
	ModeLive Mode = "live"
	ModeMock Mode = "mock"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeLive, "":
		return ModeLive, nil
	case ModeMock:
		return ModeMock, nil
	default:
		return "", fmt.Errorf("unknown lookup mode %q", s)
	}
}

// LookupClient fetches the full document behind an access key.
type LookupClient interface {
	Lookup(ctx context.Context, key *fiscal.AccessKey, timeoutSeconds int) (*Envelope, error)
}

type Options struct {
	BaseURL      string
	Token        string
	ClientMargin time.Duration
}

// New builds the collaborator for the given mode. The mode is never switched
// at runtime: a live lookup failure is reported, not replaced by mock data.
func New(mode Mode, opts Options) (LookupClient, error) {
	switch mode {
	case ModeMock:
		return NewMockClient(), nil
	case ModeLive:
		if strings.TrimSpace(opts.Token) == "" {
			return nil, ErrMissingToken
		}
		return NewClient(opts), nil
	default:
		return nil, fmt.Errorf("unknown lookup mode %q", mode)
	}
}

type Client struct {
	baseURL    string
	token      string
	margin     time.Duration
	httpClient *http.Client
}

func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	margin := opts.ClientMargin
	if margin <= 0 {
		margin = DefaultClientMargin
	}

	return &Client{
		baseURL:    baseURL,
		token:      opts.Token,
		margin:     margin,
		httpClient: &http.Client{},
	}
}

// Lookup asks the provider for the document. The provider is told to give
// up after timeoutSeconds; the client itself waits a little longer so the
// provider's own timeout answer can still arrive.
func (c *Client) Lookup(ctx context.Context, key *fiscal.AccessKey, timeoutSeconds int) (*Envelope, error) {
	timeoutSeconds = ClampTimeout(timeoutSeconds)

	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSeconds)*time.Second+c.margin)
	defer cancel()

	query := url.Values{}
	query.Set("token", c.token)
	query.Set("chave", key.Raw)
	query.Set("timeout", strconv.Itoa(timeoutSeconds))

	endpoint := fmt.Sprintf("%s/consultas/%s/complete?%s", c.baseURL, consultaPath(key.Model), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: provider answered with status code %d", fiscal.ErrLookupUnreachable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, classifyTransportError(err)
	}

	env, err := DecodeEnvelope(body)
	if err != nil {
		return nil, err
	}
	return env, env.Err()
}

// ClampTimeout applies the default and the upper bound to a requested
// provider timeout.
func ClampTimeout(seconds int) int {
	if seconds <= 0 {
		return DefaultTimeoutSeconds
	}
	if seconds > MaxTimeoutSeconds {
		return MaxTimeoutSeconds
	}
	return seconds
}

// Unknown models are tried as NFC-e, the only kind a QR code carries.
func consultaPath(model fiscal.DocumentModel) string {
	if model == fiscal.ModelNFe {
		return "nfe"
	}
	return "nfce"
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", fiscal.ErrLookupTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", fiscal.ErrLookupTimeout, err)
	}
	return fmt.Errorf("%w: %v", fiscal.ErrLookupUnreachable, err)
}
