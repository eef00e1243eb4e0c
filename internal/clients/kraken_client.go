package clients

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/krakendca/internal/services/signer"
)

const (
	DefaultKrakenBaseURL   = "https://api.kraken.com"
	DefaultKrakenTimeout   = 10 * time.Second
	maxResponseBodyBytes   = 1 << 20
	headerAPIKey           = "API-Key"
	headerAPISign          = "API-Sign"
	contentTypeApplication = "application/json"
)

// Response raw HTTP answer from the exchange.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// KrakenClient thin REST client for the Kraken spot API.
type KrakenClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	signer     *signer.Signer
}

// NewKrakenClient creates an authenticated client. apiSecret is the base64 secret from the exchange.
func NewKrakenClient(apiKey, apiSecret, baseURL string, timeout time.Duration) (*KrakenClient, error) {
	s, err := signer.NewSigner(apiSecret)
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		return nil, errors.New("API key is empty")
	}

	client := NewKrakenPublicClient(baseURL, timeout)
	client.apiKey = apiKey
	client.signer = s

	return client, nil
}

// NewKrakenPublicClient creates a client for public endpoints only.
func NewKrakenPublicClient(baseURL string, timeout time.Duration) *KrakenClient {
	if baseURL == "" {
		baseURL = DefaultKrakenBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultKrakenTimeout
	}

	return &KrakenClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

// BaseURL returns the API base URL.
func (c *KrakenClient) BaseURL() string {
	return c.baseURL
}

// Authenticated reports whether the client can call private endpoints.
func (c *KrakenClient) Authenticated() bool {
	return c.signer != nil
}

// Get performs an unauthenticated GET of an absolute URL.
func (c *KrakenClient) Get(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", contentTypeApplication)

	return c.do(req)
}

// PostPrivate signs payload for path and POSTs it to baseURL+path.
func (c *KrakenClient) PostPrivate(ctx context.Context, path string, payload signer.Payload) (*Response, error) {
	if !c.Authenticated() {
		return nil, errors.New("client has no API credentials")
	}

	signed, err := c.signer.Sign(path, payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(signed.Body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", contentTypeApplication)
	req.Header.Set("Accept", contentTypeApplication)
	req.Header.Set(headerAPIKey, c.apiKey)
	req.Header.Set(headerAPISign, signed.Signature)

	return c.do(req)
}

func (c *KrakenClient) do(req *http.Request) (*Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}
