package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Defaults for the Graph API client.
const (
	DefaultBaseURL    = "https://graph.facebook.com"
	DefaultAPIVersion = "v24.0"
	DefaultTimeout    = 60 * time.Second
)

// Messages shown for well-known Graph failures.
const (
	MsgAuthFailed  = "Authentication failed. Please log in again."
	MsgRateLimited = "Rate limit exceeded. Please try again later."
)

// ErrNotAuthenticated is returned when no usable access token is available.
var ErrNotAuthenticated = errors.New("not authenticated")

// HTTPClient matches net/http.Client Do signature for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIError is a non-2xx reply from the Graph API.
type APIError struct {
	StatusCode int
	// Remote is the message from the error body, if any.
	Remote string
}

// Error returns a message suitable for showing to the seller.
func (e *APIError) Error() string {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return MsgAuthFailed
	case http.StatusTooManyRequests:
		return MsgRateLimited
	case http.StatusBadRequest:
		return "Invalid request: " + e.detail()
	}
	return e.detail()
}

func (e *APIError) detail() string {
	if e.Remote != "" {
		return e.Remote
	}
	return fmt.Sprintf("Request failed with status code %d", e.StatusCode)
}

// IsAuthError reports whether err is a rejected access token.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return errors.Is(err, ErrNotAuthenticated)
}

// Config defines settings for the Graph client.
type Config struct {
	BaseURL    string
	APIVersion string
	Timeout    time.Duration
}

// Client calls the Graph catalog endpoints.
type Client struct {
	baseURL    string
	version    string
	httpClient HTTPClient
}

// NewClient creates a Graph client. A nil httpClient gets a default
// net/http client using cfg.Timeout.
func NewClient(httpClient HTTPClient, cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	version := cfg.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}

	return &Client{
		baseURL:    base,
		version:    version,
		httpClient: httpClient,
	}
}

// ListCatalogs returns the catalogs owned by the token's user.
func (c *Client) ListCatalogs(ctx context.Context, token string) ([]Catalog, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	params := url.Values{}
	params.Set("access_token", token)
	params.Set("fields", "id,name,product_count")

	var out struct {
		Data []Catalog `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "me/owned_product_catalogs", params, nil, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		out.Data = []Catalog{}
	}
	return out.Data, nil
}

// ItemsBatch sends one items_batch call to catalogID.
func (c *Client) ItemsBatch(ctx context.Context, token, catalogID string, requests []BatchRequest) (*BatchResponse, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	body, err := json.Marshal(struct {
		Requests []BatchRequest `json:"requests"`
	}{requests})
	if err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}

	params := url.Values{}
	params.Set("access_token", token)

	var out BatchResponse
	if err := c.do(ctx, http.MethodPost, url.PathEscape(catalogID)+"/items_batch", params, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body []byte, out any) error {
	endpoint := fmt.Sprintf("%s/%s/%s?%s", c.baseURL, c.version, path, params.Encode())

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graph request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(data, &e)
		return &APIError{StatusCode: resp.StatusCode, Remote: e.Error.Message}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
