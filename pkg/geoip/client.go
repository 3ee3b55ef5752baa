package geoip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/janmanch/janmanch-backend/pkg/config"
	pkgerrors "github.com/janmanch/janmanch-backend/pkg/errors"
)

const (
	defaultBaseURL              = "http://ip-api.com/json"
	responseBodyReadLimit int64 = 1024
)

var errBaseURLRequired = errors.New("geoip base url is required")

// Client wraps the IP geolocation API used to place users in a city.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured lookup base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the geo-IP client from configuration.
func NewClient(cfg config.GeoIPConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.baseURL == "" {
		return nil, errBaseURLRequired
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: timeout}
	}

	return client, nil
}

// Location is the normalized geolocation payload for an IP address.
type Location struct {
	Country string
	Region  string
	City    string
}

// String renders the location as "City, Region, Country", skipping blanks.
func (l Location) String() string {
	parts := []string{}
	for _, part := range []string{l.City, l.Region, l.Country} {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, ", ")
}

// Lookup resolves the country/region/city for the provided IP address.
func (c *Client) Lookup(ctx context.Context, ip string) (*Location, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "geoip client not configured")
	}
	trimmed := strings.TrimSpace(ip)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ip address is required")
	}

	lookupURL := fmt.Sprintf("%s/%s", strings.TrimRight(c.baseURL, "/"), url.PathEscape(trimmed))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build geoip request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute geoip request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "geoip request failed")
	}

	var apiResp struct {
		Status     string `json:"status"`
		Message    string `json:"message"`
		Country    string `json:"country"`
		RegionName string `json:"regionName"`
		City       string `json:"city"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode geoip response")
	}

	// The upstream returns HTTP 200 with status "fail" for private or
	// unroutable addresses.
	if !strings.EqualFold(apiResp.Status, "success") {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("geoip lookup failed: %s", apiResp.Message))
	}

	return &Location{
		Country: apiResp.Country,
		Region:  apiResp.RegionName,
		City:    apiResp.City,
	}, nil
}
