package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ScrapeClient fetches the content of a web page as markdown text.
type ScrapeClient interface {
	Scrape(ctx context.Context, pageURL string) (string, error)
}

// ScrapeDoClient fetches pages through a scrape.do-compatible proxy API,
// requesting rendered markdown output.
type ScrapeDoClient struct {
	endpoint string
	token    string
	geoCode  string
	maxBytes int64
	client   *http.Client
}

// ScrapeDoOptions tunes a ScrapeDoClient.
type ScrapeDoOptions struct {
	// Endpoint of the scrape API. Defaults to https://api.scrape.do.
	Endpoint string
	// GeoCode selects the proxy exit country. Defaults to US.
	GeoCode string
	// MaxBytes caps the returned content length. Defaults to 64 KiB.
	MaxBytes int64
	// Timeout for the request. Defaults to 60s.
	Timeout time.Duration
}

// NewScrapeDoClient builds a scrape client authenticating with token.
func NewScrapeDoClient(token string, optFns ...func(o *ScrapeDoOptions)) *ScrapeDoClient {
	opts := ScrapeDoOptions{
		Endpoint: "https://api.scrape.do",
		GeoCode:  "US",
		MaxBytes: 64 * 1024,
		Timeout:  60 * time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &ScrapeDoClient{
		endpoint: opts.Endpoint,
		token:    token,
		geoCode:  strings.ToUpper(opts.GeoCode),
		maxBytes: opts.MaxBytes,
		client:   &http.Client{Timeout: opts.Timeout},
	}
}

// Scrape implements ScrapeClient. The proxy renders JavaScript and converts
// the page to markdown before returning it.
func (c *ScrapeDoClient) Scrape(ctx context.Context, pageURL string) (string, error) {
	if pageURL == "" {
		return "", fmt.Errorf("url is required")
	}

	params := url.Values{}
	params.Set("token", c.token)
	params.Set("url", pageURL)
	params.Set("geoCode", c.geoCode)
	params.Set("super", "true")
	params.Set("output", "markdown")
	params.Set("render", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build scrape request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("scrape request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("scrape of %s returned status %d", pageURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read scrape response: %w", err)
	}

	return string(data), nil
}
