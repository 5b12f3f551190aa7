// Package web provides the search and scrape clients used by research
// workers, plus the tool wrappers that put call budgets and duplicate-query
// suppression in front of them.
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SearchResult is one hit from a web search.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SearchClient performs web searches. Implementations wrap a remote provider.
type SearchClient interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// SerperClient queries a serper.dev-compatible JSON search API.
type SerperClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewSerperClient builds a search client for the given endpoint and API key.
// An empty endpoint defaults to the serper.dev search URL.
func NewSerperClient(endpoint, apiKey string, timeout time.Duration) *SerperClient {
	if endpoint == "" {
		endpoint = "https://google.serper.dev/search"
	}

	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &SerperClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num,omitempty"`
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// Search implements SearchClient.
func (c *SerperClient) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	body, err := json.Marshal(serperRequest{Q: query, Num: limit})
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, string(data))
	}

	var decoded serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]SearchResult, 0, len(decoded.Organic))
	for _, hit := range decoded.Organic {
		results = append(results, SearchResult{
			Title:   hit.Title,
			URL:     hit.Link,
			Snippet: hit.Snippet,
		})
	}

	return results, nil
}
