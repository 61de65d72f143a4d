package search

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"assistant-backend/pkg/api"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultEndpoint = "https://api.bing.microsoft.com/v7.0/search"
	DefaultCount    = 5
	MaxCount        = 50
)

// Provider runs web searches. Implementations never fail: when the backing
// service is unusable they return MockResults for the query.
type Provider interface {
	Search(ctx context.Context, query string, count int) []api.SearchResult
}

type BingClient struct {
	client   *resty.Client
	endpoint string
	apiKey   string
}

func NewBingClient(endpoint, apiKey string) *BingClient {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &BingClient{
		client:   resty.New().SetTimeout(15 * time.Second),
		endpoint: endpoint,
		apiKey:   apiKey,
	}
}

type bingResponse struct {
	WebPages *struct {
		Value []struct {
			Name    string `json:"name"`
			URL     string `json:"url"`
			Snippet string `json:"snippet"`
		} `json:"value"`
	} `json:"webPages"`
}

func (b *BingClient) Search(ctx context.Context, query string, count int) []api.SearchResult {
	count = ClampCount(count)

	if b.apiKey == "" {
		slog.Warn("search api key not configured, returning mock results", "query", query)
		return MockResults(query)
	}

	var body bingResponse
	res, err := b.client.R().
		SetContext(ctx).
		SetHeader("Ocp-Apim-Subscription-Key", b.apiKey).
		SetQueryParam("q", query).
		SetQueryParam("count", strconv.Itoa(count)).
		SetResult(&body).
		Get(b.endpoint)
	if err != nil {
		slog.Error("search api request failed", "query", query, "error", err)
		return MockResults(query)
	}
	if !res.IsSuccess() {
		slog.Error("search api returned error status", "query", query, "status", res.StatusCode())
		return MockResults(query)
	}

	if body.WebPages == nil || len(body.WebPages.Value) == 0 {
		slog.Warn("search api returned no web pages, returning mock results", "query", query)
		return MockResults(query)
	}

	results := make([]api.SearchResult, 0, len(body.WebPages.Value))
	for _, page := range body.WebPages.Value {
		results = append(results, api.SearchResult{Title: page.Name, URL: page.URL, Snippet: page.Snippet})
	}
	return results
}

func ClampCount(count int) int {
	if count <= 0 {
		return DefaultCount
	}
	return min(count, MaxCount)
}

// MockResults is the deterministic result set used when no search provider
// is reachable. It depends only on the query.
func MockResults(query string) []api.SearchResult {
	return []api.SearchResult{
		{
			Title:   "Result 1 for: " + query,
			URL:     "https://example.com/result1",
			Snippet: fmt.Sprintf(`This is a sample search result for "%s". In a production environment, this would be replaced with actual search results.`, query),
		},
		{
			Title:   "Result 2 for: " + query,
			URL:     "https://example.com/result2",
			Snippet: fmt.Sprintf(`Another sample result related to "%s". Integrate with a real search API for production use.`, query),
		},
		{
			Title:   "Result 3 for: " + query,
			URL:     "https://example.com/result3",
			Snippet: fmt.Sprintf(`Third sample result for "%s". The actual implementation would use Bing, Google, or another search provider.`, query),
		},
	}
}

// Format renders results as numbered plain text blocks for an LLM prompt.
func Format(results []api.SearchResult) string {
	blocks := make([]string, 0, len(results))
	for i, r := range results {
		blocks = append(blocks, fmt.Sprintf("Result %d:\nTitle: %s\nURL: %s\nSnippet: %s", i+1, r.Title, r.URL, r.Snippet))
	}
	return strings.Join(blocks, "\n\n")
}
