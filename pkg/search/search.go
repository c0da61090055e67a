// Package search provides web search for the conversation tool loop.
//
// It queries the DuckDuckGo Instant Answer API (free, no API key) and
// formats results as numbered snippets the model can quote from.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/teslashibe/go-pepper/internal/httpc"
)

const defaultBaseURL = "https://api.duckduckgo.com"

// Result is a single structured search result.
type Result struct {
	Title string
	Body  string
	URL   string
}

// Client searches the web and formats results for the model.
type Client struct {
	baseURL    string
	maxResults int
	http       *http.Client
	logger     *slog.Logger
}

// ClientOption configures a search Client.
type ClientOption func(*Client)

// WithBaseURL overrides the search endpoint (used in tests).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithMaxResults caps how many snippets a search returns.
func WithMaxResults(n int) ClientOption {
	return func(c *Client) { c.maxResults = n }
}

// WithTimeout sets the per-search timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http = httpc.NewClient(d) }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l.With("component", "search") }
}

// NewClient creates a search client with a 3-result default.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		maxResults: 3,
		http:       httpc.NewClient(10 * time.Second),
		logger:     slog.Default().With("component", "search"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs a query and returns formatted snippet text.
// A failed search returns the error message as text rather than an error,
// so the tool loop can surface it to the model.
func (c *Client) Search(ctx context.Context, query string) string {
	results, err := c.SearchStructured(ctx, query)
	if err != nil {
		c.logger.Warn("search failed", "query", query, "error", err)
		return fmt.Sprintf("Search error: %v", err)
	}
	if len(results) == 0 {
		return fmt.Sprintf("No search results found for '%s'", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Web search results for '%s':\n\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Title)
		if r.Body != "" {
			fmt.Fprintf(&b, "   %s\n", r.Body)
		}
		if r.URL != "" {
			fmt.Fprintf(&b, "   Source: %s\n", r.URL)
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

// SearchStructured runs a query and returns structured results.
func (c *Client) SearchStructured(ctx context.Context, query string) ([]Result, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("no_html", "1")
	q.Set("no_redirect", "1")

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("search: create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search: status %d", resp.StatusCode)
	}

	var raw instantAnswer
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}

	results := raw.results(c.maxResults)
	c.logger.Debug("search complete", "query", query, "results", len(results))
	return results, nil
}

// instantAnswer is the subset of the DuckDuckGo response we consume.
type instantAnswer struct {
	Heading       string `json:"Heading"`
	AbstractText  string `json:"AbstractText"`
	AbstractURL   string `json:"AbstractURL"`
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

// results flattens the instant answer into at most max snippets.
// The abstract, when present, is always the first result.
func (a *instantAnswer) results(max int) []Result {
	var out []Result

	if a.AbstractText != "" {
		title := a.Heading
		if title == "" {
			title = a.AbstractURL
		}
		out = append(out, Result{
			Title: title,
			Body:  a.AbstractText,
			URL:   a.AbstractURL,
		})
	}

	for _, rt := range a.RelatedTopics {
		if len(out) >= max {
			break
		}
		if rt.Text == "" {
			continue
		}
		// Topic text reads "Title - body"; split on the first dash.
		title, body := rt.Text, ""
		if idx := strings.Index(rt.Text, " - "); idx > 0 {
			title = rt.Text[:idx]
			body = rt.Text[idx+3:]
		}
		out = append(out, Result{Title: title, Body: body, URL: rt.FirstURL})
	}

	if len(out) > max {
		out = out[:max]
	}
	return out
}
