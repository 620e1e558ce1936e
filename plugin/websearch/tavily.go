// Package websearch provides web search for recent judgments and news using the Tavily API.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/lexagent/plugin/ai/timeout"
)

// Messages returned to the agent instead of errors.
const (
	NoResultsMessage   = "No results found."
	UnavailableMessage = "Web search is unavailable because no Tavily API key is configured."
)

// Config holds the web search configuration
type Config struct {
	// APIKey is the Tavily API key
	APIKey string
	// BaseURL is the Tavily API endpoint (e.g., https://api.tavily.com)
	BaseURL string
	// Timeout is how long a caller waits before abandoning a search
	Timeout time.Duration
	// MaxResults is the number of results requested per query
	MaxResults int
	// SearchDepth is "basic" or "advanced"
	SearchDepth string
}

// DefaultConfig returns the default web search configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     "https://api.tavily.com",
		Timeout:     timeout.WebSearchTimeout,
		MaxResults:  timeout.WebSearchMaxResults,
		SearchDepth: "advanced",
	}
}

// ConfigFromEnv creates web search config from environment variables
func ConfigFromEnv() *Config {
	config := DefaultConfig()

	if key := os.Getenv("LEXAGENT_TAVILY_API_KEY"); key != "" {
		config.APIKey = key
	} else if key := os.Getenv("TAVILY_API_KEY"); key != "" {
		config.APIKey = key
	}
	if url := os.Getenv("LEXAGENT_TAVILY_BASE_URL"); url != "" {
		config.BaseURL = url
	}
	if d := os.Getenv("LEXAGENT_TAVILY_TIMEOUT"); d != "" {
		if parsed, err := time.ParseDuration(d); err == nil {
			config.Timeout = parsed
		}
	}

	return config
}

// Client provides web search functionality
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a new web search client
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Timeout <= 0 {
		config.Timeout = timeout.WebSearchTimeout
	}
	if config.MaxResults <= 0 {
		config.MaxResults = timeout.WebSearchMaxResults
	}
	if config.SearchDepth == "" {
		config.SearchDepth = "advanced"
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		config: config,
		// Bounds abandoned workers; callers stop waiting at config.Timeout.
		httpClient: &http.Client{Timeout: 3 * config.Timeout},
	}
}

type searchRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
	IncludeImages bool   `json:"include_images"`
}

// Result is one web search hit.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// Response is the Tavily search response.
type Response struct {
	Query   string   `json:"query"`
	Answer  string   `json:"answer"`
	Results []Result `json:"results"`
}

// Search runs one search request and returns the decoded response.
func (c *Client) Search(ctx context.Context, query string) (*Response, error) {
	body, err := json.Marshal(searchRequest{
		APIKey:        c.config.APIKey,
		Query:         query,
		SearchDepth:   c.config.SearchDepth,
		MaxResults:    c.config.MaxResults,
		IncludeAnswer: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to call search API")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("search API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, "failed to decode search response")
	}
	return &out, nil
}

type searchOutcome struct {
	resp *Response
	err  error
}

// SearchText runs a search and renders the outcome for the agent. It never
// fails: errors, timeouts and empty results become descriptive text. The
// request runs on its own goroutine; after config.Timeout the caller stops
// waiting and the worker is left to finish on its own.
func (c *Client) SearchText(ctx context.Context, query string) string {
	if c.config.APIKey == "" {
		return UnavailableMessage
	}

	// Buffered so an abandoned worker can always deliver and exit.
	done := make(chan searchOutcome, 1)
	workerCtx := context.WithoutCancel(ctx)
	go func() {
		resp, err := c.Search(workerCtx, query)
		done <- searchOutcome{resp: resp, err: err}
	}()

	timer := time.NewTimer(c.config.Timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		if out.err != nil {
			slog.Warn("web search failed", "error", out.err)
			return fmt.Sprintf("Tavily search failed: %v", out.err)
		}
		return FormatResults(out.resp)
	case <-timer.C:
		slog.Warn("web search timed out", "timeout", c.config.Timeout)
		return fmt.Sprintf("Error: Web search timed out after %d seconds.", int(c.config.Timeout.Seconds()))
	case <-ctx.Done():
		return fmt.Sprintf("Tavily search failed: %v", ctx.Err())
	}
}

// FormatResults renders a response as the plain-text block shown to the agent.
func FormatResults(resp *Response) string {
	if resp == nil || len(resp.Results) == 0 {
		return NoResultsMessage
	}

	var lines []string
	if resp.Answer != "" {
		lines = append(lines, "AI Summary: "+resp.Answer, strings.Repeat("=", 50))
	}
	for i, r := range resp.Results {
		lines = append(lines,
			fmt.Sprintf("Result %d:", i+1),
			"Title: "+r.Title,
			"URL: "+r.URL,
			"Snippet: "+r.Content,
			strings.Repeat("-", 50),
		)
	}
	return strings.Join(lines, "\n")
}
