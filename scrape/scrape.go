package scrape

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// Scraper extracts readable text from submission link targets, so link posts
// without selftext still give the analyzer real content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (string, error)
}

type httpScraper struct {
	client    *http.Client
	userAgent string
	maxChars  int
}

// New creates a Scraper with the given request timeout and content cap.
func New(timeout time.Duration, userAgent string, maxChars int) Scraper {
	return &httpScraper{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		maxChars:  maxChars,
	}
}

// NewWithClient creates a Scraper with a custom HTTP client (for testing).
func NewWithClient(client *http.Client, userAgent string, maxChars int) Scraper {
	return &httpScraper{client: client, userAgent: userAgent, maxChars: maxChars}
}

// Scrape fetches the URL and extracts readable text, truncated to the
// configured cap. Non-HTTP URLs are rejected up front.
func (s *httpScraper) Scrape(ctx context.Context, url string) (string, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", fmt.Errorf("unsupported url scheme in %s", url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating scrape request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("scraping %s returned status %d", url, resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, nil)
	if err != nil {
		return "", fmt.Errorf("extracting content from %s: %w", url, err)
	}

	content := article.TextContent
	if s.maxChars > 0 && len(content) > s.maxChars {
		content = content[:s.maxChars]
	}

	return content, nil
}
