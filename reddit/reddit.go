package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const BaseURL = "https://www.reddit.com"

// Submission is one raw submission record from a subreddit listing.
type Submission struct {
	ID          string
	Title       string
	Body        string
	Author      string
	Subreddit   string
	URL         string
	Score       int
	NumComments int
	UpvoteRatio float64
	CreatedUTC  int64
}

// Client lists submissions from a subreddit. It does not authenticate or
// paginate; it consumes the public listing endpoint only.
type Client interface {
	ListSubmissions(ctx context.Context, subreddit string, limit int) ([]Submission, error)
}

type httpClient struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

// NewClient creates a Client against the public Reddit JSON API. Reddit
// rejects requests without a descriptive User-Agent.
func NewClient(client *http.Client, userAgent string) Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpClient{client: client, baseURL: BaseURL, userAgent: userAgent}
}

// NewClientWithBaseURL creates a Client with a custom base URL (for testing).
func NewClientWithBaseURL(client *http.Client, userAgent, baseURL string) Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpClient{client: client, baseURL: baseURL, userAgent: userAgent}
}

// listing mirrors the slice of Reddit's Listing payload we consume.
type listing struct {
	Data struct {
		Children []struct {
			Data struct {
				ID          string  `json:"id"`
				Title       string  `json:"title"`
				SelfText    string  `json:"selftext"`
				Author      string  `json:"author"`
				Subreddit   string  `json:"subreddit"`
				URL         string  `json:"url"`
				Score       int     `json:"score"`
				NumComments int     `json:"num_comments"`
				UpvoteRatio float64 `json:"upvote_ratio"`
				CreatedUTC  float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// ListSubmissions fetches up to limit newest submissions from a subreddit.
func (c *httpClient) ListSubmissions(ctx context.Context, subreddit string, limit int) ([]Submission, error) {
	if subreddit == "" {
		return nil, fmt.Errorf("subreddit name is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	endpoint := fmt.Sprintf("%s/r/%s/new.json?limit=%d", c.baseURL, url.PathEscape(subreddit), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating listing request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching r/%s listing: %w", subreddit, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden:
		return nil, fmt.Errorf("r/%s is private or quarantined", subreddit)
	case http.StatusNotFound:
		return nil, fmt.Errorf("r/%s does not exist", subreddit)
	default:
		return nil, fmt.Errorf("r/%s listing returned status %d", subreddit, resp.StatusCode)
	}

	var l listing
	if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
		return nil, fmt.Errorf("decoding r/%s listing: %w", subreddit, err)
	}

	submissions := make([]Submission, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		d := child.Data
		submissions = append(submissions, Submission{
			ID:          d.ID,
			Title:       d.Title,
			Body:        d.SelfText,
			Author:      d.Author,
			Subreddit:   d.Subreddit,
			URL:         d.URL,
			Score:       d.Score,
			NumComments: d.NumComments,
			UpvoteRatio: d.UpvoteRatio,
			CreatedUTC:  int64(d.CreatedUTC),
		})
	}

	return submissions, nil
}
