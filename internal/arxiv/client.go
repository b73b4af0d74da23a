package arxiv

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"arxivmon/internal/models"
	"arxivmon/internal/providers"
	"arxivmon/internal/structures"
)

const (
	DefaultBaseURL = "http://export.arxiv.org/api/query"

	userAgent = "arxivmon/1.0 (paper monitor)"
)

type ClientInterface interface {
	FetchCategory(ctx context.Context, category string, maxResults int) ([]models.Paper, error)
}

// Client queries the arXiv export API for the most recently updated
// submissions of one category and parses the Atom response. Queries are
// spaced by a rate limiter; arXiv asks clients to leave ~3 seconds
// between requests.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  providers.Logger
}

func NewClient(conf *structures.Config, logger providers.Logger) ClientInterface {
	baseURL := conf.Fetch.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := conf.Fetch.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	delay := conf.Fetch.QueryDelay
	if delay <= 0 {
		delay = 3 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Every(delay), 1),
		logger:  logger,
	}
}

func (c *Client) FetchCategory(ctx context.Context, category string, maxResults int) ([]models.Paper, error) {
	if maxResults <= 0 {
		maxResults = models.DefaultMaxResults
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	q := url.Values{}
	q.Set("search_query", "cat:"+category)
	q.Set("start", "0")
	q.Set("max_results", strconv.Itoa(maxResults))
	q.Set("sortBy", "lastUpdatedDate")
	q.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build query for %s: %w", category, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", category, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("query %s: unexpected status %d", category, resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s feed: %w", category, err)
	}

	fetchedAt := time.Now().UTC()
	papers := make([]models.Paper, 0, len(feed.Items))
	for _, item := range feed.Items {
		paper, ok := convertItem(item, fetchedAt)
		if !ok {
			c.logger.Warnf(providers.TypeFetch, "skipping malformed entry in %s: %q", category, itemLabel(item))
			continue
		}
		papers = append(papers, paper)
	}

	return papers, nil
}

// convertItem maps one Atom entry to a Paper. Entries missing the id,
// title or either timestamp are reported as malformed.
func convertItem(item *gofeed.Item, fetchedAt time.Time) (models.Paper, bool) {
	if item == nil {
		return models.Paper{}, false
	}

	id := paperID(item.GUID)
	if id == "" || item.Title == "" || item.PublishedParsed == nil || item.UpdatedParsed == nil {
		return models.Paper{}, false
	}

	authors := make([]string, 0, len(item.Authors))
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			authors = append(authors, a.Name)
		}
	}

	return models.Paper{
		ID:         id,
		Title:      cleanText(item.Title),
		Abstract:   cleanText(item.Description),
		Authors:    authors,
		Categories: item.Categories,
		Published:  item.PublishedParsed.UTC(),
		Updated:    item.UpdatedParsed.UTC(),
		ArxivURL:   "https://arxiv.org/abs/" + id,
		PdfURL:     "https://arxiv.org/pdf/" + id + ".pdf",
		FetchedAt:  fetchedAt,
	}, true
}

// paperID extracts the arXiv identifier from an Atom entry id like
// http://arxiv.org/abs/2301.00001v1.
func paperID(atomID string) string {
	idx := strings.LastIndex(atomID, "/abs/")
	if idx < 0 {
		return ""
	}
	return atomID[idx+len("/abs/"):]
}

var whitespace = regexp.MustCompile(`\s+`)

// cleanText collapses the newlines and indentation arXiv embeds in
// titles and abstracts.
func cleanText(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

func itemLabel(item *gofeed.Item) string {
	if item == nil {
		return "<nil entry>"
	}
	if item.GUID != "" {
		return item.GUID
	}
	return item.Title
}
