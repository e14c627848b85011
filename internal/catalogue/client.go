// Package catalogue provides the read-only client for the remote book
// catalogue (OpenLibrary) and the client-side filtering applied on top of
// fetched results.
package catalogue

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avelkine/edushelf/internal/entities"
)

// searchFields is the field-selection list sent with every search request.
const searchFields = "key,title,author_name,cover_i,first_publish_year,subject,isbn,publisher"

// Client issues queries against the catalogue search and work-detail
// endpoints.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	userAgent    string
	defaultQuery string
	maxResults   int
}

type Config struct {
	BaseURL      string
	UserAgent    string
	DefaultQuery string // Used when a search term is empty
	MaxResults   int    // Result-count cap, at most 40 upstream
	Timeout      time.Duration
}

func NewClient(cfg Config) *Client {
	if cfg.DefaultQuery == "" {
		cfg.DefaultQuery = "education"
	}
	if cfg.MaxResults <= 0 || cfg.MaxResults > 40 {
		cfg.MaxResults = 40
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Client{
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		baseURL:      cfg.BaseURL,
		userAgent:    cfg.UserAgent,
		defaultQuery: cfg.DefaultQuery,
		maxResults:   cfg.MaxResults,
	}
}

// Search queries the catalogue for the given free-text term, defaulting the
// term when empty, and maps the response documents to Book records.
func (c *Client) Search(ctx context.Context, term string) ([]entities.Book, error) {
	if strings.TrimSpace(term) == "" {
		term = c.defaultQuery
	}

	searchURL := fmt.Sprintf("%s/search.json?q=%s&limit=%d&fields=%s",
		c.baseURL, url.QueryEscape(term), c.maxResults, searchFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search books: %s", errorReason(resp))
	}

	var result searchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	books := make([]entities.Book, 0, len(result.Docs))
	for _, doc := range result.Docs {
		books = append(books, entities.Book(doc))
	}
	return books, nil
}

// FetchDetail fetches a single work's description. Any leading work-namespace
// prefix on the key is stripped before being sent upstream.
func (c *Client) FetchDetail(ctx context.Context, key string) (*entities.BookDetail, error) {
	workKey := strings.TrimPrefix(key, "/works/")

	detailURL := fmt.Sprintf("%s/works/%s.json", c.baseURL, workKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, detailURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch detail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch detail: %s", errorReason(resp))
	}

	var work workRecord
	if err := json.NewDecoder(resp.Body).Decode(&work); err != nil {
		return nil, fmt.Errorf("decode detail response: %w", err)
	}

	return &entities.BookDetail{
		Key:         key,
		Description: work.description(),
	}, nil
}

// errorReason extracts a best-effort human-readable message from a non-200
// response body, falling back to the status line.
func errorReason(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(body) > 0 {
		var payload struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &payload) == nil {
			if payload.Message != "" {
				return payload.Message
			}
			if payload.Error != "" {
				return payload.Error
			}
		}
	}
	return fmt.Sprintf("unexpected status: %d", resp.StatusCode)
}

// Catalogue API response types (internal)

type searchResult struct {
	NumFound int         `json:"numFound"`
	Docs     []searchDoc `json:"docs"`
}

type searchDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorNames      []string `json:"author_name"`
	CoverID          int      `json:"cover_i"`
	FirstPublishYear int      `json:"first_publish_year"`
	Subjects         []string `json:"subject"`
	ISBNs            []string `json:"isbn"`
	Publishers       []string `json:"publisher"`
}

type workRecord struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description any    `json:"description"` // Can be string or {type, value}
}

func (w workRecord) description() string {
	switch v := w.Description.(type) {
	case string:
		return v
	case map[string]any:
		if val, ok := v["value"].(string); ok {
			return val
		}
	}
	return ""
}
