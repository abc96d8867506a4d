package sources

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/cuemarkapp/cuemark-server/internal/domain"
	"github.com/cuemarkapp/cuemark-server/internal/id"
	"github.com/cuemarkapp/cuemark-server/internal/ratelimit"
)

const (
	// Rate limit: 1 request per second, burst of 3. The catalog is a shared
	// public service; be polite.
	catalogRPS   = 1.0
	catalogBurst = 3

	defaultCatalogTimeout = 10 * time.Second
)

// ASIN format: 10 alphanumeric characters, typically starting with B.
var asinRegex = regexp.MustCompile(`^[A-Z0-9]{10}$`)

// ValidateASIN checks if an ASIN has valid format.
func ValidateASIN(asin string) bool {
	return asinRegex.MatchString(asin)
}

// CatalogClient is a rate-limited client for an external chapter catalog
// exposing audnexus-style endpoints. An empty base URL disables the source.
type CatalogClient struct {
	baseURL string
	http    *http.Client
	limiter *ratelimit.KeyedLimiter
	logger  *slog.Logger
}

// NewCatalogClient creates a catalog client. timeout <= 0 uses the default.
func NewCatalogClient(baseURL string, timeout time.Duration, logger *slog.Logger) *CatalogClient {
	if timeout <= 0 {
		timeout = defaultCatalogTimeout
	}
	return &CatalogClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		limiter: ratelimit.New(catalogRPS, catalogBurst),
		logger:  logger,
	}
}

// Enabled reports whether a catalog base URL is configured.
func (c *CatalogClient) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// Close releases resources held by the client.
func (c *CatalogClient) Close() {
	c.limiter.Stop()
}

type rawCatalogChapter struct {
	Title         string `json:"title"`
	StartOffsetMs int64  `json:"startOffsetMs"`
	LengthMs      int64  `json:"lengthMs"`
}

// Chapters fetches the catalog chapter list for a book by ASIN and converts
// it into a ChapterSource.
func (c *CatalogClient) Chapters(ctx context.Context, book *domain.Book) (*domain.ChapterSource, error) {
	if !c.Enabled() {
		return nil, wrapError("catalog", book.ID, ErrDisabled)
	}
	if !ValidateASIN(book.ASIN) {
		return nil, wrapError("catalog", book.ID, ErrInvalidASIN)
	}

	if err := c.limiter.Wait(ctx, "catalog"); err != nil {
		return nil, wrapError("catalog", book.ID, fmt.Errorf("rate limit wait: %w", err))
	}

	body, err := c.get(ctx, c.baseURL+"/books/"+book.ASIN+"/chapters")
	if err != nil {
		return nil, wrapError("catalog", book.ID, err)
	}

	var resp struct {
		ASIN     string              `json:"asin"`
		Chapters []rawCatalogChapter `json:"chapters"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, wrapError("catalog", book.ID, fmt.Errorf("parse response: %w", err))
	}
	if len(resp.Chapters) == 0 {
		return nil, wrapError("catalog", book.ID, ErrNoChapters)
	}

	cues := make([]domain.SourceCue, 0, len(resp.Chapters))
	for _, ch := range resp.Chapters {
		cues = append(cues, domain.SourceCue{
			Timestamp: float64(ch.StartOffsetMs) / 1000.0,
			Title:     ch.Title,
		})
	}

	sourceID, err := id.Generate("src")
	if err != nil {
		return nil, wrapError("catalog", book.ID, err)
	}

	return &domain.ChapterSource{
		ID:        sourceID,
		BookID:    book.ID,
		Kind:      domain.SourceCatalog,
		Name:      "Catalog chapters",
		ShortName: "Catalog",
		Cues:      withAnchor(cues),
		FetchedAt: time.Now(),
	}, nil
}

func (c *CatalogClient) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "CueMark/1.0")

	if c.logger != nil {
		c.logger.Debug("catalog request", "url", url)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusBadRequest:
		return nil, ErrBadRequest
	default:
		if resp.StatusCode >= 500 {
			return nil, ErrServer
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
}
