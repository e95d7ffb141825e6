package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/trovehq/trove_api/internal/models"
	"github.com/trovehq/trove_api/internal/utils"
)

// ProductStore abstracts catalog persistence for the loader.
// *repository.ProductRepository satisfies it; tests use in-memory doubles.
type ProductStore interface {
	ListApprovedPage(category string, sort models.SortKey, offset, limit int) ([]models.Product, int, error)
	GetByID(id string) (*models.Product, error)
	GetDistinctCategories() ([]string, error)
}

// PageCache abstracts the per-query-key page cache.
type PageCache interface {
	GetPage(ctx context.Context, sort models.SortKey, category string, cursor int) (*models.Page, bool, error)
	SetPage(ctx context.Context, sort models.SortKey, category string, cursor int, page *models.Page) error
}

// CatalogService is the paged catalog loader: it presents the approved
// catalog as fixed-size pages for a (sort, category) query, caching pages per
// query key and retrying transient store failures a bounded number of times.
type CatalogService struct {
	store        ProductStore
	cache        PageCache
	pageSize     int
	fetchRetries int
	retryBase    time.Duration

	// Monotonically increasing token per query key. A fetch result is only
	// applied to the cache while its token is still the latest for the key,
	// so an overlapping newer request cannot be shadowed by a stale result.
	mu     sync.Mutex
	tokens map[string]uint64
}

// NewCatalogService constructs a CatalogService. cache may be nil, in which
// case every page is fetched from the store.
func NewCatalogService(store ProductStore, cache PageCache, pageSize, fetchRetries int) *CatalogService {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &CatalogService{
		store:        store,
		cache:        cache,
		pageSize:     pageSize,
		fetchRetries: fetchRetries,
		retryBase:    200 * time.Millisecond,
		tokens:       make(map[string]uint64),
	}
}

// normalizeQuery resolves the effective (sort, category) pair. The
// "Community" pseudo-category drops the category filter and forces a
// reviews-descending sort regardless of the requested key; it subsumes the
// sort choice rather than composing with it.
func normalizeQuery(sort models.SortKey, category string) (models.SortKey, string) {
	if category == models.CategoryCommunity {
		return models.SortByReviews, ""
	}
	return sort, category
}

func queryKey(sort models.SortKey, category string) string {
	return fmt.Sprintf("%s|%s", sort, category)
}

// issueToken records a new request against a query key and returns its token.
func (s *CatalogService) issueToken(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[key]++
	return s.tokens[key]
}

// tokenCurrent reports whether token is still the latest issued for key.
func (s *CatalogService) tokenCurrent(key string, token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[key] == token
}

// LoadPage returns the page of the filtered+sorted approved catalog at
// [cursor*pageSize, cursor*pageSize+pageSize). NextCursor is nil once the end
// of the catalog is reached. Pages are cached per effective query key; store
// failures surface as ErrFetch after bounded retries.
func (s *CatalogService) LoadPage(ctx context.Context, sort models.SortKey, category string, cursor int) (*models.Page, error) {
	if !sort.Valid() {
		return nil, utils.ErrInvalidSortKey
	}
	if cursor < 0 {
		return nil, utils.ErrInvalidCursor
	}

	effSort, effCategory := normalizeQuery(sort, category)
	key := queryKey(effSort, effCategory)
	token := s.issueToken(key)

	if s.cache != nil {
		cached, hit, err := s.cache.GetPage(ctx, effSort, effCategory, cursor)
		if err != nil {
			log.Warn().Err(err).Str("query", key).Msg("Page cache read failed")
		} else if hit {
			return cached, nil
		}
	}

	var products []models.Product
	var total int
	err := utils.Retry(ctx, s.fetchRetries, s.retryBase, func(attempt int) error {
		var ferr error
		products, total, ferr = s.store.ListApprovedPage(effCategory, effSort, cursor*s.pageSize, s.pageSize)
		if ferr != nil && attempt > 0 {
			log.Warn().Err(ferr).Int("attempt", attempt).Str("query", key).Msg("Catalog fetch retry failed")
		}
		return ferr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrFetch, err)
	}

	page := &models.Page{Products: products, Total: total}
	if (cursor+1)*s.pageSize < total {
		next := cursor + 1
		page.NextCursor = &next
	}

	// Stale-result suppression: only the latest request for a key may
	// populate the cache.
	if s.cache != nil && s.tokenCurrent(key, token) {
		if err := s.cache.SetPage(ctx, effSort, effCategory, cursor, page); err != nil {
			log.Warn().Err(err).Str("query", key).Msg("Page cache write failed")
		}
	}
	return page, nil
}

// PageSize returns the fixed page size.
func (s *CatalogService) PageSize() int {
	return s.pageSize
}

// GetProduct returns a single approved or pending product by id.
func (s *CatalogService) GetProduct(id string) (*models.Product, error) {
	p, err := s.store.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

// Categories returns the distinct categories of the approved catalog.
func (s *CatalogService) Categories() ([]string, error) {
	return s.store.GetDistinctCategories()
}
