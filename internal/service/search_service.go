package service

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/trovehq/trove_api/internal/metrics"
	"github.com/trovehq/trove_api/internal/models"
	"github.com/trovehq/trove_api/internal/utils"
	"github.com/trovehq/trove_api/pkg/marketplace"
)

// MarketplaceLookup queries a single marketplace for offers matching a query.
// Implementations wrap the real marketplace gateway client; tests supply doubles.
type MarketplaceLookup interface {
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
}

// clientLookup adapts the marketplace gateway client to one named marketplace.
type clientLookup struct {
	client *marketplace.Client
	name   string
}

// NewClientLookup wraps a gateway client as a MarketplaceLookup for one marketplace.
func NewClientLookup(client *marketplace.Client, name string) MarketplaceLookup {
	return &clientLookup{client: client, name: name}
}

func (l *clientLookup) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	offers, err := l.client.Search(ctx, l.name, query)
	if err != nil {
		return nil, err
	}
	results := make([]models.SearchResult, 0, len(offers))
	for _, o := range offers {
		results = append(results, models.SearchResult{
			Title:       o.Title,
			Price:       o.Price,
			URL:         o.URL,
			Marketplace: l.name,
			Image:       o.Image,
			Rating:      o.Rating,
			Reviews:     o.Reviews,
		})
	}
	return results, nil
}

// SearchService fans a free-text query out to every registered marketplace and
// merges the offers into a single price-sorted list. Individual marketplace
// failures are isolated: a failed lookup contributes zero results and never
// fails the overall search.
type SearchService struct {
	names   []string
	lookups map[string]MarketplaceLookup

	minQueryLen           int
	submissionMinQueryLen int
}

// NewSearchService constructs a SearchService with the given per-call-site
// minimum query lengths.
func NewSearchService(minQueryLen, submissionMinQueryLen int) *SearchService {
	return &SearchService{
		lookups:               make(map[string]MarketplaceLookup),
		minQueryLen:           minQueryLen,
		submissionMinQueryLen: submissionMinQueryLen,
	}
}

// RegisterMarketplace adds a marketplace lookup. Registration order determines
// merge order for equal prices.
func (s *SearchService) RegisterMarketplace(name string, lookup MarketplaceLookup) {
	name = strings.ToLower(name)
	if _, exists := s.lookups[name]; !exists {
		s.names = append(s.names, name)
	}
	s.lookups[name] = lookup
}

// Marketplaces returns the registered marketplace names in registration order.
func (s *SearchService) Marketplaces() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Search runs a top-level search. Queries shorter than the top-level minimum
// are rejected before any marketplace is contacted.
func (s *SearchService) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	// Length is counted in characters; a two-rune CJK query must not pass a
	// three-character minimum just because it spans six bytes.
	if utf8.RuneCountInString(query) < s.minQueryLen {
		return nil, utils.ErrInvalidQuery
	}
	return s.fanOut(ctx, query), nil
}

// SearchForSubmission runs a search on behalf of the submission form, which
// accepts a shorter minimum query than the top-level search box.
func (s *SearchService) SearchForSubmission(ctx context.Context, query string) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < s.submissionMinQueryLen {
		return nil, utils.ErrInvalidQuery
	}
	return s.fanOut(ctx, query), nil
}

// fanOut issues one lookup per marketplace concurrently and merges all
// settled results sorted ascending by price. It waits for every branch;
// it never races-and-returns-first.
func (s *SearchService) fanOut(ctx context.Context, query string) []models.SearchResult {
	branches := make([][]models.SearchResult, len(s.names))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range s.names {
		i, name := i, name
		lookup := s.lookups[name]
		g.Go(func() error {
			results, err := lookup.Search(gctx, query)
			metrics.RecordMarketplaceLookup(name, err)
			if err != nil {
				// Branch failure is isolated: log and contribute nothing.
				log.Warn().Err(err).Str("marketplace", name).Msg("Marketplace lookup failed")
				return nil
			}
			branches[i] = results
			return nil
		})
	}
	_ = g.Wait() // branches never return errors

	merged := make([]models.SearchResult, 0)
	for _, branch := range branches {
		merged = append(merged, branch...)
	}

	// Stable: equal prices keep registration order, then per-branch order.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Price.LessThan(merged[j].Price)
	})
	return merged
}

// BestDeal returns the offer with the strict minimum price; ties are broken by
// first-encountered order. Returns nil for an empty result set.
func BestDeal(results []models.SearchResult) *models.BestDeal {
	if len(results) == 0 {
		return nil
	}
	best := results[0]
	for _, r := range results[1:] {
		if r.Price.LessThan(best.Price) {
			best = r
		}
	}
	return &models.BestDeal{
		Marketplace: best.Marketplace,
		Price:       best.Price,
		URL:         best.URL,
	}
}

// BestDealForLinks picks the cheapest marketplace among a product's link map
// given observed prices per marketplace. Link keys are visited in sorted order
// so tie-breaking is deterministic; keys without an observed price are
// skipped. A product with no links has no best deal.
func BestDealForLinks(links models.LinkMap, prices map[string]decimal.Decimal) *models.BestDeal {
	if len(links) == 0 {
		return nil
	}

	keys := make([]string, 0, len(links))
	for k := range links {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var best *models.BestDeal
	for _, k := range keys {
		price, ok := prices[k]
		if !ok {
			continue
		}
		if best == nil || price.LessThan(best.Price) {
			best = &models.BestDeal{Marketplace: k, Price: price, URL: links[k]}
		}
	}
	return best
}

// RefineOptions are pure client-side filters applied over a merged result set.
// Zero values mean "no constraint".
type RefineOptions struct {
	Category    string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	MinRating   *decimal.Decimal
	Marketplace string
	Sort        models.ResultSort
}

// Refine filters and re-sorts a result list. It is pure and idempotent:
// refining an already-refined list with the same options returns an
// identical list.
func Refine(results []models.SearchResult, opts RefineOptions) []models.SearchResult {
	out := make([]models.SearchResult, 0, len(results))
	for _, r := range results {
		if opts.Category != "" && !strings.Contains(strings.ToLower(r.Title), strings.ToLower(opts.Category)) {
			continue
		}
		if opts.MinPrice != nil && r.Price.LessThan(*opts.MinPrice) {
			continue
		}
		if opts.MaxPrice != nil && r.Price.GreaterThan(*opts.MaxPrice) {
			continue
		}
		if opts.MinRating != nil && (r.Rating == nil || r.Rating.LessThan(*opts.MinRating)) {
			continue
		}
		if opts.Marketplace != "" && r.Marketplace != opts.Marketplace {
			continue
		}
		out = append(out, r)
	}

	switch opts.Sort {
	case models.SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	case models.SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.GreaterThan(out[j].Price) })
	case models.SortRatingDesc:
		sort.SliceStable(out, func(i, j int) bool { return ratingOf(out[i]).GreaterThan(ratingOf(out[j])) })
	case models.SortReviewsDesc:
		sort.SliceStable(out, func(i, j int) bool { return reviewsOf(out[i]) > reviewsOf(out[j]) })
	default:
		// relevance: keep incoming order
	}
	return out
}

func ratingOf(r models.SearchResult) decimal.Decimal {
	if r.Rating == nil {
		return decimal.Zero
	}
	return *r.Rating
}

func reviewsOf(r models.SearchResult) int {
	if r.Reviews == nil {
		return 0
	}
	return *r.Reviews
}
