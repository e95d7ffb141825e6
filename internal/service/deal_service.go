package service

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/trovehq/trove_api/internal/models"
)

// DealStore provides the persistence operations best-deal refresh needs.
type DealStore interface {
	ListApprovedWithLinks() ([]models.Product, error)
	UpdateBestDeal(id string, price decimal.Decimal, marketplace string) error
}

// DealService recomputes the cached lowest price per product by querying the
// marketplaces the product is linked on.
type DealService struct {
	store  DealStore
	search *SearchService
}

// NewDealService constructs a DealService.
func NewDealService(store DealStore, search *SearchService) *DealService {
	return &DealService{store: store, search: search}
}

// RefreshBestDeals walks every approved product with marketplace links,
// observes current prices, and caches the lowest price and its marketplace.
// Per-product failures are logged and skipped so one bad product cannot stall
// the whole refresh.
func (s *DealService) RefreshBestDeals(ctx context.Context) error {
	products, err := s.store.ListApprovedWithLinks()
	if err != nil {
		return err
	}

	refreshed := 0
	for _, p := range products {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		prices := s.observePrices(ctx, p)
		deal := BestDealForLinks(p.Links, prices)
		if deal == nil {
			continue
		}

		if err := s.store.UpdateBestDeal(p.ID, deal.Price, deal.Marketplace); err != nil {
			log.Warn().Err(err).Str("product_id", p.ID).Msg("Failed to cache best deal")
			continue
		}
		refreshed++
	}

	log.Info().Int("products", len(products)).Int("refreshed", refreshed).Msg("Best deal refresh completed")
	return nil
}

// observePrices queries each linked marketplace for the product by name and
// records the lowest offered price per marketplace. Lookup failures and
// unregistered marketplaces contribute no observation.
func (s *DealService) observePrices(ctx context.Context, p models.Product) map[string]decimal.Decimal {
	prices := make(map[string]decimal.Decimal, len(p.Links))
	for name := range p.Links {
		lookup, ok := s.search.lookups[name]
		if !ok {
			continue
		}
		results, err := lookup.Search(ctx, p.Name)
		if err != nil || len(results) == 0 {
			continue
		}
		min := results[0].Price
		for _, r := range results[1:] {
			if r.Price.LessThan(min) {
				min = r.Price
			}
		}
		prices[name] = min
	}
	return prices
}
