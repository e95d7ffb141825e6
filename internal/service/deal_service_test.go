package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/trovehq/trove_api/internal/models"
)

type fakeDealStore struct {
	products []models.Product
	updates  map[string]models.BestDeal
}

func (f *fakeDealStore) ListApprovedWithLinks() ([]models.Product, error) {
	return f.products, nil
}

func (f *fakeDealStore) UpdateBestDeal(id string, price decimal.Decimal, marketplace string) error {
	if f.updates == nil {
		f.updates = make(map[string]models.BestDeal)
	}
	f.updates[id] = models.BestDeal{Marketplace: marketplace, Price: price}
	return nil
}

func TestRefreshBestDeals(t *testing.T) {
	product := models.Product{
		ID:   "p1",
		Name: "skillet",
		Links: models.LinkMap{
			"amazon": "https://amazon.example/p1",
			"ebay":   "https://ebay.example/p1",
		},
		Status: models.StatusApproved,
	}
	store := &fakeDealStore{products: []models.Product{product}}
	search := newTestService(
		&fakeLookup{name: "amazon", results: []models.SearchResult{offer("amazon", 40), offer("amazon", 35)}},
		&fakeLookup{name: "ebay", results: []models.SearchResult{offer("ebay", 37)}},
	)
	svc := NewDealService(store, search)

	if err := svc.RefreshBestDeals(context.Background()); err != nil {
		t.Fatalf("RefreshBestDeals failed: %v", err)
	}

	deal, ok := store.updates["p1"]
	if !ok {
		t.Fatal("expected a cached best deal for p1")
	}
	// Amazon's lowest observation (35) beats ebay's (37).
	if deal.Marketplace != "amazon" {
		t.Errorf("expected amazon, got %s", deal.Marketplace)
	}
	if !deal.Price.Equal(decimal.NewFromInt(35)) {
		t.Errorf("expected price 35, got %s", deal.Price)
	}
	// The cached marketplace must be a key of the product's link map.
	if _, ok := product.Links[deal.Marketplace]; !ok {
		t.Errorf("best deal marketplace %q not present in links", deal.Marketplace)
	}
}

func TestRefreshBestDeals_SkipsProductsWithoutObservations(t *testing.T) {
	store := &fakeDealStore{products: []models.Product{{
		ID:     "p1",
		Name:   "obscure",
		Links:  models.LinkMap{"bespoke-shop": "https://shop.example/p"},
		Status: models.StatusApproved,
	}}}
	// No lookup registered for the linked marketplace.
	svc := NewDealService(store, newTestService())

	if err := svc.RefreshBestDeals(context.Background()); err != nil {
		t.Fatalf("RefreshBestDeals failed: %v", err)
	}
	if len(store.updates) != 0 {
		t.Errorf("expected no best deal updates, got %v", store.updates)
	}
}
