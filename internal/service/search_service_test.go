package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/trovehq/trove_api/internal/models"
	"github.com/trovehq/trove_api/internal/utils"
)

// fakeLookup is a MarketplaceLookup test double.
type fakeLookup struct {
	name    string
	results []models.SearchResult
	err     error
	calls   int
}

func (f *fakeLookup) Search(_ context.Context, _ string) ([]models.SearchResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func offer(marketplace string, price float64) models.SearchResult {
	return models.SearchResult{
		Title:       "offer",
		Price:       decimal.NewFromFloat(price),
		URL:         "https://" + marketplace + ".example/item",
		Marketplace: marketplace,
	}
}

func newTestService(lookups ...*fakeLookup) *SearchService {
	svc := NewSearchService(3, 2)
	for _, l := range lookups {
		svc.RegisterMarketplace(l.name, l)
	}
	return svc
}

func TestSearch_PartialFailuresAreIsolated(t *testing.T) {
	boom := errors.New("marketplace down")
	lookups := []*fakeLookup{
		{name: "amazon", results: []models.SearchResult{offer("amazon", 42.50), offer("amazon", 19.99)}},
		{name: "ebay", err: boom},
		{name: "walmart", results: []models.SearchResult{offer("walmart", 31.00)}},
		{name: "target", err: boom},
		{name: "bestbuy", results: nil}, // succeeds with zero results
		{name: "homedepot", err: boom},
		{name: "etsy", results: []models.SearchResult{offer("etsy", 12.00), offer("etsy", 55.10), offer("etsy", 19.99)}},
	}
	svc := newTestService(lookups...)

	results, err := svc.Search(context.Background(), "cast iron skillet")
	if err != nil {
		t.Fatalf("partial failure must not fail the search: %v", err)
	}
	if len(results) != 6 {
		t.Fatalf("expected 6 merged results, got %d", len(results))
	}

	// Sorted ascending by numeric price.
	for i := 1; i < len(results); i++ {
		if results[i].Price.LessThan(results[i-1].Price) {
			t.Errorf("results not sorted ascending at %d: %s then %s",
				i, results[i-1].Price, results[i].Price)
		}
	}

	// Equal prices (19.99 from amazon and etsy) keep registration order.
	if results[1].Marketplace != "amazon" || results[2].Marketplace != "etsy" {
		t.Errorf("tied prices lost registration order: got %s then %s",
			results[1].Marketplace, results[2].Marketplace)
	}

	// Every marketplace was queried exactly once.
	for _, l := range lookups {
		if l.calls != 1 {
			t.Errorf("%s: expected 1 lookup call, got %d", l.name, l.calls)
		}
	}
}

func TestSearch_AllBranchesFailingYieldsEmptyList(t *testing.T) {
	boom := errors.New("down")
	svc := newTestService(
		&fakeLookup{name: "amazon", err: boom},
		&fakeLookup{name: "ebay", err: boom},
	)

	results, err := svc.Search(context.Background(), "anything")
	if err != nil {
		t.Fatalf("expected empty list, not error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected 0 results, got %d", len(results))
	}
}

func TestSearch_MinimumQueryLengths(t *testing.T) {
	amazon := &fakeLookup{name: "amazon"}
	svc := newTestService(amazon)

	// Length 1 is rejected everywhere, before any lookup runs.
	if _, err := svc.Search(context.Background(), "x"); !errors.Is(err, utils.ErrInvalidQuery) {
		t.Errorf("Search: expected ErrInvalidQuery, got %v", err)
	}
	if _, err := svc.SearchForSubmission(context.Background(), "x"); !errors.Is(err, utils.ErrInvalidQuery) {
		t.Errorf("SearchForSubmission: expected ErrInvalidQuery, got %v", err)
	}
	if amazon.calls != 0 {
		t.Fatalf("short query must not contact marketplaces, got %d calls", amazon.calls)
	}

	// Length 2: ok for the submission form, too short for top-level search.
	if _, err := svc.SearchForSubmission(context.Background(), "tv"); err != nil {
		t.Errorf("SearchForSubmission(len 2): unexpected error %v", err)
	}
	if _, err := svc.Search(context.Background(), "tv"); !errors.Is(err, utils.ErrInvalidQuery) {
		t.Errorf("Search(len 2): expected ErrInvalidQuery, got %v", err)
	}

	// Whitespace does not count toward the minimum.
	if _, err := svc.Search(context.Background(), "  ab  "); !errors.Is(err, utils.ErrInvalidQuery) {
		t.Errorf("Search(padded len 2): expected ErrInvalidQuery, got %v", err)
	}

	// Length is measured in characters, not bytes: one CJK character is
	// three bytes but still a one-character query.
	amazon.calls = 0
	if _, err := svc.Search(context.Background(), "日"); !errors.Is(err, utils.ErrInvalidQuery) {
		t.Errorf("Search(1 rune): expected ErrInvalidQuery, got %v", err)
	}
	if _, err := svc.SearchForSubmission(context.Background(), "日"); !errors.Is(err, utils.ErrInvalidQuery) {
		t.Errorf("SearchForSubmission(1 rune): expected ErrInvalidQuery, got %v", err)
	}
	if amazon.calls != 0 {
		t.Fatalf("1-rune query must not contact marketplaces, got %d calls", amazon.calls)
	}
	if _, err := svc.Search(context.Background(), "炊飯器"); err != nil {
		t.Errorf("Search(3 runes): unexpected error %v", err)
	}
}

func TestBestDeal_TieBrokenByFirstEncountered(t *testing.T) {
	results := []models.SearchResult{
		offer("amazon", 61),
		offer("ebay", 58),
		offer("target", 58),
	}
	deal := BestDeal(results)
	if deal == nil {
		t.Fatal("expected a best deal")
	}
	if deal.Marketplace != "ebay" {
		t.Errorf("expected ebay (first of tied minimum), got %s", deal.Marketplace)
	}
	if !deal.Price.Equal(decimal.NewFromInt(58)) {
		t.Errorf("expected price 58, got %s", deal.Price)
	}

	if BestDeal(nil) != nil {
		t.Error("expected nil best deal for empty results")
	}
}

func TestBestDealForLinks(t *testing.T) {
	links := models.LinkMap{
		"amazon": "https://amazon.example/p",
		"ebay":   "https://ebay.example/p",
		"target": "https://target.example/p",
	}
	prices := map[string]decimal.Decimal{
		"amazon": decimal.NewFromInt(61),
		"ebay":   decimal.NewFromInt(58),
		"target": decimal.NewFromInt(58),
	}

	deal := BestDealForLinks(links, prices)
	if deal == nil {
		t.Fatal("expected a best deal")
	}
	// Keys are visited in sorted order (amazon, ebay, target); ebay holds the
	// first strict minimum.
	if deal.Marketplace != "ebay" {
		t.Errorf("expected ebay, got %s", deal.Marketplace)
	}
	if deal.URL != links["ebay"] {
		t.Errorf("best deal URL must come from the link map, got %s", deal.URL)
	}

	if BestDealForLinks(models.LinkMap{}, prices) != nil {
		t.Error("a product with no links has no best deal")
	}
	if BestDealForLinks(links, nil) != nil {
		t.Error("no observed prices means no best deal")
	}
}

func TestRefine_FiltersAndIdempotence(t *testing.T) {
	rating := func(v float64) *decimal.Decimal {
		d := decimal.NewFromFloat(v)
		return &d
	}
	results := []models.SearchResult{
		{Title: "Cast Iron Skillet", Price: decimal.NewFromInt(30), Marketplace: "amazon", Rating: rating(4.7)},
		{Title: "Skillet Lid", Price: decimal.NewFromInt(12), Marketplace: "ebay", Rating: rating(3.9)},
		{Title: "Dutch Oven", Price: decimal.NewFromInt(80), Marketplace: "amazon", Rating: rating(4.9)},
		{Title: "Mini Skillet", Price: decimal.NewFromInt(18), Marketplace: "walmart"},
	}

	min := decimal.NewFromInt(15)
	max := decimal.NewFromInt(50)
	opts := RefineOptions{
		Category: "skillet",
		MinPrice: &min,
		MaxPrice: &max,
		Sort:     models.SortPriceAsc,
	}

	once := Refine(results, opts)
	if len(once) != 2 {
		t.Fatalf("expected 2 refined results, got %d", len(once))
	}
	if once[0].Title != "Mini Skillet" || once[1].Title != "Cast Iron Skillet" {
		t.Errorf("unexpected refined order: %s, %s", once[0].Title, once[1].Title)
	}

	twice := Refine(once, opts)
	if !reflect.DeepEqual(once, twice) {
		t.Error("refinement is not idempotent")
	}

	// Minimum rating treats missing ratings as failing the constraint.
	r := RefineOptions{MinRating: rating(4.0)}
	rated := Refine(results, r)
	if len(rated) != 2 {
		t.Fatalf("expected 2 results rated >= 4.0, got %d", len(rated))
	}

	// Exact marketplace filter.
	m := Refine(results, RefineOptions{Marketplace: "amazon"})
	if len(m) != 2 {
		t.Fatalf("expected 2 amazon results, got %d", len(m))
	}

	// Relevance sort keeps incoming order.
	rel := Refine(results, RefineOptions{Sort: models.SortRelevance})
	if rel[0].Title != results[0].Title || rel[3].Title != results[3].Title {
		t.Error("relevance sort must keep incoming order")
	}
}

func TestRefine_SortVariants(t *testing.T) {
	reviews := func(n int) *int { return &n }
	rating := func(v float64) *decimal.Decimal {
		d := decimal.NewFromFloat(v)
		return &d
	}
	results := []models.SearchResult{
		{Title: "a", Price: decimal.NewFromInt(10), Rating: rating(4.0), Reviews: reviews(5)},
		{Title: "b", Price: decimal.NewFromInt(30), Rating: rating(4.8), Reviews: reviews(900)},
		{Title: "c", Price: decimal.NewFromInt(20), Rating: rating(4.4), Reviews: reviews(120)},
	}

	desc := Refine(results, RefineOptions{Sort: models.SortPriceDesc})
	if desc[0].Title != "b" || desc[2].Title != "a" {
		t.Errorf("price_desc: got %s..%s", desc[0].Title, desc[2].Title)
	}
	byRating := Refine(results, RefineOptions{Sort: models.SortRatingDesc})
	if byRating[0].Title != "b" {
		t.Errorf("rating_desc: expected b first, got %s", byRating[0].Title)
	}
	byReviews := Refine(results, RefineOptions{Sort: models.SortReviewsDesc})
	if byReviews[0].Title != "b" || byReviews[2].Title != "a" {
		t.Errorf("reviews_desc: got %s..%s", byReviews[0].Title, byReviews[2].Title)
	}
}
