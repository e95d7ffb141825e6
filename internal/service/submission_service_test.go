package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/trovehq/trove_api/internal/models"
	"github.com/trovehq/trove_api/internal/utils"
)

type fakeSubmissionStore struct {
	created []*models.Product
	err     error
}

func (f *fakeSubmissionStore) Create(p *models.Product) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, p)
	return nil
}

func TestSubmit_CreatesPendingProduct(t *testing.T) {
	store := &fakeSubmissionStore{}
	svc := NewSubmissionService(store, newTestService())

	p, err := svc.Submit(context.Background(), SubmitInput{
		Name:     "  Cast Iron Skillet ",
		Category: "Kitchen",
		Price:    decimal.NewFromInt(35),
		Tags:     []string{"Cooking", "cooking", " kitchen ", ""},
		Links:    map[string]string{"Amazon": "https://amazon.example/p", "": "x", "ebay": " "},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if p.ID == "" {
		t.Error("expected an assigned product id")
	}
	if p.Status != models.StatusPending {
		t.Errorf("expected pending status, got %s", p.Status)
	}
	if p.Name != "Cast Iron Skillet" {
		t.Errorf("expected trimmed name, got %q", p.Name)
	}
	if len(p.Tags) != 2 {
		t.Errorf("expected deduplicated tags [cooking kitchen], got %v", p.Tags)
	}
	if len(p.Links) != 1 || p.Links["amazon"] == "" {
		t.Errorf("expected lower-cased amazon link only, got %v", p.Links)
	}
	if p.ApprovedAt != nil || p.ModerationNote != nil {
		t.Error("a fresh submission must not carry moderation fields")
	}
	if len(store.created) != 1 {
		t.Fatalf("expected 1 stored product, got %d", len(store.created))
	}
}

func TestSubmit_Validation(t *testing.T) {
	svc := NewSubmissionService(&fakeSubmissionStore{}, newTestService())

	cases := []struct {
		name string
		in   SubmitInput
	}{
		{"missing name", SubmitInput{Category: "Kitchen"}},
		{"missing category", SubmitInput{Name: "Skillet"}},
		{"negative price", SubmitInput{Name: "Skillet", Category: "Kitchen", Price: decimal.NewFromInt(-1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Submit(context.Background(), tc.in); !errors.Is(err, utils.ErrInvalidSubmission) {
				t.Errorf("expected ErrInvalidSubmission, got %v", err)
			}
		})
	}
}

func TestSubmit_PrefillsLinksFromQuery(t *testing.T) {
	ebay := &fakeLookup{name: "ebay", results: []models.SearchResult{offer("ebay", 20)}}
	amazon := &fakeLookup{name: "amazon", results: []models.SearchResult{offer("amazon", 25)}}
	svc := NewSubmissionService(&fakeSubmissionStore{}, newTestService(ebay, amazon))

	p, err := svc.Submit(context.Background(), SubmitInput{
		Name:     "Skillet",
		Category: "Kitchen",
		Query:    "tv", // submission form allows 2-character queries
		Links:    map[string]string{"amazon": "https://amazon.example/own"},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// Submitted link wins; the missing marketplace is prefilled from search.
	if p.Links["amazon"] != "https://amazon.example/own" {
		t.Errorf("submitted link was overwritten: %s", p.Links["amazon"])
	}
	if p.Links["ebay"] == "" {
		t.Errorf("expected prefilled ebay link, got %v", p.Links)
	}
}

func TestSubmit_ShortQueryRejectedBeforeLookup(t *testing.T) {
	amazon := &fakeLookup{name: "amazon"}
	svc := NewSubmissionService(&fakeSubmissionStore{}, newTestService(amazon))

	_, err := svc.Submit(context.Background(), SubmitInput{
		Name:     "Skillet",
		Category: "Kitchen",
		Query:    "x",
	})
	if !errors.Is(err, utils.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
	if amazon.calls != 0 {
		t.Errorf("short query must not contact marketplaces, got %d calls", amazon.calls)
	}
}
