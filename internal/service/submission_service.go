package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/trovehq/trove_api/internal/models"
	"github.com/trovehq/trove_api/internal/utils"
)

// SubmissionStore persists newly submitted products.
type SubmissionStore interface {
	Create(p *models.Product) error
}

// SubmissionService turns user product recommendations into pending catalog
// entries awaiting moderation.
type SubmissionService struct {
	store  SubmissionStore
	search *SearchService
}

// NewSubmissionService constructs a SubmissionService.
func NewSubmissionService(store SubmissionStore, search *SearchService) *SubmissionService {
	return &SubmissionService{store: store, search: search}
}

// SubmitInput is the payload of a user product recommendation.
type SubmitInput struct {
	Name        string            `json:"name" binding:"required"`
	Description string            `json:"description"`
	Category    string            `json:"category" binding:"required"`
	Tags        []string          `json:"tags"`
	Price       decimal.Decimal   `json:"price"`
	Links       map[string]string `json:"links"`

	// Optional marketplace query used to prefill links for marketplaces the
	// submitter did not provide.
	Query string `json:"query"`
}

// Submit validates the input, optionally prefills marketplace links via the
// aggregator, and stores the product in pending status.
func (s *SubmissionService) Submit(ctx context.Context, in SubmitInput) (*models.Product, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Category) == "" {
		return nil, fmt.Errorf("%w: name and category are required", utils.ErrInvalidSubmission)
	}
	if in.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must be non-negative", utils.ErrInvalidSubmission)
	}

	links := models.LinkMap{}
	for name, u := range in.Links {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || strings.TrimSpace(u) == "" {
			continue
		}
		links[name] = strings.TrimSpace(u)
	}

	if strings.TrimSpace(in.Query) != "" {
		results, err := s.search.SearchForSubmission(ctx, in.Query)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			if _, exists := links[r.Marketplace]; !exists {
				links[r.Marketplace] = r.URL
			}
		}
	}

	p := &models.Product{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Tags:        dedupeTags(in.Tags),
		Price:       in.Price,
		Rating:      decimal.Zero,
		Reviews:     0,
		Links:       links,
		Status:      models.StatusPending,
	}

	if err := s.store.Create(p); err != nil {
		return nil, err
	}

	log.Info().Str("product_id", p.ID).Str("category", p.Category).Msg("Product submission received")
	return p, nil
}

// dedupeTags trims, lowercases and deduplicates tags, preserving first-seen order.
func dedupeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
