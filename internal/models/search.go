package models

import "github.com/shopspring/decimal"

// SearchResult is one offer returned by a marketplace lookup. It is ephemeral:
// it has no stable identifier and no lifecycle, and is never persisted.
type SearchResult struct {
	Title       string           `json:"title"`
	Price       decimal.Decimal  `json:"price"`
	URL         string           `json:"url"`
	Marketplace string           `json:"marketplace"`
	Image       string           `json:"image,omitempty"`
	Rating      *decimal.Decimal `json:"rating,omitempty"`
	Reviews     *int             `json:"reviews,omitempty"`
}

// BestDeal identifies the cheapest known offer for a product.
type BestDeal struct {
	Marketplace string          `json:"marketplace"`
	Price       decimal.Decimal `json:"price"`
	URL         string          `json:"url,omitempty"`
}

// ResultSort enumerates client-side re-sort options for refined search results.
type ResultSort string

const (
	SortRelevance   ResultSort = "relevance"
	SortPriceAsc    ResultSort = "price_asc"
	SortPriceDesc   ResultSort = "price_desc"
	SortRatingDesc  ResultSort = "rating_desc"
	SortReviewsDesc ResultSort = "reviews_desc"
)
