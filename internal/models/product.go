package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// ProductStatus enumerates the moderation lifecycle of a product.
type ProductStatus string

const (
	StatusPending  ProductStatus = "pending"
	StatusApproved ProductStatus = "approved"
	StatusRejected ProductStatus = "rejected"
)

// SortKey enumerates the supported catalog sort fields.
type SortKey string

const (
	SortByRating  SortKey = "rating"
	SortByPrice   SortKey = "price"
	SortByReviews SortKey = "reviews"
)

// Valid reports whether s is a recognized sort key.
func (s SortKey) Valid() bool {
	switch s {
	case SortByRating, SortByPrice, SortByReviews:
		return true
	}
	return false
}

// CategoryCommunity is a pseudo-category: it applies no category filter and
// forces a reviews-descending sort regardless of the requested sort key.
const CategoryCommunity = "Community"

// LinkMap maps a lower-cased marketplace name to the product URL on that
// marketplace. Stored as JSONB. Keys are an open set; new marketplaces can
// appear per product.
type LinkMap map[string]string

// Value implements driver.Valuer for JSONB storage.
func (m LinkMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *LinkMap) Scan(src interface{}) error {
	if src == nil {
		*m = LinkMap{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into LinkMap", src)
	}
	return json.Unmarshal(b, m)
}

// Product represents a catalog entry. The identifier is assigned at creation
// and never changes. Fields are tagged for both DB scanning and JSON output.
type Product struct {
	ID          string          `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Category    string          `db:"category" json:"category"`
	Tags        pq.StringArray  `db:"tags" json:"tags"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Rating      decimal.Decimal `db:"rating" json:"rating"`
	Reviews     int             `db:"reviews" json:"reviews"`
	Links       LinkMap         `db:"links" json:"links"`

	// Cached best deal, refreshed by the deal sync worker. When set, the
	// marketplace must be a key present in Links.
	BestPrice       *decimal.Decimal `db:"best_price" json:"bestPrice,omitempty"`
	BestMarketplace *string          `db:"best_marketplace" json:"bestMarketplace,omitempty"`

	Status         ProductStatus `db:"status" json:"status"`
	SubmittedAt    time.Time     `db:"submitted_at" json:"submittedAt"`
	ApprovedAt     *time.Time    `db:"approved_at" json:"approvedAt,omitempty"`
	ModerationNote *string       `db:"moderation_note" json:"moderationNote,omitempty"`
}

// Page is one fixed-size slice of the catalog for a (sort, category) query.
// NextCursor is nil once the end of the catalog has been reached.
type Page struct {
	Products   []Product `json:"products"`
	NextCursor *int      `json:"nextCursor"`
	Total      int       `json:"total"`
}
