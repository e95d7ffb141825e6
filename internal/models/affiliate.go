package models

import "time"

// AffiliateClick records one outbound purchase click. Clicks are buffered in
// memory and flushed to the database in batches by the click flush worker.
type AffiliateClick struct {
	ID          int       `db:"id" json:"id"`
	TrackingID  string    `db:"tracking_id" json:"trackingId"`
	ProductID   *string   `db:"product_id" json:"productId,omitempty"`
	Marketplace string    `db:"marketplace" json:"marketplace"`
	TargetURL   string    `db:"target_url" json:"targetUrl"`
	ClickedAt   time.Time `db:"clicked_at" json:"clickedAt"`
}
