package repository

import (
	"github.com/jmoiron/sqlx"

	"github.com/trovehq/trove_api/internal/models"
)

// AffiliateClickRepository persists outbound click events.
type AffiliateClickRepository struct {
	db *sqlx.DB
}

// NewAffiliateClickRepository creates a new AffiliateClickRepository.
func NewAffiliateClickRepository(db *sqlx.DB) *AffiliateClickRepository {
	return &AffiliateClickRepository{db: db}
}

// InsertBatch writes a batch of click events in a single transaction.
func (r *AffiliateClickRepository) InsertBatch(clicks []models.AffiliateClick) error {
	if len(clicks) == 0 {
		return nil
	}

	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `
        INSERT INTO affiliate_clicks (tracking_id, product_id, marketplace, target_url, clicked_at)
        VALUES ($1, $2, $3, $4, $5)`
	for _, c := range clicks {
		if _, err := tx.Exec(q, c.TrackingID, c.ProductID, c.Marketplace, c.TargetURL, c.ClickedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CountByMarketplace returns click totals grouped by marketplace.
func (r *AffiliateClickRepository) CountByMarketplace() (map[string]int, error) {
	rows, err := r.db.Queryx(`SELECT marketplace, COUNT(1) FROM affiliate_clicks GROUP BY marketplace`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var marketplace string
		var n int
		if err := rows.Scan(&marketplace, &n); err != nil {
			return nil, err
		}
		counts[marketplace] = n
	}
	return counts, rows.Err()
}
