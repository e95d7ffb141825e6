package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/trovehq/trove_api/internal/models"
)

// ProductRepository handles data access for products.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// orderClause maps a sort key to a SQL ORDER BY expression. The secondary
// keys keep ordering stable: products with equal sort values stay in catalog
// (submission) order across repeated queries.
func orderClause(sort models.SortKey) string {
	switch sort {
	case models.SortByPrice:
		return "price ASC, submitted_at ASC, id ASC"
	case models.SortByReviews:
		return "reviews DESC, submitted_at ASC, id ASC"
	default:
		return "rating DESC, submitted_at ASC, id ASC"
	}
}

// ListApprovedPage returns one page of approved products with an exact
// case-sensitive category match (empty category = no filter), plus the total
// count for the same filter.
func (r *ProductRepository) ListApprovedPage(category string, sort models.SortKey, offset, limit int) ([]models.Product, int, error) {
	const baseWhere = `WHERE status = 'approved' AND ($1 = '' OR category = $1)`

	var total int
	if err := r.db.Get(&total, `SELECT COUNT(1) FROM products `+baseWhere, category); err != nil {
		return nil, 0, err
	}

	listQuery := fmt.Sprintf(
		`SELECT * FROM products %s ORDER BY %s LIMIT $2 OFFSET $3`,
		baseWhere, orderClause(sort),
	)
	var products []models.Product
	if err := r.db.Select(&products, listQuery, category, limit, offset); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// GetByID returns a single product by id.
func (r *ProductRepository) GetByID(id string) (*models.Product, error) {
	const q = `SELECT * FROM products WHERE id = $1 LIMIT 1`
	var p models.Product
	if err := r.db.Get(&p, q, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a new product and fills in its submission timestamp.
func (r *ProductRepository) Create(p *models.Product) error {
	const q = `
        INSERT INTO products (id, name, description, category, tags, price, rating, reviews, links, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING submitted_at`

	return r.db.QueryRowx(q,
		p.ID,
		p.Name,
		p.Description,
		p.Category,
		p.Tags,
		p.Price,
		p.Rating,
		p.Reviews,
		p.Links,
		p.Status,
	).Scan(&p.SubmittedAt)
}

// ListByStatus returns products in a given lifecycle status, newest first,
// with offset/limit pagination and total count. Used by the moderation queue.
func (r *ProductRepository) ListByStatus(status models.ProductStatus, offset, limit int) ([]models.Product, int, error) {
	var total int
	if err := r.db.Get(&total, `SELECT COUNT(1) FROM products WHERE status = $1`, status); err != nil {
		return nil, 0, err
	}

	const q = `SELECT * FROM products WHERE status = $1 ORDER BY submitted_at DESC, id LIMIT $2 OFFSET $3`
	var products []models.Product
	if err := r.db.Select(&products, q, status, limit, offset); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// SetStatus transitions a product's moderation status and attaches a note.
// approved_at is set only on the pending -> approved transition. Returns the
// number of rows affected so callers can detect a missing or non-pending row.
func (r *ProductRepository) SetStatus(id string, status models.ProductStatus, note string, approvedAt *time.Time) (int64, error) {
	const q = `
        UPDATE products
        SET status = $2, moderation_note = $3, approved_at = COALESCE($4, approved_at)
        WHERE id = $1 AND status = 'pending'`

	res, err := r.db.Exec(q, id, status, note, approvedAt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes a product by id.
func (r *ProductRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM products WHERE id = $1`, id)
	return err
}

// GetDistinctCategories returns all distinct categories across approved products.
func (r *ProductRepository) GetDistinctCategories() ([]string, error) {
	const q = `SELECT DISTINCT category FROM products WHERE status = 'approved' AND category != '' ORDER BY category`
	var categories []string
	if err := r.db.Select(&categories, q); err != nil {
		return nil, err
	}
	return categories, nil
}

// ListApprovedWithLinks returns approved products that have at least one
// marketplace link. Used by the deal sync worker.
func (r *ProductRepository) ListApprovedWithLinks() ([]models.Product, error) {
	const q = `SELECT * FROM products WHERE status = 'approved' AND links != '{}'::jsonb ORDER BY submitted_at`
	var products []models.Product
	if err := r.db.Select(&products, q); err != nil {
		return nil, err
	}
	return products, nil
}

// UpdateBestDeal caches the lowest observed price and its marketplace for a product.
func (r *ProductRepository) UpdateBestDeal(id string, price decimal.Decimal, marketplace string) error {
	const q = `UPDATE products SET best_price = $2, best_marketplace = $3 WHERE id = $1`
	_, err := r.db.Exec(q, id, price, marketplace)
	return err
}
