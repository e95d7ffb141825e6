package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/trovehq/trove_api/internal/models"
	"github.com/trovehq/trove_api/internal/utils"
)

// ModerationStore provides the persistence operations moderation needs.
type ModerationStore interface {
	GetByID(id string) (*models.Product, error)
	ListByStatus(status models.ProductStatus, offset, limit int) ([]models.Product, int, error)
	SetStatus(id string, status models.ProductStatus, note string, approvedAt *time.Time) (int64, error)
	Delete(id string) error
}

// CacheInvalidator drops cached catalog pages after the approved catalog changes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// ModerationService transitions pending products to approved or rejected.
// Only pending products can be moderated; moderation attaches a note and, on
// approval, an approval timestamp.
type ModerationService struct {
	store ModerationStore
	cache CacheInvalidator
}

// NewModerationService constructs a ModerationService. cache may be nil.
func NewModerationService(store ModerationStore, cache CacheInvalidator) *ModerationService {
	return &ModerationService{store: store, cache: cache}
}

// PendingQueue lists products awaiting moderation, newest first.
func (s *ModerationService) PendingQueue(offset, limit int) ([]models.Product, int, error) {
	return s.store.ListByStatus(models.StatusPending, offset, limit)
}

// ListByStatus lists products in any lifecycle status for the admin panel.
func (s *ModerationService) ListByStatus(status models.ProductStatus, offset, limit int) ([]models.Product, int, error) {
	return s.store.ListByStatus(status, offset, limit)
}

// Approve transitions a pending product to approved, recording the approval
// time and moderation note, then invalidates cached catalog pages.
func (s *ModerationService) Approve(ctx context.Context, id, note string) error {
	now := time.Now()
	return s.moderate(ctx, id, models.StatusApproved, note, &now)
}

// Reject transitions a pending product to rejected with a moderation note.
func (s *ModerationService) Reject(ctx context.Context, id, note string) error {
	return s.moderate(ctx, id, models.StatusRejected, note, nil)
}

func (s *ModerationService) moderate(ctx context.Context, id string, status models.ProductStatus, note string, approvedAt *time.Time) error {
	affected, err := s.store.SetStatus(id, status, note, approvedAt)
	if err != nil {
		return err
	}
	if affected == 0 {
		// Distinguish a missing product from one already moderated.
		if _, gerr := s.store.GetByID(id); gerr != nil {
			if errors.Is(gerr, sql.ErrNoRows) {
				return utils.ErrProductNotFound
			}
			return gerr
		}
		return utils.ErrNotPending
	}

	log.Info().Str("product_id", id).Str("status", string(status)).Msg("Product moderated")

	if status == models.StatusApproved {
		s.invalidate(ctx)
	}
	return nil
}

// DeleteProduct removes a product outright and invalidates cached pages.
func (s *ModerationService) DeleteProduct(ctx context.Context, id string) error {
	if _, err := s.store.GetByID(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return utils.ErrProductNotFound
		}
		return err
	}
	if err := s.store.Delete(id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *ModerationService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("Catalog cache invalidation failed")
	}
}
