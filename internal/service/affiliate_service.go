package service

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/trovehq/trove_api/internal/models"
	"github.com/trovehq/trove_api/internal/utils"
)

// ClickStore persists batches of outbound click events and reports totals.
type ClickStore interface {
	InsertBatch(clicks []models.AffiliateClick) error
	CountByMarketplace() (map[string]int, error)
}

// affiliateParam maps marketplaces to the query parameter their affiliate
// programs expect. Marketplaces not listed fall back to "aff_id".
var affiliateParam = map[string]string{
	"amazon": "tag",
	"ebay":   "campid",
	"etsy":   "ref",
}

// AffiliateService rewrites raw marketplace URLs into trackable outbound
// links and records click events. Clicks are buffered in memory and flushed
// in batches by the click flush worker, so the redirect path never waits on
// the database.
type AffiliateService struct {
	store ClickStore
	tags  map[string]string

	mu     sync.Mutex
	buffer []models.AffiliateClick
}

// NewAffiliateService constructs an AffiliateService with per-marketplace
// affiliate tags (lower-cased marketplace name -> tag value).
func NewAffiliateService(store ClickStore, tags map[string]string) *AffiliateService {
	return &AffiliateService{store: store, tags: tags}
}

// RewriteLink returns a trackable outbound URL for a raw marketplace URL. If
// no affiliate tag is configured for the marketplace, the URL is returned
// unchanged.
func (s *AffiliateService) RewriteLink(rawURL, marketplace string) (string, error) {
	marketplace = strings.ToLower(strings.TrimSpace(marketplace))
	if marketplace == "" {
		return "", utils.ErrUnknownMarketplace
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid marketplace url: %q", rawURL)
	}

	tag, ok := s.tags[marketplace]
	if !ok {
		return u.String(), nil
	}

	param := affiliateParam[marketplace]
	if param == "" {
		param = "aff_id"
	}
	q := u.Query()
	q.Set(param, tag)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// RecordClick buffers one outbound click event and returns its tracking id.
func (s *AffiliateService) RecordClick(productID *string, marketplace, targetURL string) (string, error) {
	trackingID, err := utils.GenerateTrackingID()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.buffer = append(s.buffer, models.AffiliateClick{
		TrackingID:  trackingID,
		ProductID:   productID,
		Marketplace: strings.ToLower(marketplace),
		TargetURL:   targetURL,
		ClickedAt:   time.Now(),
	})
	s.mu.Unlock()

	return trackingID, nil
}

// Flush writes all buffered clicks to the store. On failure the batch is
// placed back at the front of the buffer for the next flush.
func (s *AffiliateService) Flush() error {
	s.mu.Lock()
	batch := s.buffer
	s.buffer = nil
	s.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	if err := s.store.InsertBatch(batch); err != nil {
		s.mu.Lock()
		s.buffer = append(batch, s.buffer...)
		s.mu.Unlock()
		return err
	}

	log.Debug().Int("count", len(batch)).Msg("Flushed affiliate clicks")
	return nil
}

// ClickTotals returns click counts per marketplace. Buffered clicks are
// flushed first so totals reflect clicks recorded moments ago.
func (s *AffiliateService) ClickTotals() (map[string]int, error) {
	if err := s.Flush(); err != nil {
		return nil, err
	}
	return s.store.CountByMarketplace()
}

// Pending returns the number of buffered, unflushed clicks.
func (s *AffiliateService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buffer)
}
