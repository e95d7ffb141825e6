// Package marketplace provides a search client for external retailer
// marketplaces. Each marketplace is queried through a shared lookup gateway
// endpoint; real deployments point it at the per-retailer search APIs.
package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// Known marketplace names. The set is open: products may carry links to
// marketplaces not listed here.
const (
	Amazon    = "amazon"
	EBay      = "ebay"
	Walmart   = "walmart"
	Target    = "target"
	BestBuy   = "bestbuy"
	HomeDepot = "homedepot"
	Etsy      = "etsy"
)

// DefaultMarketplaces is the fixed set queried by the search aggregator.
func DefaultMarketplaces() []string {
	return []string{Amazon, EBay, Walmart, Target, BestBuy, HomeDepot, Etsy}
}

// Offer is one raw offer returned by a marketplace lookup.
type Offer struct {
	Title   string           `json:"title"`
	Price   decimal.Decimal  `json:"price"`
	URL     string           `json:"url"`
	Image   string           `json:"image,omitempty"`
	Rating  *decimal.Decimal `json:"rating,omitempty"`
	Reviews *int             `json:"reviews,omitempty"`
}

type lookupResponse struct {
	Offers []Offer `json:"offers"`
	Error  string  `json:"error,omitempty"`
}

// Config holds client construction parameters.
type Config struct {
	Endpoint      string
	Timeout       time.Duration
	RatePerSecond float64
}

// Client is an HTTP client for marketplace product lookups. Outgoing requests
// are throttled with a shared rate limiter so a burst of searches cannot
// exhaust the gateway quota.
type Client struct {
	httpClient *http.Client
	endpoint   string
	limiter    *rate.Limiter
	debug      bool
}

// NewClient constructs a marketplace lookup client with sane defaults.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   cfg.Endpoint,
		limiter:    rate.NewLimiter(rate.Limit(rps), int(rps)),
		debug:      os.Getenv("ENV") == "development",
	}
}

// Search queries one marketplace for offers matching q. A non-2xx status or a
// gateway-reported error is returned as an error; callers decide whether a
// single marketplace failure is fatal.
func (c *Client) Search(ctx context.Context, marketplace, q string) ([]Offer, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/%s/search?q=%s", c.endpoint, url.PathEscape(marketplace), url.QueryEscape(q))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if c.debug {
		log.Debug().
			Str("marketplace", marketplace).
			Int("status_code", resp.StatusCode).
			Msg("[MARKETPLACE] Lookup response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("lookup returned status %d", resp.StatusCode)
	}

	var decoded lookupResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("lookup error: %s", decoded.Error)
	}
	return decoded.Offers, nil
}
