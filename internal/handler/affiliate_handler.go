package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/trovehq/trove_api/internal/service"
	"github.com/trovehq/trove_api/internal/utils"
)

// AffiliateHandler handles the outbound purchase-click endpoint.
type AffiliateHandler struct {
	affiliateService *service.AffiliateService
}

// NewAffiliateHandler constructs an AffiliateHandler.
func NewAffiliateHandler(affiliateService *service.AffiliateService) *AffiliateHandler {
	return &AffiliateHandler{affiliateService: affiliateService}
}

type outboundRequest struct {
	URL         string  `json:"url" binding:"required"`
	Marketplace string  `json:"marketplace" binding:"required"`
	ProductID   *string `json:"productId"`
}

// Outbound rewrites a raw marketplace URL into a trackable affiliate link and
// records the click event. Called at the moment a user initiates a purchase.
func (h *AffiliateHandler) Outbound(c *gin.Context) {
	var req outboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "url and marketplace are required")
		return
	}

	outbound, err := h.affiliateService.RewriteLink(req.URL, req.Marketplace)
	if err != nil {
		utils.Error(c, 400, "INVALID_LINK", err.Error())
		return
	}

	trackingID, err := h.affiliateService.RecordClick(req.ProductID, req.Marketplace, outbound)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to record click")
		return
	}

	utils.Success(c, 200, "Outbound link ready", gin.H{
		"outboundUrl": outbound,
		"trackingId":  trackingID,
	})
}

// ClickStats returns outbound click totals per marketplace for the admin panel.
func (h *AffiliateHandler) ClickStats(c *gin.Context) {
	totals, err := h.affiliateService.ClickTotals()
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to load click totals")
		return
	}
	utils.Success(c, 200, "Click totals retrieved", gin.H{"clicks": totals})
}
