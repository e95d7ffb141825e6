package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/trovehq/trove_api/internal/middleware"
	"github.com/trovehq/trove_api/internal/models"
	"github.com/trovehq/trove_api/internal/service"
	"github.com/trovehq/trove_api/internal/utils"
)

// ModerationHandler handles admin moderation endpoints.
type ModerationHandler struct {
	moderationService *service.ModerationService
}

// NewModerationHandler constructs a ModerationHandler.
func NewModerationHandler(moderationService *service.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService}
}

func pagination(c *gin.Context) (offset, limit int) {
	limit = 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return offset, limit
}

// ListSubmissions returns the pending moderation queue, newest first.
func (h *ModerationHandler) ListSubmissions(c *gin.Context) {
	offset, limit := pagination(c)
	products, total, err := h.moderationService.PendingQueue(offset, limit)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to load submissions")
		return
	}
	utils.Success(c, 200, "Pending submissions retrieved", gin.H{
		"products": products,
		"total":    total,
	})
}

// ListProducts returns products filtered by lifecycle status.
func (h *ModerationHandler) ListProducts(c *gin.Context) {
	status := models.ProductStatus(c.DefaultQuery("status", string(models.StatusApproved)))
	switch status {
	case models.StatusPending, models.StatusApproved, models.StatusRejected:
	default:
		utils.Error(c, 400, "INVALID_STATUS", "status must be pending, approved, or rejected")
		return
	}

	offset, limit := pagination(c)
	products, total, err := h.moderationService.ListByStatus(status, offset, limit)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to load products")
		return
	}
	utils.Success(c, 200, "Products retrieved", gin.H{
		"products": products,
		"total":    total,
	})
}

type moderateRequest struct {
	Note string `json:"note"`
}

// Approve transitions a pending submission to approved.
func (h *ModerationHandler) Approve(c *gin.Context) {
	var req moderateRequest
	_ = c.ShouldBindJSON(&req) // note is optional

	if err := h.moderationService.Approve(c.Request.Context(), c.Param("id"), req.Note); err != nil {
		writeModerationError(c, err)
		return
	}
	auditModeration(c, "approved")
	utils.Success(c, 200, "Product approved", nil)
}

// Reject transitions a pending submission to rejected.
func (h *ModerationHandler) Reject(c *gin.Context) {
	var req moderateRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.moderationService.Reject(c.Request.Context(), c.Param("id"), req.Note); err != nil {
		writeModerationError(c, err)
		return
	}
	auditModeration(c, "rejected")
	utils.Success(c, 200, "Product rejected", nil)
}

// DeleteProduct removes a product outright.
func (h *ModerationHandler) DeleteProduct(c *gin.Context) {
	if err := h.moderationService.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		writeModerationError(c, err)
		return
	}
	auditModeration(c, "deleted")
	utils.Success(c, 200, "Product deleted", nil)
}

// auditModeration logs who performed a moderation action, using the identity
// the JWT middleware stored on the request context.
func auditModeration(c *gin.Context, action string) {
	log.Info().
		Str("product_id", c.Param("id")).
		Str("action", action).
		Str("moderator", c.GetString(middleware.CtxModeratorEmail)).
		Msg("Moderation action")
}

func writeModerationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrProductNotFound):
		utils.Error(c, 404, "PRODUCT_NOT_FOUND", "Product not found")
	case errors.Is(err, utils.ErrNotPending):
		utils.Error(c, 409, "PRODUCT_NOT_PENDING", "Product has already been moderated")
	default:
		utils.Error(c, 500, "INTERNAL_ERROR", "Moderation action failed")
	}
}
