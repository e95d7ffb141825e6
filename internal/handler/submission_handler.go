package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/trovehq/trove_api/internal/service"
	"github.com/trovehq/trove_api/internal/utils"
)

// SubmissionHandler handles user product recommendations.
type SubmissionHandler struct {
	submissionService *service.SubmissionService
}

// NewSubmissionHandler constructs a SubmissionHandler.
func NewSubmissionHandler(submissionService *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService}
}

// Submit accepts a product recommendation and queues it for moderation.
func (h *SubmissionHandler) Submit(c *gin.Context) {
	var in service.SubmitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	p, err := h.submissionService.Submit(c.Request.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrInvalidSubmission):
			utils.Error(c, 400, "INVALID_SUBMISSION", err.Error())
		case errors.Is(err, utils.ErrInvalidQuery):
			utils.Error(c, 400, "INVALID_QUERY", "Link lookup query must be at least 2 characters")
		default:
			utils.Error(c, 500, "INTERNAL_ERROR", "Failed to store submission")
		}
		return
	}

	utils.Success(c, 201, "Submission received and awaiting review", gin.H{
		"product": p,
	})
}
