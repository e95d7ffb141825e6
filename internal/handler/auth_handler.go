package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/trovehq/trove_api/internal/middleware"
	"github.com/trovehq/trove_api/internal/service"
	"github.com/trovehq/trove_api/internal/utils"
)

type AuthHandler struct {
	authService *service.AdminAuthService
	limiter     *middleware.InvalidAuthRateLimiter
}

func NewAuthHandler(authService *service.AdminAuthService, limiter *middleware.InvalidAuthRateLimiter) *AuthHandler {
	return &AuthHandler{authService: authService, limiter: limiter}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if !h.limiter.Allow(c.ClientIP()) {
		utils.Error(c, 429, "TOO_MANY_ATTEMPTS", "Too many failed login attempts, try again later")
		return
	}

	token, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		utils.Error(c, 401, "INVALID_CREDENTIALS", "Invalid credentials")
		return
	}
	h.limiter.Reset(c.ClientIP())

	utils.Success(c, 200, "Login successful", gin.H{
		"token": token,
	})
}
