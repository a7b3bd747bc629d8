package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/projectnav/navigator/internal/config"
	"github.com/projectnav/navigator/internal/services"
	"github.com/projectnav/navigator/pkg/logger"
	"github.com/projectnav/navigator/pkg/response"
	"gorm.io/gorm"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: services.NewAuthService(db, &cfg.JWT),
	}
}

// Signup registers a new user
// POST /signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req services.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.authService.Signup(&req); err != nil {
		logger.Error().Err(err).Str("email", req.Email).Msg("signup failed")
		response.Error(c, err)
		return
	}

	c.JSON(200, gin.H{"message": "user registered successfully"})
}

// Login verifies credentials and issues a token
// POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	token, err := h.authService.Login(&req)
	if err != nil {
		logger.Warn().Err(err).Str("email", req.Email).Msg("login failed")
		response.Error(c, err)
		return
	}

	c.JSON(200, gin.H{"token": token})
}
