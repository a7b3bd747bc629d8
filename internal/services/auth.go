package services

import (
	"errors"

	"github.com/projectnav/navigator/internal/config"
	"github.com/projectnav/navigator/internal/models"
	"github.com/projectnav/navigator/internal/utils"
	"github.com/projectnav/navigator/pkg/response"
	"gorm.io/gorm"
)

type AuthService struct {
	db        *gorm.DB
	jwtConfig *config.JWTConfig
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig) *AuthService {
	return &AuthService{db: db, jwtConfig: jwtCfg}
}

type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Signup registers a new user. Duplicate emails are rejected.
func (s *AuthService) Signup(req *SignupRequest) error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return response.NewInternalError(err)
	}
	if count > 0 {
		return response.NewValidationError("email already registered")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return response.NewInternalError(err)
	}

	user := models.User{Email: req.Email, Password: hash}
	if err := s.db.Create(&user).Error; err != nil {
		return response.NewInternalError(err)
	}

	return nil
}

// Login verifies credentials and returns a signed bearer token. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(req *LoginRequest) (string, error) {
	var user models.User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", response.NewAuthError("invalid credentials")
		}
		return "", response.NewInternalError(err)
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		return "", response.NewAuthError("invalid credentials")
	}

	token, err := utils.GenerateToken(user.ID, user.Email, s.jwtConfig.ExpireHour)
	if err != nil {
		return "", response.NewInternalError(err)
	}

	return token, nil
}
