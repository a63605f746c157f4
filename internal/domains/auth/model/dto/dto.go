package dto

import (
	"messbook/infras/jwt"
	userModel "messbook/internal/domains/user/model"
	userDto "messbook/internal/domains/user/model/dto"
	"messbook/permissions"
	gModel "messbook/shared/model"
	"messbook/shared/timezone"
	"strings"
	"time"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,max=100"`
	Email    string `json:"email"    validate:"required,email"`
	Mobile   string `json:"mobile"   validate:"omitempty,max=20"`
	Password string `json:"password" validate:"required,min=6"`
}

// ToUserModel builds a new active account with the given role; emails are stored lower-cased.
func (r *RegisterRequest) ToUserModel(role permissions.Role, hashedPassword string) userModel.User {
	id := uuid.NewString()

	return userModel.User{
		ID:       id,
		Name:     strings.TrimSpace(r.Name),
		Email:    NormalizeEmail(r.Email),
		Mobile:   r.Mobile,
		Password: hashedPassword,
		Role:     role,
		IsActive: true,
		Metadata: gModel.NewMetadata(timezone.Now(), id),
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateLastLoginRequest struct {
	LastLogin time.Time `db:"last_login"`
}

type AuthResponse struct {
	User         userDto.UserResponse `json:"user"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
	TokenType    string               `json:"token_type"`
	ExpiresIn    int64                `json:"expires_in"`
}

func (a *AuthResponse) FromTokenPair(user userModel.User, tokenPair *jwt.TokenPair) {
	a.User.FromModel(user)
	a.AccessToken = tokenPair.AccessToken
	a.RefreshToken = tokenPair.RefreshToken
	a.TokenType = tokenPair.TokenType
	a.ExpiresIn = tokenPair.ExpiresIn
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=6,nefield=CurrentPassword"`
}

type UpdatePasswordRequest struct {
	Password string `db:"password"`
}
