package dto

import (
	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/google/uuid"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
	}
}

// LoginResponse is the user plus an access token when bearer tokens are enabled.
type LoginResponse struct {
	UserDTO
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int    `json:"expires_in,omitempty"`
}

type CurrentUserResponse struct {
	UserDTO
	AuthMethod string `json:"auth_method"`
}
