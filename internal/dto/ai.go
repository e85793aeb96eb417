package dto

import (
	"time"

	"github.com/armour-nexus/nexus-api/internal/services"
)

// ChatUsageDTO reports the caller's message allowance after a reply
type ChatUsageDTO struct {
	MessagesUsed  int64  `json:"messages_used"`
	MessagesLimit *int64 `json:"messages_limit"`
	TokensUsed    int64  `json:"tokens_used"`
}

// ChatResponse is the assistant reply
type ChatResponse struct {
	Message string       `json:"message"`
	Usage   ChatUsageDTO `json:"usage"`
}

// ImageResponse describes a stored generated image
type ImageResponse struct {
	URL       string             `json:"url"`
	Type      services.ImageType `json:"type"`
	CreatedAt time.Time          `json:"created_at"`
}

// CheckoutResponse carries the hosted checkout URL
type CheckoutResponse struct {
	URL string `json:"url"`
}

// ToChatResponse converts an assistant reply
func ToChatResponse(r services.ChatReply) ChatResponse {
	return ChatResponse{
		Message: r.Message,
		Usage: ChatUsageDTO{
			MessagesUsed:  r.MessagesUsed,
			MessagesLimit: r.MessagesLimit,
			TokensUsed:    r.TokensUsed,
		},
	}
}

// ToImageResponse converts a generated image
func ToImageResponse(img services.GeneratedImage) ImageResponse {
	return ImageResponse{
		URL:       img.URL,
		Type:      img.Type,
		CreatedAt: img.CreatedAt,
	}
}
