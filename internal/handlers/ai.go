package handlers

import (
	"errors"
	"net/http"

	"github.com/armour-nexus/nexus-api/internal/dto"
	apierrors "github.com/armour-nexus/nexus-api/internal/errors"
	"github.com/armour-nexus/nexus-api/internal/gate"
	"github.com/armour-nexus/nexus-api/internal/middleware"
	"github.com/armour-nexus/nexus-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AIHandler serves the metered assistant and image generation endpoints.
type AIHandler struct {
	assistant *services.AssistantService
	images    *services.ImageService
}

func NewAIHandler(assistant *services.AssistantService, images *services.ImageService) *AIHandler {
	return &AIHandler{assistant: assistant, images: images}
}

// Chat answers a member's question
func (h *AIHandler) Chat(c *gin.Context) {
	org, _ := middleware.GetOrganization(c)
	userID, _ := middleware.GetUserID(c)

	type ChatRequest struct {
		TeamID  *uuid.UUID           `json:"team_id"`
		Message string               `json:"message" binding:"required"`
		Context services.ChatContext `json:"context" binding:"omitempty,oneof=org team general"`
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	reply, err := h.assistant.Chat(c.Request.Context(), services.ChatInput{
		OrganizationID: org.ID,
		UserID:         userID,
		TeamID:         req.TeamID,
		Message:        req.Message,
		Context:        req.Context,
	})
	if err != nil {
		respondMeteredError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToChatResponse(*reply))
}

// GenerateImage renders and stores an image
func (h *AIHandler) GenerateImage(c *gin.Context) {
	org, _ := middleware.GetOrganization(c)
	userID, _ := middleware.GetUserID(c)

	type ImageRequest struct {
		Prompt    string             `json:"prompt" binding:"required"`
		ImageType services.ImageType `json:"image_type"`
	}

	var req ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	img, err := h.images.Generate(c.Request.Context(), services.GenerateImageInput{
		OrganizationID: org.ID,
		UserID:         userID,
		Prompt:         req.Prompt,
		ImageType:      req.ImageType,
	})
	if err != nil {
		respondMeteredError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToImageResponse(*img))
}

// respondMeteredError maps validation errors to 400 and everything the gate
// returns to its HTTP status.
func respondMeteredError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidChatMessage),
		errors.Is(err, services.ErrInvalidImagePrompt),
		errors.Is(err, services.ErrInvalidImageType),
		errors.Is(err, services.ErrInvalidPlan),
		errors.Is(err, services.ErrInvalidReturnURL):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrPlanNotAvailable):
		apierrors.ServiceUnavailable(c, err.Error())
	case errors.Is(err, services.ErrAIUnavailable):
		apierrors.ServiceUnavailable(c, "AI features are not configured")
	default:
		if !gate.IsPolicy(err) {
			zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("metered request failed")
		}
		apierrors.GateError(c, err)
	}
}
