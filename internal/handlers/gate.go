package handlers

import (
	"net/http"

	apierrors "github.com/armour-nexus/nexus-api/internal/errors"
	"github.com/armour-nexus/nexus-api/internal/gate"
	"github.com/armour-nexus/nexus-api/internal/middleware"
	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GateHandler exposes authorization decisions and usage summaries.
type GateHandler struct {
	gate *gate.Gate
}

func NewGateHandler(g *gate.Gate) *GateHandler {
	return &GateHandler{gate: g}
}

// Authorize answers whether the caller may perform a metered action. Denials
// are reported in the body with status 200.
func (h *GateHandler) Authorize(c *gin.Context) {
	type AuthorizeRequest struct {
		OrganizationID  uuid.UUID            `json:"organization_id" binding:"required"`
		TeamID          *uuid.UUID           `json:"team_id"`
		Category        models.UsageCategory `json:"category" binding:"required"`
		RequestedAmount int64                `json:"requested_amount" binding:"gte=0"`
	}

	var req AuthorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	if !req.Category.Valid() {
		apierrors.BadRequest(c, "Unknown category")
		return
	}

	var actor *uuid.UUID
	if userID, ok := middleware.GetUserID(c); ok {
		actor = &userID
	}

	c.JSON(http.StatusOK, h.gate.Decide(c.Request.Context(), gate.Request{
		Actor:           actor,
		OrganizationID:  req.OrganizationID,
		TeamID:          req.TeamID,
		Category:        req.Category,
		MinimumRole:     gate.MinimumRole(req.Category),
		RequestedAmount: req.RequestedAmount,
	}))
}

// Usage reports the caller's usage for the current period
func (h *GateHandler) Usage(c *gin.Context) {
	org, _ := middleware.GetOrganization(c)
	userID, _ := middleware.GetUserID(c)

	summary, err := h.gate.Summary(c.Request.Context(), org.ID, userID)
	if err != nil {
		respondMeteredError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
