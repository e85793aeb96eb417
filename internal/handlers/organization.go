package handlers

import (
	"errors"
	"net/http"

	"github.com/armour-nexus/nexus-api/internal/dto"
	apierrors "github.com/armour-nexus/nexus-api/internal/errors"
	"github.com/armour-nexus/nexus-api/internal/gate"
	"github.com/armour-nexus/nexus-api/internal/middleware"
	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/armour-nexus/nexus-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrganizationHandler serves organizations, members and invitations.
type OrganizationHandler struct {
	orgService *services.OrganizationService
}

// NewOrganizationHandler creates a new OrganizationHandler.
func NewOrganizationHandler(orgService *services.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService}
}

// CreateOrganization creates a new organization owned by the caller
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateOrgRequest struct {
		Name        string `json:"name" binding:"required,max=255"`
		Slug        string `json:"slug" binding:"required,max=100"`
		Description string `json:"description"`
		Timezone    string `json:"timezone"`
	}

	var req CreateOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	org, err := h.orgService.CreateOrganization(services.CreateOrganizationInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Timezone:    req.Timezone,
		OwnerID:     userID,
	})
	if err != nil {
		respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.OrganizationWithRoleDTO{
		OrganizationDTO: dto.ToOrganizationDTO(*org),
		Role:            models.RoleOwner,
	})
}

// ListOrganizations returns all organizations the user is a member of
func (h *OrganizationHandler) ListOrganizations(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	memberships, err := h.orgService.ListOrganizationsForUser(userID)
	if err != nil {
		respondOrganizationError(c, err)
		return
	}

	orgs := make([]dto.OrganizationWithRoleDTO, len(memberships))
	for i, m := range memberships {
		orgs[i] = dto.ToOrganizationWithRoleDTO(m)
	}

	c.JSON(http.StatusOK, gin.H{
		"organizations": orgs,
	})
}

// GetOrganization returns organization details with its members
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	org, _ := middleware.GetOrganization(c)
	membership, _ := middleware.GetMembership(c)

	org, members, err := h.orgService.GetOrganizationWithMembers(org.ID)
	if err != nil {
		respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationDetailDTO(*org, members, membership.Role))
}

// InviteMember creates or refreshes a pending invitation
func (h *OrganizationHandler) InviteMember(c *gin.Context) {
	org, _ := middleware.GetOrganization(c)
	userID, _ := middleware.GetUserID(c)

	type InviteRequest struct {
		Email string      `json:"email" binding:"required,email"`
		Role  models.Role `json:"role" binding:"required"`
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	invite, err := h.orgService.InviteMember(c.Request.Context(), services.InviteMemberInput{
		OrganizationID: org.ID,
		InvitedBy:      userID,
		Email:          req.Email,
		Role:           req.Role,
	})
	if err != nil {
		respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToInvitationDTO(*invite))
}

// RemoveMember deactivates a membership
func (h *OrganizationHandler) RemoveMember(c *gin.Context) {
	org, _ := middleware.GetOrganization(c)
	actor, _ := middleware.GetMembership(c)

	memberID, err := uuid.Parse(c.Param("memberId"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid member ID")
		return
	}

	if err := h.orgService.RemoveMember(org.ID, actor, memberID); err != nil {
		respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member removed successfully",
	})
}

// AcceptInvitation joins the organization of a pending invitation
func (h *OrganizationHandler) AcceptInvitation(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type AcceptRequest struct {
		Token string `json:"token" binding:"required"`
	}

	var req AcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	membership, err := h.orgService.AcceptInvitation(req.Token, userID)
	if err != nil {
		respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"organization_id": membership.OrganizationID,
		"role":            membership.Role,
	})
}

func respondOrganizationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidOrganizationName),
		errors.Is(err, services.ErrInvalidSlug),
		errors.Is(err, services.ErrInvalidTimezone),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrCannotRemoveYourself),
		errors.Is(err, services.ErrCannotRemoveOwner):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrSlugTaken),
		errors.Is(err, services.ErrAlreadyOrganizationMember):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrOrganizationNotFound),
		errors.Is(err, services.ErrOrganizationMemberNotFound),
		errors.Is(err, services.ErrInvitationNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrSeatLimitReached):
		apierrors.LimitReached(c, err.Error())
	case errors.Is(err, gate.ErrForbidden):
		apierrors.Forbidden(c, "Insufficient permissions")
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("organization request failed")
		apierrors.InternalError(c, "")
	}
}
