package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/armour-nexus/nexus-api/internal/billing"
	"github.com/armour-nexus/nexus-api/internal/dto"
	apierrors "github.com/armour-nexus/nexus-api/internal/errors"
	"github.com/armour-nexus/nexus-api/internal/metrics"
	"github.com/armour-nexus/nexus-api/internal/middleware"
	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/armour-nexus/nexus-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const maxWebhookBody = 1 << 16

// BillingHandler serves checkout and the payment webhook.
type BillingHandler struct {
	billingService *services.BillingService
	verifier       billing.WebhookVerifier
}

func NewBillingHandler(billingService *services.BillingService, verifier billing.WebhookVerifier) *BillingHandler {
	return &BillingHandler{billingService: billingService, verifier: verifier}
}

// Checkout starts a subscription purchase for the organization
func (h *BillingHandler) Checkout(c *gin.Context) {
	org, _ := middleware.GetOrganization(c)
	userID, _ := middleware.GetUserID(c)

	type CheckoutRequest struct {
		Plan       models.Plan `json:"plan" binding:"required"`
		SuccessURL string      `json:"success_url" binding:"required,url"`
		CancelURL  string      `json:"cancel_url" binding:"required,url"`
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	url, err := h.billingService.Checkout(c.Request.Context(), services.CheckoutInput{
		OrganizationID: org.ID,
		UserID:         userID,
		Plan:           req.Plan,
		SuccessURL:     req.SuccessURL,
		CancelURL:      req.CancelURL,
	})
	if err != nil {
		if errors.Is(err, billing.ErrNotConfigured) {
			apierrors.ServiceUnavailable(c, "Billing is not configured")
			return
		}
		respondMeteredError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CheckoutResponse{URL: url})
}

// StripeWebhook verifies and applies a payment processor event. The raw body
// is verified before anything in it is trusted.
func (h *BillingHandler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		apierrors.BadRequest(c, "Failed to read request body")
		return
	}

	evt, err := h.verifier.Verify(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		metrics.RecordWebhookEvent("unverified", "rejected")
		switch {
		case errors.Is(err, billing.ErrMissingSignature):
			apierrors.BadRequest(c, "Missing signature")
		case errors.Is(err, billing.ErrNotConfigured):
			zerolog.Ctx(c.Request.Context()).Error().Msg("webhook received but no webhook secret is configured")
			apierrors.BadRequest(c, "Webhook secret not configured")
		default:
			zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("webhook signature rejected")
			apierrors.BadRequest(c, "Invalid signature")
		}
		return
	}

	if err := h.billingService.HandleWebhookEvent(c.Request.Context(), evt); err != nil {
		apierrors.InternalError(c, "Webhook handler failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
