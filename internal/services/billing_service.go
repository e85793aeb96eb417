package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/armour-nexus/nexus-api/internal/billing"
	"github.com/armour-nexus/nexus-api/internal/gate"
	"github.com/armour-nexus/nexus-api/internal/metrics"
	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/armour-nexus/nexus-api/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidPlan      = errors.New("plan must be armoured or armoured_elite")
	ErrPlanNotAvailable = errors.New("plan is not available for purchase")
	ErrInvalidReturnURL = errors.New("success_url and cancel_url are required")
)

// PriceCatalog maps paid plans to processor price IDs.
type PriceCatalog func(plan string) string

// BillingService starts checkouts and applies subscription webhooks.
type BillingService struct {
	meter    Metering
	provider billing.Provider
	prices   PriceCatalog
	orgRepo  repository.OrganizationRepository
	userRepo repository.UserRepository
	subRepo  repository.SubscriptionRepository
}

func NewBillingService(
	meter Metering,
	provider billing.Provider,
	prices PriceCatalog,
	orgRepo repository.OrganizationRepository,
	userRepo repository.UserRepository,
	subRepo repository.SubscriptionRepository,
) *BillingService {
	return &BillingService{
		meter:    meter,
		provider: provider,
		prices:   prices,
		orgRepo:  orgRepo,
		userRepo: userRepo,
		subRepo:  subRepo,
	}
}

// CheckoutInput starts a subscription purchase.
type CheckoutInput struct {
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	Plan           models.Plan
	SuccessURL     string
	CancelURL      string
}

// Checkout creates a hosted checkout session and returns its URL. The
// organization's processor customer is created on first use and reused after.
func (s *BillingService) Checkout(ctx context.Context, input CheckoutInput) (string, error) {
	if !input.Plan.Paid() {
		return "", ErrInvalidPlan
	}
	if input.SuccessURL == "" || input.CancelURL == "" {
		return "", ErrInvalidReturnURL
	}
	priceID := s.prices(string(input.Plan))
	if priceID == "" {
		return "", ErrPlanNotAvailable
	}
	if s.provider == nil {
		return "", billing.ErrNotConfigured
	}
	actor := input.UserID

	var url string
	_, err := s.meter.Meter(ctx, gate.Request{
		Actor:          &actor,
		OrganizationID: input.OrganizationID,
		Category:       models.CategoryCheckout,
		MinimumRole:    gate.MinimumRole(models.CategoryCheckout),
	}, func(ctx context.Context, _ *gate.Authorization) (int64, error) {
		customerID, err := s.customerFor(ctx, input.OrganizationID, input.UserID)
		if err != nil {
			return 0, err
		}
		url, err = s.provider.CreateCheckoutSession(ctx, billing.CheckoutParams{
			CustomerID:     customerID,
			PriceID:        priceID,
			SuccessURL:     input.SuccessURL,
			CancelURL:      input.CancelURL,
			OrganizationID: input.OrganizationID.String(),
			Plan:           input.Plan,
		})
		return 0, err
	})
	if err != nil {
		return "", err
	}
	return url, nil
}

func (s *BillingService) customerFor(ctx context.Context, orgID, userID uuid.UUID) (string, error) {
	org, err := s.orgRepo.FindByID(orgID)
	if err != nil {
		return "", fmt.Errorf("failed to load organization: %w", err)
	}
	if org.StripeCustomerID != nil && *org.StripeCustomerID != "" {
		return *org.StripeCustomerID, nil
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return "", fmt.Errorf("failed to load user: %w", err)
	}
	customerID, err := s.provider.CreateCustomer(ctx, billing.CustomerParams{
		Email:          user.Email,
		Name:           org.Name,
		OrganizationID: orgID.String(),
		UserID:         userID.String(),
	})
	if err != nil {
		return "", err
	}
	if err := s.orgRepo.SetStripeCustomerID(orgID, customerID); err != nil {
		return "", fmt.Errorf("failed to store customer: %w", err)
	}
	return customerID, nil
}

// HandleWebhookEvent applies a verified event. Events that cannot be
// correlated to an organization are logged and acknowledged since a redelivery
// would carry the same data. Only storage failures return an error.
func (s *BillingService) HandleWebhookEvent(ctx context.Context, evt *billing.Event) error {
	log := zerolog.Ctx(ctx).With().Str("event_id", evt.ID).Str("event_type", evt.Type).Logger()

	if evt.Subscription == nil {
		metrics.RecordWebhookEvent(evt.Type, "ignored")
		log.Debug().Msg("webhook event ignored")
		return nil
	}

	data := evt.Subscription
	orgID, err := uuid.Parse(data.OrganizationID)
	if err != nil {
		metrics.RecordWebhookEvent(evt.Type, "uncorrelated")
		log.Warn().Str("subscription_id", data.SubscriptionID).Msg("webhook event has no organization id")
		return nil
	}

	switch evt.Type {
	case billing.EventSubscriptionCreated:
		err = s.upsertSubscription(orgID, data, models.SubscriptionActive)
	case billing.EventSubscriptionUpdated:
		err = s.subscriptionUpdated(orgID, data)
	case billing.EventSubscriptionDeleted:
		err = s.subscriptionDeleted(orgID)
	}
	if err != nil {
		metrics.RecordWebhookEvent(evt.Type, "error")
		log.Error().Err(err).Str("organization_id", orgID.String()).Msg("failed to apply webhook event")
		return err
	}

	metrics.RecordWebhookEvent(evt.Type, "applied")
	log.Info().Str("organization_id", orgID.String()).Str("status", string(data.Status)).Msg("subscription updated from webhook")
	return nil
}

func (s *BillingService) upsertSubscription(orgID uuid.UUID, data *billing.SubscriptionData, status models.SubscriptionStatus) error {
	plan := data.Plan
	if !plan.Valid() {
		plan = models.PlanFree
	}
	sub := &models.Subscription{
		OrganizationID:     orgID,
		Plan:               plan,
		Status:             status,
		CurrentPeriodStart: data.CurrentPeriodStart,
		CurrentPeriodEnd:   data.CurrentPeriodEnd,
		BillingCycleAnchor: data.BillingCycleAnchor,
		CancelAtPeriodEnd:  data.CancelAtPeriodEnd,
	}
	if data.CustomerID != "" {
		sub.StripeCustomerID = &data.CustomerID
	}
	if data.SubscriptionID != "" {
		sub.StripeSubscriptionID = &data.SubscriptionID
	}
	if err := s.subRepo.Upsert(sub); err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}

func (s *BillingService) subscriptionUpdated(orgID uuid.UUID, data *billing.SubscriptionData) error {
	fields := map[string]interface{}{
		"status":               data.Status,
		"current_period_start": data.CurrentPeriodStart,
		"current_period_end":   data.CurrentPeriodEnd,
		"cancel_at_period_end": data.CancelAtPeriodEnd,
	}
	if data.Plan.Valid() {
		fields["plan"] = data.Plan
	}
	if data.SubscriptionID != "" {
		fields["stripe_subscription_id"] = data.SubscriptionID
	}
	if data.BillingCycleAnchor != nil {
		fields["billing_cycle_anchor"] = data.BillingCycleAnchor
	}

	ok, err := s.subRepo.UpdateByOrganizationID(orgID, fields)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	if !ok {
		// Update arrived before created; keep the latest state.
		return s.upsertSubscription(orgID, data, data.Status)
	}
	return nil
}

func (s *BillingService) subscriptionDeleted(orgID uuid.UUID) error {
	_, err := s.subRepo.UpdateByOrganizationID(orgID, map[string]interface{}{
		"status":     models.SubscriptionCancelled,
		"updated_at": time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}
	return nil
}
