// Package billing wraps the payment processor: customers, checkout sessions
// and signed subscription webhooks.
package billing

import (
	"context"
	"errors"
	"time"

	"github.com/armour-nexus/nexus-api/internal/models"
)

var (
	ErrNotConfigured    = errors.New("billing: payment processor is not configured")
	ErrMissingSignature = errors.New("billing: missing webhook signature")
	ErrInvalidSignature = errors.New("billing: invalid webhook signature")
	ErrMalformedEvent   = errors.New("billing: malformed webhook event")
)

// Event types the API reacts to. Anything else is acknowledged and ignored.
const (
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// Metadata keys written on checkout and read back from webhooks.
const (
	MetadataOrganizationID = "organization_id"
	MetadataUserID         = "user_id"
	MetadataPlan           = "plan"
)

// CustomerParams describes a customer to create for an organization.
type CustomerParams struct {
	Email          string
	Name           string
	OrganizationID string
	UserID         string
}

// CheckoutParams describes a subscription checkout session.
type CheckoutParams struct {
	CustomerID     string
	PriceID        string
	SuccessURL     string
	CancelURL      string
	OrganizationID string
	Plan           models.Plan
}

// Provider creates customers and hosted checkout sessions.
type Provider interface {
	CreateCustomer(ctx context.Context, params CustomerParams) (string, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error)
}

// SubscriptionData is the part of a subscription event the API stores.
type SubscriptionData struct {
	SubscriptionID     string
	CustomerID         string
	OrganizationID     string
	Plan               models.Plan
	Status             models.SubscriptionStatus
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	BillingCycleAnchor *time.Time
	CancelAtPeriodEnd  bool
}

// Event is a verified webhook event. Subscription is set for subscription events only.
type Event struct {
	ID           string
	Type         string
	Subscription *SubscriptionData
}

// WebhookVerifier authenticates and decodes a webhook delivery.
type WebhookVerifier interface {
	Verify(payload []byte, signature string) (*Event, error)
}
