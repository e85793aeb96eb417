package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeProvider implements Provider with the Stripe API.
type StripeProvider struct {
	api *client.API
}

func NewStripeProvider(secretKey string) *StripeProvider {
	return &StripeProvider{api: client.New(secretKey, nil)}
}

func (p *StripeProvider) CreateCustomer(ctx context.Context, params CustomerParams) (string, error) {
	cp := &stripe.CustomerParams{
		Email: stripe.String(params.Email),
	}
	if params.Name != "" {
		cp.Name = stripe.String(params.Name)
	}
	cp.Context = ctx
	cp.AddMetadata(MetadataOrganizationID, params.OrganizationID)
	cp.AddMetadata(MetadataUserID, params.UserID)

	c, err := p.api.Customers.New(cp)
	if err != nil {
		return "", fmt.Errorf("stripe: create customer: %w", err)
	}
	return c.ID, nil
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error) {
	sp := &stripe.CheckoutSessionParams{
		Customer:   stripe.String(params.CustomerID),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(params.PriceID), Quantity: stripe.Int64(1)},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				MetadataOrganizationID: params.OrganizationID,
				MetadataPlan:           string(params.Plan),
			},
		},
	}
	sp.Context = ctx
	sp.AddMetadata(MetadataOrganizationID, params.OrganizationID)
	sp.AddMetadata(MetadataPlan, string(params.Plan))

	s, err := p.api.CheckoutSessions.New(sp)
	if err != nil {
		return "", fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return s.URL, nil
}

// StripeWebhook verifies Stripe-Signature headers with the endpoint secret.
type StripeWebhook struct {
	secret    string
	tolerance time.Duration
}

func NewStripeWebhook(secret string) *StripeWebhook {
	return &StripeWebhook{secret: secret, tolerance: webhook.DefaultTolerance}
}

// Verify checks the signature before decoding anything from the payload.
func (w *StripeWebhook) Verify(payload []byte, signature string) (*Event, error) {
	if w.secret == "" {
		return nil, ErrNotConfigured
	}
	if signature == "" {
		return nil, ErrMissingSignature
	}

	evt, err := webhook.ConstructEventWithOptions(payload, signature, w.secret, webhook.ConstructEventOptions{
		Tolerance:                w.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{ID: evt.ID, Type: string(evt.Type)}
	switch out.Type {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		if evt.Data == nil {
			return nil, ErrMalformedEvent
		}
		var sub stripe.Subscription
		if err := json.Unmarshal(evt.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		out.Subscription = subscriptionData(&sub)
	}
	return out, nil
}

func subscriptionData(sub *stripe.Subscription) *SubscriptionData {
	data := &SubscriptionData{
		SubscriptionID:     sub.ID,
		OrganizationID:     sub.Metadata[MetadataOrganizationID],
		Plan:               models.Plan(sub.Metadata[MetadataPlan]),
		Status:             mapStatus(sub.Status),
		CurrentPeriodStart: unixTime(sub.CurrentPeriodStart),
		CurrentPeriodEnd:   unixTime(sub.CurrentPeriodEnd),
		BillingCycleAnchor: unixTime(sub.BillingCycleAnchor),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		data.CustomerID = sub.Customer.ID
	}
	return data
}

func mapStatus(s stripe.SubscriptionStatus) models.SubscriptionStatus {
	switch s {
	case stripe.SubscriptionStatusCanceled:
		return models.SubscriptionCancelled
	case stripe.SubscriptionStatusIncompleteExpired:
		return models.SubscriptionEnded
	case "":
		return models.SubscriptionActive
	default:
		return models.SubscriptionStatus(s)
	}
}

func unixTime(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
