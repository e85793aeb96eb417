// Package gate decides whether a member may perform a metered action in an
// organization and accounts for it against the plan's monthly allowance.
//
// A check runs identity, membership, role, plan and quota resolution in that
// order and stops at the first failure.
package gate

import (
	"context"
	"errors"
	"time"

	"github.com/armour-nexus/nexus-api/internal/metrics"
	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Request is one authorization query.
type Request struct {
	Actor          *uuid.UUID
	OrganizationID uuid.UUID
	TeamID         *uuid.UUID
	Category       models.UsageCategory
	MinimumRole    models.Role
	// RequestedAmount defaults to 1.
	RequestedAmount int64
}

// Authorization is returned when a request passes every check.
type Authorization struct {
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	Category       models.UsageCategory
	Role           models.Role
	Plan           models.Plan
	Used           int64
	Limit          *int64
	Amount         int64
	Period         string
	PeriodStart    time.Time
}

func (a *Authorization) key() UsageKey {
	return UsageKey{
		OrganizationID: a.OrganizationID,
		UserID:         a.UserID,
		Category:       a.Category,
		Period:         a.Period,
		PeriodStart:    a.PeriodStart,
	}
}

type Gate struct {
	store       Store
	now         func() time.Time
	loc         *time.Location
	defaultPlan models.Plan
}

type Option func(*Gate)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// WithLocation sets the reference clock for monthly periods.
func WithLocation(loc *time.Location) Option {
	return func(g *Gate) {
		if loc != nil {
			g.loc = loc
		}
	}
}

// WithDefaultPlan sets the plan used when an organization has no subscription.
func WithDefaultPlan(plan models.Plan) Option {
	return func(g *Gate) { g.defaultPlan = plan }
}

func New(store Store, opts ...Option) *Gate {
	g := &Gate{
		store:       store,
		now:         time.Now,
		loc:         time.UTC,
		defaultPlan: models.PlanFree,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Period returns the calendar month containing t in the gate's reference clock.
func (g *Gate) Period(t time.Time) (string, time.Time) {
	local := t.In(g.loc)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, g.loc)
	return start.Format("2006-01"), start
}

// Authorize runs the checks without consuming quota.
func (g *Gate) Authorize(ctx context.Context, req Request) (*Authorization, error) {
	auth, err := g.authorize(ctx, req)
	g.observe(ctx, req, err)
	return auth, err
}

func (g *Gate) authorize(ctx context.Context, req Request) (*Authorization, error) {
	if req.Actor == nil || *req.Actor == uuid.Nil {
		return nil, ErrUnauthorized
	}
	if !req.Category.Valid() || !req.MinimumRole.Valid() || req.RequestedAmount < 0 {
		return nil, ErrInvalidRequest
	}
	amount := req.RequestedAmount
	if amount == 0 {
		amount = 1
	}

	if _, err := g.store.FindOrganization(ctx, req.OrganizationID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, upstream("find organization", err)
	}

	membership, err := g.store.FindActiveMembership(ctx, req.OrganizationID, *req.Actor)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, upstream("find membership", err)
	}
	if !membership.IsActive() {
		return nil, ErrForbidden
	}

	if !CheckRole(membership.Role, req.MinimumRole) {
		return nil, ErrForbidden
	}

	if req.TeamID != nil {
		ok, err := g.store.TeamInOrganization(ctx, *req.TeamID, req.OrganizationID)
		if err != nil {
			return nil, upstream("find team", err)
		}
		if !ok {
			return nil, ErrForbidden
		}
	}

	plan, err := g.resolvePlan(ctx, req.OrganizationID)
	if err != nil {
		return nil, err
	}
	planLimit, err := g.resolvePlanLimit(ctx, plan)
	if err != nil {
		return nil, err
	}
	allowance := Allowance(planLimit, req.Category)

	period, periodStart := g.Period(g.now())
	auth := &Authorization{
		OrganizationID: req.OrganizationID,
		UserID:         *req.Actor,
		Category:       req.Category,
		Role:           membership.Role,
		Plan:           plan,
		Limit:          allowance,
		Amount:         amount,
		Period:         period,
		PeriodStart:    periodStart,
	}

	used, err := g.store.GetUsage(ctx, auth.key())
	if err != nil {
		return nil, upstream("read usage", err)
	}
	auth.Used = used

	if allowance != nil && used+amount > *allowance {
		return nil, &QuotaExceededError{Category: req.Category, Limit: *allowance, Used: used}
	}

	return auth, nil
}

func (g *Gate) resolvePlan(ctx context.Context, orgID uuid.UUID) (models.Plan, error) {
	sub, err := g.store.FindSubscription(ctx, orgID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return g.defaultPlan, nil
		}
		return "", upstream("find subscription", err)
	}
	return EffectivePlan(sub, g.defaultPlan), nil
}

func (g *Gate) resolvePlanLimit(ctx context.Context, plan models.Plan) (models.PlanLimit, error) {
	pl, err := g.store.FindPlanLimit(ctx, plan)
	if err == nil {
		return *pl, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return models.PlanLimit{}, upstream("find plan limits", err)
	}
	if def, ok := DefaultPlanLimits[plan]; ok {
		return def, nil
	}
	return DefaultPlanLimits[models.PlanFree], nil
}

// RecordUsage adds amount and costUnits to the actor's usage for the current period.
// Concurrent calls on the same key accumulate; nothing is overwritten.
func (g *Gate) RecordUsage(ctx context.Context, orgID, userID uuid.UUID, category models.UsageCategory, amount, costUnits int64) error {
	if amount < 0 || costUnits < 0 || !category.Valid() {
		return ErrInvalidRequest
	}
	period, start := g.Period(g.now())
	key := UsageKey{OrganizationID: orgID, UserID: userID, Category: category, Period: period, PeriodStart: start}
	if err := g.store.AddUsage(ctx, key, amount, costUnits); err != nil {
		return upstream("record usage", err)
	}
	metrics.RecordUsage(string(category), amount)
	return nil
}

// MeteredCall performs the external action. It returns the cost units consumed.
type MeteredCall func(ctx context.Context, auth *Authorization) (int64, error)

// Meter authorizes the request, reserves the requested amount atomically, runs
// call and settles the reservation. A failed call releases the reservation so
// the actor is not charged. No store connection is held while call runs.
func (g *Gate) Meter(ctx context.Context, req Request, call MeteredCall) (*Authorization, error) {
	auth, err := g.authorize(ctx, req)
	if err == nil {
		err = g.reserve(ctx, auth)
	}
	g.observe(ctx, req, err)
	if err != nil {
		return nil, err
	}

	key := auth.key()
	costUnits, callErr := call(ctx, auth)
	if callErr != nil {
		if err := g.store.ReleaseUsage(context.WithoutCancel(ctx), key, auth.Amount); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).
				Str("organization_id", auth.OrganizationID.String()).
				Str("category", string(auth.Category)).
				Msg("failed to release usage reservation")
		}
		return nil, upstream("metered call", callErr)
	}

	if costUnits > 0 {
		if err := g.store.AddUsage(ctx, key, 0, costUnits); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).
				Str("organization_id", auth.OrganizationID.String()).
				Int64("cost_units", costUnits).
				Msg("failed to settle usage cost")
		}
	}

	metrics.RecordUsage(string(auth.Category), auth.Amount)
	auth.Used += auth.Amount
	return auth, nil
}

// reserve takes auth.Amount from the allowance in a single conditional update.
// Unlimited categories are counted without a check.
func (g *Gate) reserve(ctx context.Context, auth *Authorization) error {
	key := auth.key()
	if auth.Limit == nil {
		if err := g.store.AddUsage(ctx, key, auth.Amount, 0); err != nil {
			return upstream("reserve usage", err)
		}
		return nil
	}

	if err := g.store.EnsureUsageRow(ctx, key); err != nil {
		return upstream("reserve usage", err)
	}
	ok, err := g.store.TryReserve(ctx, key, auth.Amount, *auth.Limit)
	if err != nil {
		return upstream("reserve usage", err)
	}
	if ok {
		return nil
	}

	used, err := g.store.GetUsage(ctx, key)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("organization_id", auth.OrganizationID.String()).
			Str("category", string(auth.Category)).
			Msg("failed to read usage after losing reservation")
		used = auth.Used
	}
	return &QuotaExceededError{Category: auth.Category, Limit: *auth.Limit, Used: used}
}

func (g *Gate) observe(ctx context.Context, req Request, err error) {
	outcome := "authorized"
	if err != nil {
		outcome = outcomeLabel(err)
	}
	metrics.RecordGateDecision(string(req.Category), outcome)

	ev := zerolog.Ctx(ctx).Debug()
	if err != nil && !IsPolicy(err) {
		ev = zerolog.Ctx(ctx).Error().Err(err)
	}
	ev.Str("organization_id", req.OrganizationID.String()).
		Str("category", string(req.Category)).
		Str("outcome", outcome).
		Msg("gate decision")
}

func outcomeLabel(err error) string {
	switch Reason(err) {
	case "Unauthorized":
		return "unauthorized"
	case "Forbidden":
		return "forbidden"
	case "QuotaExceeded":
		return "quota_exceeded"
	case "InvalidRequest":
		return "invalid"
	default:
		return "upstream_failure"
	}
}
