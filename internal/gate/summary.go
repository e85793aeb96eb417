package gate

import (
	"context"

	"github.com/armour-nexus/nexus-api/internal/models"
	"github.com/google/uuid"
)

// PlanLimits resolves the organization's effective plan and its allowances.
func (g *Gate) PlanLimits(ctx context.Context, orgID uuid.UUID) (models.Plan, models.PlanLimit, error) {
	plan, err := g.resolvePlan(ctx, orgID)
	if err != nil {
		return "", models.PlanLimit{}, err
	}
	pl, err := g.resolvePlanLimit(ctx, plan)
	if err != nil {
		return "", models.PlanLimit{}, err
	}
	return plan, pl, nil
}

// CategoryUsage is one line of a usage summary.
type CategoryUsage struct {
	Category models.UsageCategory `json:"category"`
	Used     int64                `json:"used"`
	Limit    *int64               `json:"limit"`
}

// UsageSummary reports a member's consumption in the current period.
type UsageSummary struct {
	Plan       models.Plan     `json:"plan"`
	Period     string          `json:"period"`
	Categories []CategoryUsage `json:"categories"`
}

var summaryCategories = []models.UsageCategory{
	models.CategoryAIChat,
	models.CategoryImageGeneration,
	models.CategoryCheckout,
}

// Summary reads current-period usage for every category. Membership is checked by the caller.
func (g *Gate) Summary(ctx context.Context, orgID, userID uuid.UUID) (*UsageSummary, error) {
	plan, pl, err := g.PlanLimits(ctx, orgID)
	if err != nil {
		return nil, err
	}

	period, start := g.Period(g.now())
	summary := &UsageSummary{Plan: plan, Period: period}
	for _, category := range summaryCategories {
		used, err := g.store.GetUsage(ctx, UsageKey{
			OrganizationID: orgID,
			UserID:         userID,
			Category:       category,
			Period:         period,
			PeriodStart:    start,
		})
		if err != nil {
			return nil, upstream("read usage", err)
		}
		summary.Categories = append(summary.Categories, CategoryUsage{
			Category: category,
			Used:     used,
			Limit:    Allowance(pl, category),
		})
	}
	return summary, nil
}
