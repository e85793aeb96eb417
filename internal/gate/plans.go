package gate

import "github.com/armour-nexus/nexus-api/internal/models"

func quota(n int64) *int64 {
	return &n
}

// DefaultPlanLimits are the built-in allowances. They seed the plan_limits table
// and back any plan row that is missing from it.
var DefaultPlanLimits = map[models.Plan]models.PlanLimit{
	models.PlanFree: {
		Plan:               models.PlanFree,
		DisplayName:        "Free",
		PriceCents:         0,
		AIChatMessages:     quota(50),
		AIImageCredits:     quota(5),
		StorageGB:          quota(5),
		TeamsAllowed:       quota(1),
		TeamMembersAllowed: quota(10),
	},
	models.PlanArmoured: {
		Plan:               models.PlanArmoured,
		DisplayName:        "Armoured",
		PriceCents:         4999,
		AIChatMessages:     quota(500),
		AIImageCredits:     quota(50),
		StorageGB:          quota(100),
		TeamsAllowed:       quota(3),
		TeamMembersAllowed: quota(50),
	},
	models.PlanArmouredElite: {
		Plan:           models.PlanArmouredElite,
		DisplayName:    "Armoured Elite",
		PriceCents:     9999,
		AIChatMessages: quota(5000),
		AIImageCredits: quota(500),
		StorageGB:      quota(1000),
	},
}

// Allowance returns the monthly allowance for a category. Nil means unlimited.
func Allowance(pl models.PlanLimit, category models.UsageCategory) *int64 {
	switch category {
	case models.CategoryAIChat:
		return pl.AIChatMessages
	case models.CategoryImageGeneration:
		return pl.AIImageCredits
	default:
		return nil
	}
}

// MinimumRole is the lowest role allowed to perform a metered category.
func MinimumRole(category models.UsageCategory) models.Role {
	switch category {
	case models.CategoryImageGeneration:
		return models.RoleCoach
	case models.CategoryCheckout:
		return models.RoleAdmin
	default:
		return models.RolePlayer
	}
}

// CheckRole is the single hierarchy comparison used for every role-gated action.
func CheckRole(role, minimum models.Role) bool {
	return role.AtLeast(minimum)
}

// EffectivePlan applies the subscription status to the stored plan. Cancelled or
// ended subscriptions fall back to the default plan.
func EffectivePlan(sub *models.Subscription, fallback models.Plan) models.Plan {
	if sub == nil || !sub.Plan.Valid() {
		return fallback
	}
	switch sub.Status {
	case models.SubscriptionCancelled, models.SubscriptionEnded:
		return fallback
	}
	return sub.Plan
}
