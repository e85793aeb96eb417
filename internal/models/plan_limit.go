package models

// PlanLimit stores the monthly allowances of a plan. Nil allowances are unlimited.
type PlanLimit struct {
	Plan               Plan   `gorm:"type:varchar(32);primaryKey" json:"plan"`
	DisplayName        string `gorm:"type:varchar(100)" json:"display_name"`
	PriceCents         int64  `json:"price_cents"`
	AIChatMessages     *int64 `json:"ai_chat_messages"`
	AIImageCredits     *int64 `json:"ai_image_credits"`
	StorageGB          *int64 `json:"storage_gb"`
	TeamsAllowed       *int64 `json:"teams_allowed"`
	TeamMembersAllowed *int64 `json:"team_members_allowed"`
}
