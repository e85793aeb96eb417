package gate

import (
	"context"
	"errors"
)

// Usage is the usage snapshot included in a positive decision.
type Usage struct {
	Used  int64  `json:"used"`
	Limit *int64 `json:"limit"`
}

// Decision is the wire form of an authorization result.
type Decision struct {
	Authorized bool   `json:"authorized"`
	Usage      *Usage `json:"usage,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Limit      *int64 `json:"limit,omitempty"`
}

// NewDecision renders an Authorize result.
func NewDecision(auth *Authorization, err error) Decision {
	if err != nil {
		d := Decision{Authorized: false, Reason: Reason(err)}
		var qe *QuotaExceededError
		if errors.As(err, &qe) {
			limit := qe.Limit
			d.Limit = &limit
		}
		return d
	}
	return Decision{
		Authorized: true,
		Usage:      &Usage{Used: auth.Used, Limit: auth.Limit},
	}
}

// Decide runs Authorize and renders the outcome. It never returns an error.
func (g *Gate) Decide(ctx context.Context, req Request) Decision {
	return NewDecision(g.Authorize(ctx, req))
}
