package services

import (
	"context"

	"github.com/armour-nexus/nexus-api/internal/gate"
)

// Metering runs an external call under the gate's reserve and settle protocol.
type Metering interface {
	Meter(ctx context.Context, req gate.Request, call gate.MeteredCall) (*gate.Authorization, error)
}
