package gate

import (
	"errors"
	"fmt"

	"github.com/armour-nexus/nexus-api/internal/models"
)

var (
	ErrUnauthorized   = errors.New("authentication required")
	ErrForbidden      = errors.New("insufficient permissions")
	ErrQuotaExceeded  = errors.New("monthly quota exceeded")
	ErrUpstream       = errors.New("upstream failure")
	ErrInvalidRequest = errors.New("invalid gate request")
)

// QuotaExceededError reports the allowance that was reached.
type QuotaExceededError struct {
	Category models.UsageCategory
	Limit    int64
	Used     int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s: %s limit of %d reached", ErrQuotaExceeded, e.Category, e.Limit)
}

func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

// UpstreamError wraps a store or provider failure that is unrelated to policy.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrUpstream, e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

func upstream(op string, err error) error {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	return &UpstreamError{Op: op, Err: err}
}

// Reason names the failure kind the way API clients see it.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, ErrForbidden):
		return "Forbidden"
	case errors.Is(err, ErrQuotaExceeded):
		return "QuotaExceeded"
	case errors.Is(err, ErrInvalidRequest):
		return "InvalidRequest"
	default:
		return "UpstreamFailure"
	}
}

// IsPolicy reports whether err is a terminal policy outcome. Policy failures are never retried.
func IsPolicy(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden) || errors.Is(err, ErrQuotaExceeded)
}
