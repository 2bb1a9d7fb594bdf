// Package subscription implements the subscription state machine as a pure
// function of plan, stored dates and pending-inquiry presence. Persisting a
// recomputed status is the caller's concern.
package subscription

import (
	"time"

	"github.com/inspec-ai/account-service/internal/models"
)

// DefaultGracePeriod is the window past the end date during which the
// subscription is past due rather than expired.
const DefaultGracePeriod = 7 * 24 * time.Hour

// ComputeStatus derives the subscription status for a user at the given
// instant. A pending renewal or upgrade inquiry forces PAYMENT_PENDING
// regardless of date math. Free accounts with no end date have no derived
// status at all.
func ComputeStatus(plan models.Plan, end *time.Time, pendingInquiry bool, now time.Time, grace time.Duration) models.SubscriptionStatus {
	if pendingInquiry {
		return models.StatusPaymentPending
	}
	if end == nil {
		if plan == models.PlanFree {
			return ""
		}
		return models.StatusActive
	}
	switch {
	case now.Before(*end):
		return models.StatusActive
	case now.Before(end.Add(grace)):
		return models.StatusPastDue
	default:
		return models.StatusExpired
	}
}

// BillingPeriodMonths returns the subscription length granted when a plan
// change is approved. Free has no billing period.
func BillingPeriodMonths(plan models.Plan) int {
	switch plan {
	case models.PlanPro:
		return 1
	case models.PlanCustom:
		return 12
	default:
		return 0
	}
}
