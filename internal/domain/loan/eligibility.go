package loan

import (
	"fmt"

	"github.com/agricoop/backend/internal/domain/tier"
)

type EligibilityResult struct {
	Eligible bool
	Reason   string
}

// CheckEligibility applies the cooperative's lending rules in order; the first
// failing rule determines the rejection reason. Members hold at most one loan
// in approved or disbursed status at a time.
func CheckEligibility(contribution, requestedAmount int64, hasActiveLoan bool) EligibilityResult {
	if hasActiveLoan {
		return EligibilityResult{
			Reason: "you already have an active loan; repay it before applying again",
		}
	}

	t := tier.ForContribution(contribution)
	limit := tier.MaxLoanAmount(contribution)
	if requestedAmount > limit {
		return EligibilityResult{
			Reason: fmt.Sprintf(
				"requested amount %d exceeds your %s tier limit of %d (%dx your contribution of %d)",
				requestedAmount, t, limit, tier.LimitsFor(t).MaxLoanMultiplier, contribution,
			),
		}
	}

	return EligibilityResult{Eligible: true}
}
