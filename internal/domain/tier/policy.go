package tier

// Tier is the membership category a member qualifies for based on their
// cumulative contribution. Every contribution amount maps to exactly one tier.
type Tier string

const (
	Basic   Tier = "Basic"
	Premium Tier = "Premium"
)

// PremiumThreshold is the contribution at which a member moves to Premium.
const PremiumThreshold int64 = 500_000

type Limits struct {
	MaxLoanMultiplier int64
	MaxDurationMonths int
	InterestRateBPS   int32
}

var limitsByTier = map[Tier]Limits{
	Basic:   {MaxLoanMultiplier: 3, MaxDurationMonths: 12, InterestRateBPS: 500},
	Premium: {MaxLoanMultiplier: 5, MaxDurationMonths: 24, InterestRateBPS: 400},
}

func ForContribution(contribution int64) Tier {
	if contribution >= PremiumThreshold {
		return Premium
	}
	return Basic
}

func LimitsFor(t Tier) Limits {
	if l, ok := limitsByTier[t]; ok {
		return l
	}
	return limitsByTier[Basic]
}

// MaxLoanAmount is the borrowing cap for the tier implied by the contribution.
func MaxLoanAmount(contribution int64) int64 {
	return contribution * LimitsFor(ForContribution(contribution)).MaxLoanMultiplier
}

func IsValid(t Tier) bool {
	_, ok := limitsByTier[t]
	return ok
}
