package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// GracePeriodDays follows each due date; no penalty accrues inside it.
	GracePeriodDays = 7
	// PenaltyDailyBPS is the daily penalty in basis points of the installment
	// total, charged per day past the grace boundary.
	PenaltyDailyBPS = 10
)

var penaltyDailyRate = decimal.New(int64(PenaltyDailyBPS), -4)

// ComputePenalty returns the accrued penalty (rounded to the nearest whole
// unit) and the days overdue for an installment. Days overdue count from the
// end of the grace period, not from the due date: a payment 3 days late is
// within grace and carries no penalty and zero days overdue.
func ComputePenalty(dueDate time.Time, total int64, now time.Time) (penalty int64, daysOverdue int) {
	boundary := dueDate.AddDate(0, 0, GracePeriodDays)
	if !now.After(boundary) {
		return 0, 0
	}

	days := int(now.Sub(boundary).Hours() / 24)
	if days <= 0 {
		return 0, 0
	}

	penalty = decimal.NewFromInt(total).
		Mul(penaltyDailyRate).
		Mul(decimal.NewFromInt(int64(days))).
		Round(0).
		IntPart()
	return penalty, days
}
