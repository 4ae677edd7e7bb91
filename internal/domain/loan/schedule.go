package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScheduleLine is one month of a repayment schedule before persistence.
type ScheduleLine struct {
	Number    int
	DueDate   time.Time
	Principal int64
	Interest  int64
	Total     int64
}

// TotalInterest computes the flat, non-compounding interest charged over the
// whole term: principal * rateBPS/10_000 * months/12, rounded to a whole unit.
func TotalInterest(principal int64, rateBPS int32, months int) int64 {
	if principal <= 0 || months <= 0 || rateBPS <= 0 {
		return 0
	}
	return decimal.NewFromInt(principal).
		Mul(decimal.NewFromInt(int64(rateBPS))).
		Mul(decimal.NewFromInt(int64(months))).
		Div(decimal.NewFromInt(120_000)).
		Round(0).
		IntPart()
}

// GenerateSchedule produces one installment per month. Principal and interest
// are spread evenly across the term; any rounding remainder lands on the final
// installment so that the principal portions sum to the principal exactly and
// the totals sum to principal + TotalInterest. Installment i (1-based) falls
// due i months after start.
func GenerateSchedule(principal int64, rateBPS int32, months int, start time.Time) []ScheduleLine {
	if principal <= 0 || months <= 0 {
		return nil
	}

	totalInterest := TotalInterest(principal, rateBPS, months)
	principalShare := principal / int64(months)
	interestShare := totalInterest / int64(months)

	lines := make([]ScheduleLine, 0, months)
	for i := 0; i < months; i++ {
		p := principalShare
		in := interestShare
		if i == months-1 {
			p = principal - principalShare*int64(months-1)
			in = totalInterest - interestShare*int64(months-1)
		}
		lines = append(lines, ScheduleLine{
			Number:    i + 1,
			DueDate:   start.AddDate(0, i+1, 0),
			Principal: p,
			Interest:  in,
			Total:     p + in,
		})
	}
	return lines
}

// MonthlyPayment is the indicative even split of the total repayment; the
// generated schedule is authoritative for per-installment amounts.
func MonthlyPayment(totalRepayment int64, months int) int64 {
	if months <= 0 {
		return 0
	}
	return decimal.NewFromInt(totalRepayment).
		Div(decimal.NewFromInt(int64(months))).
		Round(0).
		IntPart()
}
