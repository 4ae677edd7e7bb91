package loan

import (
	"testing"
	"time"
)

func TestTotalInterestFlat(t *testing.T) {
	if got := TotalInterest(120_000, 500, 12); got != 6_000 {
		t.Fatalf("TotalInterest = %d, want 6000", got)
	}
	if got := TotalInterest(300_000, 500, 12); got != 15_000 {
		t.Fatalf("TotalInterest = %d, want 15000", got)
	}
	if got := TotalInterest(0, 500, 12); got != 0 {
		t.Fatalf("expected zero interest on zero principal, got %d", got)
	}
}

func TestGenerateScheduleEvenSplit(t *testing.T) {
	start := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	lines := GenerateSchedule(120_000, 500, 12, start)
	if len(lines) != 12 {
		t.Fatalf("expected 12 installments, got %d", len(lines))
	}

	for i, line := range lines {
		if line.Number != i+1 {
			t.Fatalf("installment %d has number %d", i, line.Number)
		}
		wantDue := start.AddDate(0, i+1, 0)
		if !line.DueDate.Equal(wantDue) {
			t.Fatalf("installment %d due %s, want %s", line.Number, line.DueDate, wantDue)
		}
		if line.Principal != 10_000 || line.Interest != 500 || line.Total != 10_500 {
			t.Fatalf("installment %d: %+v", line.Number, line)
		}
	}
}

func TestGenerateScheduleRemainderOnLast(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	lines := GenerateSchedule(100_000, 500, 12, start)
	if len(lines) != 12 {
		t.Fatalf("expected 12 installments, got %d", len(lines))
	}

	var sumPrincipal, sumInterest, sumTotal int64
	for _, line := range lines {
		if line.Total != line.Principal+line.Interest {
			t.Fatalf("installment %d total mismatch: %+v", line.Number, line)
		}
		sumPrincipal += line.Principal
		sumInterest += line.Interest
		sumTotal += line.Total
	}

	if sumPrincipal != 100_000 {
		t.Fatalf("principal sum = %d, want 100000", sumPrincipal)
	}
	wantInterest := TotalInterest(100_000, 500, 12)
	if sumInterest != wantInterest {
		t.Fatalf("interest sum = %d, want %d", sumInterest, wantInterest)
	}
	if sumTotal != 100_000+wantInterest {
		t.Fatalf("total sum = %d, want %d", sumTotal, 100_000+wantInterest)
	}

	// Early installments are the even share; the remainder lands on the last.
	if lines[0].Principal != 8_333 || lines[11].Principal != 8_337 {
		t.Fatalf("unexpected principal split: first %d last %d", lines[0].Principal, lines[11].Principal)
	}
}

func TestGenerateScheduleInvalidInput(t *testing.T) {
	if lines := GenerateSchedule(0, 500, 12, time.Now()); lines != nil {
		t.Fatalf("expected nil schedule for zero principal")
	}
	if lines := GenerateSchedule(100_000, 500, 0, time.Now()); lines != nil {
		t.Fatalf("expected nil schedule for zero months")
	}
}

func TestMonthlyPayment(t *testing.T) {
	if got := MonthlyPayment(126_000, 12); got != 10_500 {
		t.Fatalf("MonthlyPayment = %d, want 10500", got)
	}
	if got := MonthlyPayment(100_000, 12); got != 8_333 {
		t.Fatalf("MonthlyPayment = %d, want 8333", got)
	}
	if got := MonthlyPayment(100_000, 0); got != 0 {
		t.Fatalf("MonthlyPayment with zero months = %d, want 0", got)
	}
}
