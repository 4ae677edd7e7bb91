package jobs

import (
	"context"
	"encoding/json"
	"time"

	loandomain "github.com/agricoop/backend/internal/domain/loan"
)

type OverdueRepository interface {
	// ListPastGrace returns unpaid installments whose grace period ended
	// before the cutoff.
	ListPastGrace(ctx context.Context, cutoff time.Time, limit int32) ([]loandomain.Installment, error)
	// MarkOverdue stamps the accrued penalty and reports whether the
	// installment newly flipped to overdue.
	MarkOverdue(ctx context.Context, id string, penalty int64, daysOverdue int) (bool, error)
}

type ScannerOutbox interface {
	Enqueue(ctx context.Context, topic string, payload []byte) error
}

// OverdueScanner periodically sweeps unpaid installments past their grace
// period, stamps the accrued penalty, and queues a reminder notification.
type OverdueScanner struct {
	instRepo   OverdueRepository
	outboxRepo ScannerOutbox
	now        func() time.Time
}

func NewOverdueScanner(instRepo OverdueRepository, outboxRepo ScannerOutbox) *OverdueScanner {
	return &OverdueScanner{
		instRepo:   instRepo,
		outboxRepo: outboxRepo,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *OverdueScanner) RunOnce(ctx context.Context, batchSize int32) error {
	now := s.now()
	cutoff := now.AddDate(0, 0, -loandomain.GracePeriodDays)

	items, err := s.instRepo.ListPastGrace(ctx, cutoff, batchSize)
	if err != nil {
		return err
	}

	for _, inst := range items {
		penalty, daysOverdue := loandomain.ComputePenalty(inst.DueDate, inst.Total, now)
		if daysOverdue == 0 {
			continue
		}
		flipped, err := s.instRepo.MarkOverdue(ctx, inst.ID, penalty, daysOverdue)
		if err != nil {
			return err
		}
		// Already-overdue installments get their penalty refreshed above;
		// the reminder goes out once, on the transition.
		if !flipped {
			continue
		}

		payload, _ := json.Marshal(map[string]any{
			"member_id":          inst.MemberID,
			"loan_id":            inst.LoanID,
			"installment_number": inst.Number,
			"due_date":           inst.DueDate.UTC().Format(time.RFC3339),
			"outstanding":        inst.Total + penalty - inst.PaidAmount,
			"penalty":            penalty,
			"days_overdue":       daysOverdue,
		})
		if err := s.outboxRepo.Enqueue(ctx, installmentOverdueTopic, payload); err != nil {
			return err
		}
	}
	return nil
}
