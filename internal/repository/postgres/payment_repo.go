package postgres

import (
	"context"

	"github.com/agricoop/backend/internal/domain/loan"
	"github.com/agricoop/backend/internal/ws"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func (r *PaymentRepository) Append(ctx context.Context, in loan.AppendPaymentInput) (*loan.Payment, error) {
	q := `
INSERT INTO loan_payments (loan_id, installment_id, member_id, amount, penalty_paid, reference, recorded_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING id, loan_id, installment_id, member_id, amount, penalty_paid, reference, recorded_at
`
	out := &loan.Payment{}
	err := r.pool.QueryRow(ctx, q,
		in.LoanID, in.InstallmentID, in.MemberID, in.Amount, in.PenaltyPaid, in.Reference, in.RecordedAt,
	).Scan(
		&out.ID, &out.LoanID, &out.InstallmentID, &out.MemberID, &out.Amount, &out.PenaltyPaid, &out.Reference, &out.RecordedAt,
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PaymentRepository) ListByInstallment(ctx context.Context, installmentID string) ([]loan.Payment, error) {
	q := `
SELECT id, loan_id, installment_id, member_id, amount, penalty_paid, reference, recorded_at
FROM loan_payments
WHERE installment_id = $1
ORDER BY id ASC
`
	rows, err := r.pool.Query(ctx, q, installmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]loan.Payment, 0)
	for rows.Next() {
		var item loan.Payment
		if err := rows.Scan(
			&item.ID, &item.LoanID, &item.InstallmentID, &item.MemberID, &item.Amount, &item.PenaltyPaid, &item.Reference, &item.RecordedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PaymentRepository) ListPaymentsSince(ctx context.Context, lastID int64, limit int32) ([]ws.PaymentEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `
SELECT id, loan_id, installment_id, member_id, amount, penalty_paid, recorded_at
FROM loan_payments
WHERE id > $1
ORDER BY id ASC
LIMIT $2
`
	rows, err := r.pool.Query(ctx, q, lastID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ws.PaymentEvent, 0)
	for rows.Next() {
		var item ws.PaymentEvent
		if err := rows.Scan(
			&item.ID, &item.LoanID, &item.InstallmentID, &item.MemberID, &item.Amount, &item.PenaltyPaid, &item.RecordedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
