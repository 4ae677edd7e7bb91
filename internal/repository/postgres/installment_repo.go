package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/agricoop/backend/internal/domain/loan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const installmentColumns = `id, loan_id, member_id, number, due_date, principal, interest, total,
       paid_amount, status, penalty, days_overdue, created_at, updated_at`

type InstallmentRepository struct {
	pool *pgxpool.Pool
}

func NewInstallmentRepository(pool *pgxpool.Pool) *InstallmentRepository {
	return &InstallmentRepository{pool: pool}
}

func scanInstallment(row pgx.Row) (*loan.Installment, error) {
	out := &loan.Installment{}
	err := row.Scan(
		&out.ID, &out.LoanID, &out.MemberID, &out.Number, &out.DueDate, &out.Principal, &out.Interest, &out.Total,
		&out.PaidAmount, &out.Status, &out.Penalty, &out.DaysOverdue, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, loan.ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

func (r *InstallmentRepository) Create(ctx context.Context, in loan.CreateInstallmentInput) (*loan.Installment, error) {
	q := `
INSERT INTO loan_installments (
  loan_id, member_id, number, due_date, principal, interest, total, status
) VALUES ($1,$2,$3,$4,$5,$6,$7,'pending')
RETURNING ` + installmentColumns
	return scanInstallment(r.pool.QueryRow(ctx, q,
		in.LoanID, in.MemberID, in.Number, in.DueDate, in.Principal, in.Interest, in.Total,
	))
}

func (r *InstallmentRepository) GetByID(ctx context.Context, id string) (*loan.Installment, error) {
	q := `SELECT ` + installmentColumns + ` FROM loan_installments WHERE id = $1`
	return scanInstallment(r.pool.QueryRow(ctx, q, id))
}

func (r *InstallmentRepository) ListByLoan(ctx context.Context, loanID string) ([]loan.Installment, error) {
	q := `SELECT ` + installmentColumns + ` FROM loan_installments WHERE loan_id = $1 ORDER BY number ASC`
	rows, err := r.pool.Query(ctx, q, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]loan.Installment, 0)
	for rows.Next() {
		item, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *InstallmentRepository) ApplyPayment(ctx context.Context, id string, paidAmount int64, status string, penalty int64, daysOverdue int) error {
	q := `
UPDATE loan_installments
SET paid_amount = $2, status = $3, penalty = $4, days_overdue = $5, updated_at = NOW()
WHERE id = $1
`
	tag, err := r.pool.Exec(ctx, q, id, paidAmount, status, penalty, daysOverdue)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return loan.ErrNotFound
	}
	return nil
}

func (r *InstallmentRepository) ListPastGrace(ctx context.Context, cutoff time.Time, limit int32) ([]loan.Installment, error) {
	if limit <= 0 {
		limit = 200
	}
	q := `
SELECT ` + installmentColumns + `
FROM loan_installments
WHERE status IN ('pending', 'partial', 'overdue') AND due_date < $1
ORDER BY due_date ASC
LIMIT $2
`
	rows, err := r.pool.Query(ctx, q, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]loan.Installment, 0)
	for rows.Next() {
		item, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkOverdue flips an unpaid installment to overdue and reports whether this
// call made the transition. Installments that are already overdue only get
// their accrued penalty refreshed, so the scanner does not re-notify.
func (r *InstallmentRepository) MarkOverdue(ctx context.Context, id string, penalty int64, daysOverdue int) (bool, error) {
	q := `
UPDATE loan_installments
SET status = 'overdue', penalty = $2, days_overdue = $3, updated_at = NOW()
WHERE id = $1 AND status IN ('pending', 'partial')
`
	tag, err := r.pool.Exec(ctx, q, id, penalty, daysOverdue)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	q = `
UPDATE loan_installments
SET penalty = $2, days_overdue = $3, updated_at = NOW()
WHERE id = $1 AND status = 'overdue'
`
	_, err = r.pool.Exec(ctx, q, id, penalty, daysOverdue)
	return false, err
}
