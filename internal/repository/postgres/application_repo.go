package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/agricoop/backend/internal/domain/loan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const applicationColumns = `id, member_id, amount, purpose, duration_months, tier, contribution,
       interest_rate_bps, total_interest, total_repayment, monthly_payment,
       status, COALESCE(reject_reason, ''), COALESCE(reviewed_by, ''), reviewed_at,
       disbursed_at, repaid_at, created_at, updated_at`

type ApplicationRepository struct {
	pool *pgxpool.Pool
}

func NewApplicationRepository(pool *pgxpool.Pool) *ApplicationRepository {
	return &ApplicationRepository{pool: pool}
}

func scanApplication(row pgx.Row) (*loan.Application, error) {
	out := &loan.Application{}
	err := row.Scan(
		&out.ID, &out.MemberID, &out.Amount, &out.Purpose, &out.DurationMonths, &out.Tier, &out.Contribution,
		&out.InterestRateBPS, &out.TotalInterest, &out.TotalRepayment, &out.MonthlyPayment,
		&out.Status, &out.RejectReason, &out.ReviewedBy, &out.ReviewedAt,
		&out.DisbursedAt, &out.RepaidAt, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, loan.ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

func (r *ApplicationRepository) Create(ctx context.Context, in loan.CreateApplicationInput) (*loan.Application, error) {
	q := `
INSERT INTO loan_applications (
  member_id, amount, purpose, duration_months, tier, contribution,
  interest_rate_bps, total_interest, total_repayment, monthly_payment, status
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,'pending')
RETURNING ` + applicationColumns
	return scanApplication(r.pool.QueryRow(ctx, q,
		in.MemberID, in.Amount, in.Purpose, in.DurationMonths, in.Tier, in.Contribution,
		in.InterestRateBPS, in.TotalInterest, in.TotalRepayment, in.MonthlyPayment,
	))
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*loan.Application, error) {
	q := `SELECT ` + applicationColumns + ` FROM loan_applications WHERE id = $1`
	return scanApplication(r.pool.QueryRow(ctx, q, id))
}

func (r *ApplicationRepository) List(ctx context.Context, f loan.ListFilter) ([]loan.Application, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	builder := strings.Builder{}
	builder.WriteString(`SELECT ` + applicationColumns + ` FROM loan_applications WHERE 1=1`)

	args := []any{}
	argPos := 1
	if strings.TrimSpace(f.MemberID) != "" {
		builder.WriteString(" AND member_id = $")
		builder.WriteString(strconv.Itoa(argPos))
		args = append(args, f.MemberID)
		argPos++
	}
	if strings.TrimSpace(f.Status) != "" {
		builder.WriteString(" AND status = $")
		builder.WriteString(strconv.Itoa(argPos))
		args = append(args, f.Status)
		argPos++
	}
	builder.WriteString(" ORDER BY created_at DESC")
	builder.WriteString(" LIMIT $")
	builder.WriteString(strconv.Itoa(argPos))
	args = append(args, f.Limit)
	argPos++
	builder.WriteString(" OFFSET $")
	builder.WriteString(strconv.Itoa(argPos))
	args = append(args, f.Offset)

	rows, err := r.pool.Query(ctx, builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]loan.Application, 0)
	for rows.Next() {
		item, err := scanApplication(rows)
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

func (r *ApplicationRepository) HasActiveLoan(ctx context.Context, memberID string) (bool, error) {
	q := `SELECT EXISTS (SELECT 1 FROM loan_applications WHERE member_id = $1 AND status IN ('approved', 'disbursed'))`
	var active bool
	if err := r.pool.QueryRow(ctx, q, memberID).Scan(&active); err != nil {
		return false, err
	}
	return active, nil
}

func (r *ApplicationRepository) UpdateDecision(ctx context.Context, id, status, reviewerID, reason string, reviewedAt time.Time) error {
	q := `
UPDATE loan_applications
SET status = $2, reviewed_by = $3, reject_reason = NULLIF($4, ''), reviewed_at = $5, updated_at = NOW()
WHERE id = $1 AND status = 'pending'
`
	tag, err := r.pool.Exec(ctx, q, id, status, reviewerID, reason, reviewedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return loan.ErrNotFound
	}
	return nil
}

func (r *ApplicationRepository) MarkDisbursed(ctx context.Context, id string, at time.Time) error {
	q := `UPDATE loan_applications SET status = 'disbursed', disbursed_at = $2, updated_at = NOW() WHERE id = $1 AND status = 'approved'`
	tag, err := r.pool.Exec(ctx, q, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return loan.ErrNotFound
	}
	return nil
}

func (r *ApplicationRepository) MarkRepaid(ctx context.Context, id string, at time.Time) error {
	q := `UPDATE loan_applications SET status = 'repaid', repaid_at = $2, updated_at = NOW() WHERE id = $1 AND status = 'disbursed'`
	_, err := r.pool.Exec(ctx, q, id, at)
	return err
}

func (r *ApplicationRepository) GetStats(ctx context.Context) (*loan.Stats, error) {
	q := `
SELECT
  COUNT(*)::bigint AS total_applications,
  COUNT(*) FILTER (WHERE status = 'pending')::bigint AS pending_loans,
  COUNT(*) FILTER (WHERE status = 'approved')::bigint AS approved_loans,
  COUNT(*) FILTER (WHERE status = 'disbursed')::bigint AS disbursed_loans,
  COUNT(*) FILTER (WHERE status = 'repaid')::bigint AS repaid_loans,
  COUNT(*) FILTER (WHERE status = 'rejected')::bigint AS rejected_loans,
  COALESCE(SUM(amount) FILTER (WHERE status IN ('disbursed', 'repaid')), 0)::bigint AS total_principal
FROM loan_applications
`
	out := &loan.Stats{}
	err := r.pool.QueryRow(ctx, q).Scan(
		&out.TotalApplications,
		&out.PendingLoans,
		&out.ApprovedLoans,
		&out.DisbursedLoans,
		&out.RepaidLoans,
		&out.RejectedLoans,
		&out.TotalPrincipal,
	)
	if err != nil {
		return nil, err
	}

	qOutstanding := `
SELECT COALESCE(SUM(total - LEAST(paid_amount, total)), 0)::bigint
FROM loan_installments
WHERE status != 'paid'
`
	if err := r.pool.QueryRow(ctx, qOutstanding).Scan(&out.TotalOutstanding); err != nil {
		return nil, err
	}

	if out.TotalPrincipal > 0 {
		out.RepaymentRatePercent = (float64(out.TotalPrincipal-out.TotalOutstanding) / float64(out.TotalPrincipal)) * 100
	}
	return out, nil
}
