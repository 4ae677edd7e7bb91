package postgres

import (
	"context"
	"errors"

	"github.com/agricoop/backend/internal/domain/loan"
	"github.com/agricoop/backend/internal/domain/member"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const memberColumns = `id, member_ref, full_name, COALESCE(phone, ''), joined_at, created_at, updated_at`

type MemberRepository struct {
	pool *pgxpool.Pool
}

func NewMemberRepository(pool *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{pool: pool}
}

func scanMember(row pgx.Row) (*member.Entity, error) {
	out := &member.Entity{}
	err := row.Scan(&out.ID, &out.MemberRef, &out.FullName, &out.Phone, &out.JoinedAt, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, loan.ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

func (r *MemberRepository) GetByID(ctx context.Context, id string) (*member.Entity, error) {
	q := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`
	return scanMember(r.pool.QueryRow(ctx, q, id))
}

func (r *MemberRepository) GetByRef(ctx context.Context, memberRef string) (*member.Entity, error) {
	q := `SELECT ` + memberColumns + ` FROM members WHERE member_ref = $1`
	return scanMember(r.pool.QueryRow(ctx, q, memberRef))
}

func (r *MemberRepository) GetContributionTotal(ctx context.Context, memberID string) (int64, error) {
	q := `SELECT COALESCE(SUM(amount), 0)::bigint FROM contributions WHERE member_id = $1`
	var total int64
	if err := r.pool.QueryRow(ctx, q, memberID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// AddContribution inserts one contribution; the ref_hash unique index makes
// re-imports of the same statement row a no-op. The bool reports whether a
// row was actually inserted.
func (r *MemberRepository) AddContribution(ctx context.Context, in member.AddContributionInput) (*member.Contribution, bool, error) {
	q := `
INSERT INTO contributions (member_id, amount, reference, ref_hash)
VALUES ($1, $2, $3, $4)
ON CONFLICT (ref_hash) DO NOTHING
RETURNING id, member_id, amount, reference, recorded_at
`
	out := &member.Contribution{}
	err := r.pool.QueryRow(ctx, q, in.MemberID, in.Amount, in.Reference, in.RefHash).
		Scan(&out.ID, &out.MemberID, &out.Amount, &out.Reference, &out.RecordedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return out, true, nil
}

func (r *MemberRepository) ListContributions(ctx context.Context, memberID string, limit, offset int32) ([]member.Contribution, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	q := `
SELECT id, member_id, amount, reference, recorded_at
FROM contributions
WHERE member_id = $1
ORDER BY recorded_at DESC
LIMIT $2 OFFSET $3
`
	rows, err := r.pool.Query(ctx, q, memberID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]member.Contribution, 0)
	for rows.Next() {
		var item member.Contribution
		if err := rows.Scan(&item.ID, &item.MemberID, &item.Amount, &item.Reference, &item.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
