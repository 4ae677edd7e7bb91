package postgres

import (
	"context"

	"github.com/agricoop/backend/internal/domain/admin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Log(ctx context.Context, in admin.AuditLogInput) error {
	q := `
INSERT INTO admin_audit_log (admin_user_id, action, target_type, target_id, payload)
VALUES ($1, $2, $3, $4, $5::jsonb)
`
	_, err := r.pool.Exec(ctx, q, in.AdminUserID, in.Action, in.TargetType, in.TargetID, in.Payload)
	return err
}
