package admin

import (
	"context"
	"encoding/json"
	"strings"

	loandomain "github.com/agricoop/backend/internal/domain/loan"
)

type LoanDecider interface {
	Approve(ctx context.Context, loanID, reviewerID string) (*loandomain.Application, error)
	Reject(ctx context.Context, loanID, reviewerID, reason string) (*loandomain.Application, error)
	Disburse(ctx context.Context, loanID, reviewerID string) (*loandomain.Application, error)
}

type AuditRepository interface {
	Log(ctx context.Context, in AuditLogInput) error
}

type AuditLogInput struct {
	AdminUserID string
	Action      string
	TargetType  string
	TargetID    string
	Payload     []byte
}

type Service struct {
	decider   LoanDecider
	auditRepo AuditRepository
}

func NewService(decider LoanDecider, auditRepo AuditRepository) *Service {
	return &Service{decider: decider, auditRepo: auditRepo}
}

func (s *Service) ApproveLoan(ctx context.Context, adminUserID, loanID string) (*loandomain.Application, error) {
	app, err := s.decider.Approve(ctx, loanID, adminUserID)
	if err != nil {
		return nil, err
	}
	payload, _ := json.Marshal(map[string]any{"member_id": app.MemberID, "amount": app.Amount, "tier": app.Tier})
	_ = s.auditRepo.Log(ctx, AuditLogInput{
		AdminUserID: adminUserID,
		Action:      "loan_approved",
		TargetType:  "loan_application",
		TargetID:    app.ID,
		Payload:     payload,
	})
	return app, nil
}

func (s *Service) RejectLoan(ctx context.Context, adminUserID, loanID, reason string) (*loandomain.Application, error) {
	reason = strings.TrimSpace(reason)
	app, err := s.decider.Reject(ctx, loanID, adminUserID, reason)
	if err != nil {
		return nil, err
	}
	payload, _ := json.Marshal(map[string]any{"member_id": app.MemberID, "reason": reason})
	_ = s.auditRepo.Log(ctx, AuditLogInput{
		AdminUserID: adminUserID,
		Action:      "loan_rejected",
		TargetType:  "loan_application",
		TargetID:    app.ID,
		Payload:     payload,
	})
	return app, nil
}

func (s *Service) DisburseLoan(ctx context.Context, adminUserID, loanID string) (*loandomain.Application, error) {
	app, err := s.decider.Disburse(ctx, loanID, adminUserID)
	if err != nil {
		return nil, err
	}
	payload, _ := json.Marshal(map[string]any{"member_id": app.MemberID, "amount": app.Amount})
	_ = s.auditRepo.Log(ctx, AuditLogInput{
		AdminUserID: adminUserID,
		Action:      "loan_disbursed",
		TargetType:  "loan_application",
		TargetID:    app.ID,
		Payload:     payload,
	})
	return app, nil
}
