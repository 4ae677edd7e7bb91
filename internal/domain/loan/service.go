package loan

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/agricoop/backend/internal/domain/tier"
)

const (
	outboxTopicLoanDecision   = "loan_decision"
	outboxTopicPaymentReceipt = "payment_receipt"
)

type Service struct {
	appRepo       ApplicationRepository
	instRepo      InstallmentRepository
	payRepo       PaymentRepository
	contributions ContributionSource
	outboxRepo    OutboxRepository
	now           func() time.Time
}

func NewService(appRepo ApplicationRepository, instRepo InstallmentRepository, payRepo PaymentRepository, contributions ContributionSource, outboxRepo OutboxRepository) *Service {
	return &Service{
		appRepo:       appRepo,
		instRepo:      instRepo,
		payRepo:       payRepo,
		contributions: contributions,
		outboxRepo:    outboxRepo,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

type SubmitInput struct {
	MemberID       string
	Amount         int64
	Purpose        string
	DurationMonths int
	Tier           string
}

// Submit validates a new application against the tier policy and eligibility
// rules, computes the repayment summary, and persists it as pending.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Application, error) {
	if strings.TrimSpace(in.MemberID) == "" {
		return nil, validationErrorf("missing_member_id", "member id is required")
	}
	if in.Amount <= 0 {
		return nil, validationErrorf("invalid_amount", "loan amount must be a positive number")
	}
	if in.DurationMonths <= 0 {
		return nil, validationErrorf("invalid_duration", "loan duration must be at least one month")
	}

	contribution, err := s.contributions.GetContributionTotal(ctx, in.MemberID)
	if err != nil {
		return nil, err
	}

	implied := tier.ForContribution(contribution)
	if requested := tier.Tier(strings.TrimSpace(in.Tier)); requested != "" && requested != implied {
		return nil, validationErrorf("tier_mismatch",
			"requested tier %s does not match the %s tier implied by your contribution of %d",
			requested, implied, contribution)
	}

	active, err := s.appRepo.HasActiveLoan(ctx, in.MemberID)
	if err != nil {
		return nil, err
	}
	if result := CheckEligibility(contribution, in.Amount, active); !result.Eligible {
		return nil, validationErrorf("ineligible", "%s", result.Reason)
	}

	limits := tier.LimitsFor(implied)
	if in.DurationMonths > limits.MaxDurationMonths {
		return nil, validationErrorf("duration_exceeds_tier",
			"duration of %d months exceeds the %s tier maximum of %d months",
			in.DurationMonths, implied, limits.MaxDurationMonths)
	}

	totalInterest := TotalInterest(in.Amount, limits.InterestRateBPS, in.DurationMonths)
	totalRepayment := in.Amount + totalInterest

	return s.appRepo.Create(ctx, CreateApplicationInput{
		MemberID:        in.MemberID,
		Amount:          in.Amount,
		Purpose:         strings.TrimSpace(in.Purpose),
		DurationMonths:  in.DurationMonths,
		Tier:            string(implied),
		Contribution:    contribution,
		InterestRateBPS: limits.InterestRateBPS,
		TotalInterest:   totalInterest,
		TotalRepayment:  totalRepayment,
		MonthlyPayment:  MonthlyPayment(totalRepayment, in.DurationMonths),
	})
}

func (s *Service) Get(ctx context.Context, loanID string) (*Application, error) {
	return s.appRepo.GetByID(ctx, loanID)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Application, error) {
	return s.appRepo.List(ctx, f)
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.appRepo.GetStats(ctx)
}

// Approve moves a pending application to approved and records the reviewer.
func (s *Service) Approve(ctx context.Context, loanID, reviewerID string) (*Application, error) {
	return s.decide(ctx, loanID, reviewerID, StatusApproved, "")
}

// Reject moves a pending application to rejected with a reason.
func (s *Service) Reject(ctx context.Context, loanID, reviewerID, reason string) (*Application, error) {
	return s.decide(ctx, loanID, reviewerID, StatusRejected, strings.TrimSpace(reason))
}

func (s *Service) decide(ctx context.Context, loanID, reviewerID, status, reason string) (*Application, error) {
	app, err := s.appRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if app.Status != StatusPending {
		return nil, validationErrorf("invalid_status",
			"only pending applications can be reviewed (current status: %s)", app.Status)
	}

	reviewedAt := s.now()
	if err := s.appRepo.UpdateDecision(ctx, loanID, status, reviewerID, reason, reviewedAt); err != nil {
		return nil, err
	}

	payload, _ := json.Marshal(map[string]any{
		"member_id": app.MemberID,
		"loan_id":   app.ID,
		"status":    status,
		"reason":    reason,
	})
	if err := s.outboxRepo.Enqueue(ctx, outboxTopicLoanDecision, payload); err != nil {
		return nil, err
	}

	app.Status = status
	app.RejectReason = reason
	app.ReviewedBy = reviewerID
	app.ReviewedAt = &reviewedAt
	return app, nil
}

// Disburse releases the funds of an approved loan and starts the repayment
// clock. The transfer itself happens outside this service.
func (s *Service) Disburse(ctx context.Context, loanID, reviewerID string) (*Application, error) {
	app, err := s.appRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if app.Status != StatusApproved {
		return nil, validationErrorf("invalid_status",
			"only approved loans can be disbursed (current status: %s)", app.Status)
	}

	disbursedAt := s.now()
	if err := s.appRepo.MarkDisbursed(ctx, loanID, disbursedAt); err != nil {
		return nil, err
	}

	payload, _ := json.Marshal(map[string]any{
		"member_id": app.MemberID,
		"loan_id":   app.ID,
		"status":    StatusDisbursed,
	})
	if err := s.outboxRepo.Enqueue(ctx, outboxTopicLoanDecision, payload); err != nil {
		return nil, err
	}

	app.Status = StatusDisbursed
	app.DisbursedAt = &disbursedAt
	return app, nil
}

// Schedule returns the loan's installments, generating and persisting them on
// first call. The existence check makes re-invocation an idempotent read;
// concurrent first calls are not guarded against and a failure partway through
// the installment writes leaves a partial set behind.
func (s *Service) Schedule(ctx context.Context, loanID string) ([]Installment, error) {
	app, err := s.appRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	existing, err := s.instRepo.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	switch app.Status {
	case StatusApproved, StatusDisbursed:
	default:
		return nil, validationErrorf("invalid_status",
			"repayment schedule is only available once the loan is approved (current status: %s)", app.Status)
	}

	start := s.now()
	if app.DisbursedAt != nil {
		start = *app.DisbursedAt
	}

	lines := GenerateSchedule(app.Amount, app.InterestRateBPS, app.DurationMonths, start)
	out := make([]Installment, 0, len(lines))
	for _, line := range lines {
		created, err := s.instRepo.Create(ctx, CreateInstallmentInput{
			LoanID:    app.ID,
			MemberID:  app.MemberID,
			Number:    line.Number,
			DueDate:   line.DueDate,
			Principal: line.Principal,
			Interest:  line.Interest,
			Total:     line.Total,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, *created)
	}
	return out, nil
}

type RepaymentInput struct {
	LoanID        string
	InstallmentID string
	MemberID      string
	Amount        int64
	Reference     string
}

type RepaymentResult struct {
	Installment *Installment `json:"installment"`
	Payment     *Payment     `json:"payment"`
	LoanRepaid  bool         `json:"loan_repaid"`
}

// SubmitRepayment applies a payment to an installment: the accrued penalty is
// computed against the due date, the paid amount grows monotonically, the
// installment status is recomputed, an immutable payment record is appended,
// and the loan flips to repaid once every installment is paid.
func (s *Service) SubmitRepayment(ctx context.Context, in RepaymentInput) (*RepaymentResult, error) {
	if in.Amount <= 0 {
		return nil, validationErrorf("invalid_amount", "payment amount must be a positive number")
	}

	inst, err := s.instRepo.GetByID(ctx, in.InstallmentID)
	if err != nil {
		return nil, err
	}
	if inst.LoanID != in.LoanID {
		return nil, ErrNotFound
	}

	now := s.now()
	penalty, daysOverdue := ComputePenalty(inst.DueDate, inst.Total, now)

	paidAmount := inst.PaidAmount + in.Amount
	status := InstallmentPending
	switch {
	case paidAmount >= inst.Total+penalty:
		status = InstallmentPaid
	case paidAmount > 0:
		status = InstallmentPartial
	case now.After(inst.DueDate):
		status = InstallmentOverdue
	}

	if err := s.instRepo.ApplyPayment(ctx, inst.ID, paidAmount, status, penalty, daysOverdue); err != nil {
		return nil, err
	}

	penaltyPaid := in.Amount
	if penaltyPaid > penalty {
		penaltyPaid = penalty
	}
	payment, err := s.payRepo.Append(ctx, AppendPaymentInput{
		LoanID:        inst.LoanID,
		InstallmentID: inst.ID,
		MemberID:      inst.MemberID,
		Amount:        in.Amount,
		PenaltyPaid:   penaltyPaid,
		Reference:     strings.TrimSpace(in.Reference),
		RecordedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	payload, _ := json.Marshal(map[string]any{
		"member_id":          inst.MemberID,
		"loan_id":            inst.LoanID,
		"installment_number": inst.Number,
		"amount":             in.Amount,
		"penalty":            penalty,
		"status":             status,
	})
	if err := s.outboxRepo.Enqueue(ctx, outboxTopicPaymentReceipt, payload); err != nil {
		return nil, err
	}

	inst.PaidAmount = paidAmount
	inst.Status = status
	inst.Penalty = penalty
	inst.DaysOverdue = daysOverdue

	loanRepaid := false
	if status == InstallmentPaid {
		all, err := s.instRepo.ListByLoan(ctx, inst.LoanID)
		if err != nil {
			return nil, err
		}
		loanRepaid = len(all) > 0
		for _, item := range all {
			if item.Status != InstallmentPaid {
				loanRepaid = false
				break
			}
		}
		if loanRepaid {
			if err := s.appRepo.MarkRepaid(ctx, inst.LoanID, now); err != nil {
				return nil, err
			}
		}
	}

	return &RepaymentResult{Installment: inst, Payment: payment, LoanRepaid: loanRepaid}, nil
}
