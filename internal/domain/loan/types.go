package loan

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusDisbursed = "disbursed"
	StatusRepaid    = "repaid"
)

const (
	InstallmentPending = "pending"
	InstallmentPartial = "partial"
	InstallmentPaid    = "paid"
	InstallmentOverdue = "overdue"
)

var ErrNotFound = errors.New("not found")

// ValidationError carries a machine code and a message suitable for direct
// display to the member or admin who triggered the operation.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Code + ": " + e.Message
}

func validationErrorf(code, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Application is one member's loan request. Amounts are whole currency units.
type Application struct {
	ID              string     `json:"id"`
	MemberID        string     `json:"member_id"`
	Amount          int64      `json:"amount"`
	Purpose         string     `json:"purpose"`
	DurationMonths  int        `json:"duration_months"`
	Tier            string     `json:"tier"`
	Contribution    int64      `json:"contribution"`
	InterestRateBPS int32      `json:"interest_rate_bps"`
	TotalInterest   int64      `json:"total_interest"`
	TotalRepayment  int64      `json:"total_repayment"`
	MonthlyPayment  int64      `json:"monthly_payment"`
	Status          string     `json:"status"`
	RejectReason    string     `json:"reject_reason,omitempty"`
	ReviewedBy      string     `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	DisbursedAt     *time.Time `json:"disbursed_at,omitempty"`
	RepaidAt        *time.Time `json:"repaid_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Installment is one scheduled payment within a loan. Total is fixed at
// creation as Principal + Interest; PaidAmount only ever grows.
type Installment struct {
	ID          string    `json:"id"`
	LoanID      string    `json:"loan_id"`
	MemberID    string    `json:"member_id"`
	Number      int       `json:"number"`
	DueDate     time.Time `json:"due_date"`
	Principal   int64     `json:"principal"`
	Interest    int64     `json:"interest"`
	Total       int64     `json:"total"`
	PaidAmount  int64     `json:"paid_amount"`
	Status      string    `json:"status"`
	Penalty     int64     `json:"penalty"`
	DaysOverdue int       `json:"days_overdue"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Payment is an immutable receipt of funds applied to one installment.
type Payment struct {
	ID            int64     `json:"id"`
	LoanID        string    `json:"loan_id"`
	InstallmentID string    `json:"installment_id"`
	MemberID      string    `json:"member_id"`
	Amount        int64     `json:"amount"`
	PenaltyPaid   int64     `json:"penalty_paid"`
	Reference     string    `json:"reference"`
	RecordedAt    time.Time `json:"recorded_at"`
}

type CreateApplicationInput struct {
	MemberID        string
	Amount          int64
	Purpose         string
	DurationMonths  int
	Tier            string
	Contribution    int64
	InterestRateBPS int32
	TotalInterest   int64
	TotalRepayment  int64
	MonthlyPayment  int64
}

type CreateInstallmentInput struct {
	LoanID    string
	MemberID  string
	Number    int
	DueDate   time.Time
	Principal int64
	Interest  int64
	Total     int64
}

type AppendPaymentInput struct {
	LoanID        string
	InstallmentID string
	MemberID      string
	Amount        int64
	PenaltyPaid   int64
	Reference     string
	RecordedAt    time.Time
}

type ListFilter struct {
	MemberID string
	Status   string
	Limit    int32
	Offset   int32
}

type Stats struct {
	TotalApplications    int64   `json:"total_applications"`
	PendingLoans         int64   `json:"pending_loans"`
	ApprovedLoans        int64   `json:"approved_loans"`
	DisbursedLoans       int64   `json:"disbursed_loans"`
	RepaidLoans          int64   `json:"repaid_loans"`
	RejectedLoans        int64   `json:"rejected_loans"`
	TotalPrincipal       int64   `json:"total_principal"`
	TotalOutstanding     int64   `json:"total_outstanding"`
	RepaymentRatePercent float64 `json:"repayment_rate_percent"`
}

type ApplicationRepository interface {
	Create(ctx context.Context, in CreateApplicationInput) (*Application, error)
	GetByID(ctx context.Context, id string) (*Application, error)
	List(ctx context.Context, f ListFilter) ([]Application, error)
	HasActiveLoan(ctx context.Context, memberID string) (bool, error)
	UpdateDecision(ctx context.Context, id, status, reviewerID, reason string, reviewedAt time.Time) error
	MarkDisbursed(ctx context.Context, id string, at time.Time) error
	MarkRepaid(ctx context.Context, id string, at time.Time) error
	GetStats(ctx context.Context) (*Stats, error)
}

type InstallmentRepository interface {
	Create(ctx context.Context, in CreateInstallmentInput) (*Installment, error)
	GetByID(ctx context.Context, id string) (*Installment, error)
	ListByLoan(ctx context.Context, loanID string) ([]Installment, error)
	ApplyPayment(ctx context.Context, id string, paidAmount int64, status string, penalty int64, daysOverdue int) error
}

type PaymentRepository interface {
	Append(ctx context.Context, in AppendPaymentInput) (*Payment, error)
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, topic string, payload []byte) error
}

// ContributionSource reports a member's cumulative contribution, the input to
// the tier policy at application time.
type ContributionSource interface {
	GetContributionTotal(ctx context.Context, memberID string) (int64, error)
}
