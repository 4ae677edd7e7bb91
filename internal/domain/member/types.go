package member

import (
	"context"
	"time"
)

type Entity struct {
	ID        string    `json:"id"`
	MemberRef string    `json:"member_ref"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	JoinedAt  time.Time `json:"joined_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Contribution struct {
	ID         int64     `json:"id"`
	MemberID   string    `json:"member_id"`
	Amount     int64     `json:"amount"`
	Reference  string    `json:"reference"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Profile is a member together with the contribution-derived lending state.
type Profile struct {
	Member            Entity `json:"member"`
	ContributionTotal int64  `json:"contribution_total"`
	Tier              string `json:"tier"`
	MaxLoanAmount     int64  `json:"max_loan_amount"`
}

type AddContributionInput struct {
	MemberID  string
	Amount    int64
	Reference string
	// RefHash deduplicates imports; rows with an already-seen hash are skipped.
	RefHash []byte
}

type Repository interface {
	GetByID(ctx context.Context, id string) (*Entity, error)
	GetByRef(ctx context.Context, memberRef string) (*Entity, error)
	GetContributionTotal(ctx context.Context, memberID string) (int64, error)
	AddContribution(ctx context.Context, in AddContributionInput) (*Contribution, bool, error)
	ListContributions(ctx context.Context, memberID string, limit, offset int32) ([]Contribution, error)
}
