package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

type PaymentEvent struct {
	ID            int64
	LoanID        string
	InstallmentID string
	MemberID      string
	Amount        int64
	PenaltyPaid   int64
	RecordedAt    time.Time
}

type PaymentFeedRepository interface {
	ListPaymentsSince(ctx context.Context, lastID int64, limit int32) ([]PaymentEvent, error)
}

// Notifier tails the payment log and fans new repayments out to subscribed
// websocket clients.
type Notifier struct {
	repo         PaymentFeedRepository
	hub          *Hub
	logger       *slog.Logger
	pollInterval time.Duration
	lastID       int64
}

func NewNotifier(repo PaymentFeedRepository, hub *Hub, logger *slog.Logger, pollInterval time.Duration) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &Notifier{repo: repo, hub: hub, logger: logger, pollInterval: pollInterval}
}

// Run polls until the context is cancelled. A failed poll is logged and the
// next tick retries it, so a transient database error does not take the feed
// down with it.
func (n *Notifier) Run(ctx context.Context) error {
	ticker := time.NewTicker(n.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := n.tick(ctx); err != nil {
				n.logger.Error("payment feed poll failed", "err", err)
			}
		}
	}
}

func (n *Notifier) tick(ctx context.Context) error {
	events, err := n.repo.ListPaymentsSince(ctx, n.lastID, 100)
	if err != nil {
		return err
	}
	for _, ev := range events {
		if ev.ID > n.lastID {
			n.lastID = ev.ID
		}
		payload, _ := json.Marshal(map[string]any{
			"event": "repayment_recorded",
			"data": map[string]any{
				"loan_id":        ev.LoanID,
				"installment_id": ev.InstallmentID,
				"member_id":      ev.MemberID,
				"amount":         ev.Amount,
				"penalty_paid":   ev.PenaltyPaid,
				"recorded_at":    ev.RecordedAt.UTC().Format(time.RFC3339),
			},
		})
		n.hub.Publish("member:repayments:"+ev.MemberID, payload)

		activityPayload, _ := json.Marshal(map[string]any{
			"event": "repayment_recorded",
			"data": map[string]any{
				"loan_id": ev.LoanID,
				"amount":  ev.Amount,
			},
		})
		n.hub.Publish("coop:activity", activityPayload)
	}
	return nil
}
