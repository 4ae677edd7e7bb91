package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Notification is one user-facing message: a loan decision, a payment
// receipt, or an overdue reminder.
type Notification struct {
	MemberID string
	Kind     string
	Data     map[string]any
}

// Sender delivers a notification and returns a provider message id.
type Sender interface {
	Send(ctx context.Context, n Notification) (string, error)
}

// LogSender writes notifications to the structured log. Used in local and
// test environments where no delivery gateway is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, n Notification) (string, error) {
	if n.MemberID == "" || n.Kind == "" {
		return "", fmt.Errorf("missing notification fields")
	}
	id := uuid.NewString()
	s.logger.Info("notification", "id", id, "member_id", n.MemberID, "kind", n.Kind, "data", n.Data)
	return id, nil
}
