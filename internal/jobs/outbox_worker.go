package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/agricoop/backend/internal/notify"
)

const (
	loanDecisionTopic       = "loan_decision"
	paymentReceiptTopic     = "payment_receipt"
	installmentOverdueTopic = "installment_overdue"
)

type OutboxJob struct {
	ID          int64
	Topic       string
	Payload     []byte
	Status      string
	Attempts    int32
	LastError   string
	AvailableAt time.Time
}

type OutboxRepository interface {
	ClaimPending(ctx context.Context, limit int32) ([]OutboxJob, error)
	MarkDone(ctx context.Context, jobID int64) error
	MarkRetry(ctx context.Context, jobID int64, nextAvailableAt time.Time, lastError string) error
	MarkFailed(ctx context.Context, jobID int64, lastError string) error
}

type Worker struct {
	outboxRepo   OutboxRepository
	sender       notify.Sender
	maxAttempts  int32
	now          func() time.Time
	retryBackoff func(attempt int32) time.Duration
}

func NewWorker(outboxRepo OutboxRepository, sender notify.Sender) *Worker {
	return &Worker{
		outboxRepo:  outboxRepo,
		sender:      sender,
		maxAttempts: 5,
		now:         func() time.Time { return time.Now().UTC() },
		retryBackoff: func(attempt int32) time.Duration {
			if attempt < 1 {
				attempt = 1
			}
			return time.Duration(attempt*15) * time.Second
		},
	}
}

func (w *Worker) RunOnce(ctx context.Context, batchSize int32) error {
	jobs, err := w.outboxRepo.ClaimPending(ctx, batchSize)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			return err
		}
	}

	return nil
}

func (w *Worker) processJob(ctx context.Context, job OutboxJob) error {
	switch job.Topic {
	case loanDecisionTopic, paymentReceiptTopic, installmentOverdueTopic:
		return w.deliver(ctx, job)
	default:
		if job.Attempts >= w.maxAttempts {
			return w.outboxRepo.MarkFailed(ctx, job.ID, "unsupported_topic")
		}
		next := w.now().Add(w.retryBackoff(job.Attempts))
		return w.outboxRepo.MarkRetry(ctx, job.ID, next, "unsupported_topic")
	}
}

func (w *Worker) deliver(ctx context.Context, job OutboxJob) error {
	var data map[string]any
	if err := json.Unmarshal(job.Payload, &data); err != nil {
		return w.handleJobError(ctx, job, fmt.Errorf("invalid_payload"))
	}
	memberID, _ := data["member_id"].(string)
	if memberID == "" {
		return w.handleJobError(ctx, job, errors.New("missing_member_id"))
	}
	delete(data, "member_id")

	if _, err := w.sender.Send(ctx, notify.Notification{
		MemberID: memberID,
		Kind:     job.Topic,
		Data:     data,
	}); err != nil {
		return w.handleJobError(ctx, job, err)
	}

	return w.outboxRepo.MarkDone(ctx, job.ID)
}

func (w *Worker) handleJobError(ctx context.Context, job OutboxJob, err error) error {
	msg := err.Error()
	if job.Attempts >= w.maxAttempts {
		return w.outboxRepo.MarkFailed(ctx, job.ID, msg)
	}
	next := w.now().Add(w.retryBackoff(job.Attempts))
	return w.outboxRepo.MarkRetry(ctx, job.ID, next, msg)
}
