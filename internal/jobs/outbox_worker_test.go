package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agricoop/backend/internal/notify"
)

type outboxRepoMock struct {
	jobs []OutboxJob

	doneIDs    []int64
	retryIDs   []int64
	retryAt    []time.Time
	retryErrs  []string
	failedIDs  []int64
	failedErrs []string
}

func (m *outboxRepoMock) ClaimPending(_ context.Context, _ int32) ([]OutboxJob, error) {
	return m.jobs, nil
}

func (m *outboxRepoMock) MarkDone(_ context.Context, jobID int64) error {
	m.doneIDs = append(m.doneIDs, jobID)
	return nil
}

func (m *outboxRepoMock) MarkRetry(_ context.Context, jobID int64, nextAvailableAt time.Time, lastError string) error {
	m.retryIDs = append(m.retryIDs, jobID)
	m.retryAt = append(m.retryAt, nextAvailableAt)
	m.retryErrs = append(m.retryErrs, lastError)
	return nil
}

func (m *outboxRepoMock) MarkFailed(_ context.Context, jobID int64, lastError string) error {
	m.failedIDs = append(m.failedIDs, jobID)
	m.failedErrs = append(m.failedErrs, lastError)
	return nil
}

type senderMock struct {
	sent []notify.Notification
	err  error
}

func (m *senderMock) Send(_ context.Context, n notify.Notification) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.sent = append(m.sent, n)
	return "msg-1", nil
}

func TestWorkerDeliversAndMarksDone(t *testing.T) {
	repo := &outboxRepoMock{jobs: []OutboxJob{
		{ID: 1, Topic: "loan_decision", Payload: []byte(`{"member_id":"m-1","loan_id":"l-1","status":"approved"}`), Attempts: 1},
		{ID: 2, Topic: "payment_receipt", Payload: []byte(`{"member_id":"m-2","amount":5000}`), Attempts: 1},
	}}
	sender := &senderMock{}
	w := NewWorker(repo, sender)

	if err := w.RunOnce(context.Background(), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.doneIDs) != 2 {
		t.Fatalf("expected 2 jobs done, got %v", repo.doneIDs)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(sender.sent))
	}
	if sender.sent[0].MemberID != "m-1" || sender.sent[0].Kind != "loan_decision" {
		t.Fatalf("unexpected notification: %+v", sender.sent[0])
	}
	// The routing key is stripped from the delivered data.
	if _, ok := sender.sent[0].Data["member_id"]; ok {
		t.Fatalf("member_id should not appear in notification data")
	}
	if sender.sent[0].Data["loan_id"] != "l-1" {
		t.Fatalf("unexpected data: %+v", sender.sent[0].Data)
	}
}

func TestWorkerRetriesWithBackoff(t *testing.T) {
	repo := &outboxRepoMock{jobs: []OutboxJob{
		{ID: 7, Topic: "payment_receipt", Payload: []byte(`{"member_id":"m-1"}`), Attempts: 2},
	}}
	sender := &senderMock{err: errors.New("gateway unavailable")}
	w := NewWorker(repo, sender)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	if err := w.RunOnce(context.Background(), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.retryIDs) != 1 || repo.retryIDs[0] != 7 {
		t.Fatalf("expected one retry, got %v", repo.retryIDs)
	}
	if want := now.Add(30 * time.Second); !repo.retryAt[0].Equal(want) {
		t.Fatalf("retry at %s, want %s", repo.retryAt[0], want)
	}
	if repo.retryErrs[0] != "gateway unavailable" {
		t.Fatalf("unexpected retry error: %s", repo.retryErrs[0])
	}
}

func TestWorkerFailsAfterMaxAttempts(t *testing.T) {
	repo := &outboxRepoMock{jobs: []OutboxJob{
		{ID: 9, Topic: "payment_receipt", Payload: []byte(`{"member_id":"m-1"}`), Attempts: 5},
	}}
	sender := &senderMock{err: errors.New("gateway unavailable")}
	w := NewWorker(repo, sender)

	if err := w.RunOnce(context.Background(), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.failedIDs) != 1 || repo.failedIDs[0] != 9 {
		t.Fatalf("expected job 9 failed, got %v", repo.failedIDs)
	}
}

func TestWorkerRejectsMalformedPayload(t *testing.T) {
	repo := &outboxRepoMock{jobs: []OutboxJob{
		{ID: 3, Topic: "loan_decision", Payload: []byte(`not-json`), Attempts: 1},
		{ID: 4, Topic: "loan_decision", Payload: []byte(`{"loan_id":"l-1"}`), Attempts: 1},
	}}
	sender := &senderMock{}
	w := NewWorker(repo, sender)

	if err := w.RunOnce(context.Background(), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.retryIDs) != 2 {
		t.Fatalf("expected both bad jobs retried, got %v", repo.retryIDs)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("nothing should have been delivered")
	}
}

func TestWorkerFailsUnknownTopic(t *testing.T) {
	repo := &outboxRepoMock{jobs: []OutboxJob{
		{ID: 5, Topic: "mystery", Payload: []byte(`{}`), Attempts: 5},
	}}
	w := NewWorker(repo, &senderMock{})

	if err := w.RunOnce(context.Background(), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.failedIDs) != 1 || repo.failedErrs[0] != "unsupported_topic" {
		t.Fatalf("expected unsupported_topic failure, got %v %v", repo.failedIDs, repo.failedErrs)
	}
}
