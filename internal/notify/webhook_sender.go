package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// WebhookSender posts notifications to the cooperative's delivery gateway,
// which fans them out over SMS and email.
type WebhookSender struct {
	url        string
	httpClient *http.Client
}

func NewWebhookSender(url string) (*WebhookSender, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("missing NOTIFY_WEBHOOK_URL")
	}
	return &WebhookSender{
		url:        strings.TrimSpace(url),
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}, nil
}

func (s *WebhookSender) Send(ctx context.Context, n Notification) (string, error) {
	if strings.TrimSpace(n.MemberID) == "" || strings.TrimSpace(n.Kind) == "" {
		return "", fmt.Errorf("missing notification fields")
	}

	reqBody, _ := json.Marshal(map[string]any{
		"member_id": n.MemberID,
		"kind":      n.Kind,
		"data":      n.Data,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("gateway status %d", resp.StatusCode)
	}

	var payload struct {
		MessageID string `json:"message_id"`
		Error     string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if payload.Error != "" {
		return "", fmt.Errorf("gateway error: %s", payload.Error)
	}
	if payload.MessageID == "" {
		return "", fmt.Errorf("gateway empty message id")
	}
	return payload.MessageID, nil
}
