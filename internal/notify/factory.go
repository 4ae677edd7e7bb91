package notify

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/agricoop/backend/internal/config"
)

func NewSenderFromConfig(cfg config.Config, logger *slog.Logger) (Sender, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.NotifyMode))
	if mode == "" || mode == "log" {
		return NewLogSender(logger), nil
	}
	if mode != "webhook" {
		return nil, fmt.Errorf("invalid NOTIFY_MODE: %s", cfg.NotifyMode)
	}
	return NewWebhookSender(cfg.NotifyWebhookURL)
}
