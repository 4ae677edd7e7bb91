package observability

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger: JSON in production for the log
// pipeline, plain text everywhere else.
func NewLogger(env string) *slog.Logger {
	if env == "prod" || env == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
