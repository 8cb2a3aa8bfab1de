package notify

import (
	"context"

	"github.com/kislikjeka/handygo/pkg/logger"
)

// LogSender writes deliveries to the log instead of a push provider
type LogSender struct {
	logger *logger.Logger
}

// NewLogSender creates a sender that logs every message
func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{logger: log.WithComponent("push")}
}

func (s *LogSender) Send(ctx context.Context, token string, msg Message) error {
	s.logger.WithContext(ctx).Info("push notification",
		"token", maskToken(token),
		"title", msg.Title,
		"body", msg.Body,
		"data", msg.Data)
	return nil
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "****" + token[len(token)-4:]
}
