package email

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Rohitkumar9569/ROOMRADAR-sub000/internal/config"
)

// RedisSender stores emails in Redis instead of sending them. End-to-end
// tests read them back by recipient to assert on notification behavior.
type RedisSender struct {
	client *redis.Client
	cfg    *config.Config
}

// NewRedisSender creates a new RedisSender.
func NewRedisSender(client *redis.Client, cfg *config.Config) Sender {
	return &RedisSender{client: client, cfg: cfg}
}

// Send stores a JSON representation of the email under a per-recipient key.
func (s *RedisSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	emailData := map[string]interface{}{
		"to":      to,
		"from":    s.cfg.SmtpFromAddress,
		"subject": subject,
		"body":    string(rawMessage),
		"sent_at": time.Now().Format(time.RFC3339),
	}
	payload, err := json.Marshal(emailData)
	if err != nil {
		return fmt.Errorf("failed to marshal email for redis: %w", err)
	}

	for _, recipient := range to {
		key := fmt.Sprintf("mock_email:%s", recipient)
		if err := s.client.LPush(ctx, key, payload).Err(); err != nil {
			return fmt.Errorf("failed to store email in redis for %s: %w", recipient, err)
		}
		// Keep mock inboxes from growing without bound.
		s.client.LTrim(ctx, key, 0, 99)
		s.client.Expire(ctx, key, 24*time.Hour)
	}
	return nil
}
