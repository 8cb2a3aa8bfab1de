package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kislikjeka/handygo/internal/platform/notify"
	"github.com/kislikjeka/handygo/pkg/logger"
)

const (
	requestTimeout = 10 * time.Second
	maxRetries     = 3
)

// Client delivers notifications through an HTTP push relay that forwards
// FCM-shaped messages to devices
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	backoff    time.Duration
	logger     *logger.Logger
}

// NewClient creates a relay client
func NewClient(baseURL, apiKey string, log *logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		backoff: time.Second,
		logger:  log.WithComponent("push_relay"),
	}
}

// SetBackoff overrides the first retry delay (useful for testing)
func (c *Client) SetBackoff(d time.Duration) {
	c.backoff = d
}

var _ notify.Sender = (*Client)(nil)

// Send posts one message. 429 and 5xx answers are retried with exponential
// backoff; 404 means the token is stale.
func (c *Client) Send(ctx context.Context, token string, msg notify.Message) error {
	payload, err := json.Marshal(sendRequest{Message: message{
		Token:        token,
		Notification: notification{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data,
	}})
	if err != nil {
		return fmt.Errorf("failed to marshal push message: %w", err)
	}

	backoff := c.backoff
	for attempt := 0; attempt <= maxRetries; attempt++ {
		status, body, err := c.post(ctx, payload)
		if err != nil {
			return err
		}

		switch {
		case status == http.StatusOK:
			var resp sendResponse
			if err := json.Unmarshal(body, &resp); err == nil && resp.Name != "" {
				c.logger.WithContext(ctx).Debug("push delivered", "message", resp.Name)
			}
			return nil
		case status == http.StatusNotFound:
			return ErrUnregistered
		case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
			if attempt == maxRetries {
				if status == http.StatusTooManyRequests {
					return &RateLimitError{RetryAfter: backoff, Attempts: attempt + 1}
				}
				return fmt.Errorf("push relay error: status %d after %d attempts", status, attempt+1)
			}
			c.logger.Warn("push relay busy, retrying", "status_code", status, "attempt", attempt, "backoff_ms", backoff.Milliseconds())
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		default:
			return fmt.Errorf("push relay error: status %d, body: %s", status, string(body))
		}
	}

	return fmt.Errorf("push relay: exhausted retries")
}

func (c *Client) post(ctx context.Context, payload []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages:send", bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}
