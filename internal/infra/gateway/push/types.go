package push

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnregistered reports a device token the relay no longer recognises
var ErrUnregistered = errors.New("push token is not registered")

// sendRequest mirrors the FCM v1 message envelope accepted by the relay
type sendRequest struct {
	Message message `json:"message"`
}

type message struct {
	Token        string            `json:"token"`
	Notification notification      `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// sendResponse carries the provider message name
type sendResponse struct {
	Name string `json:"name"`
}

// RateLimitError is returned when the relay keeps answering 429
type RateLimitError struct {
	RetryAfter time.Duration
	Attempts   int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("push relay rate limited after %d attempts, retry after %s", e.Attempts, e.RetryAfter)
}
