package push_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/handygo/internal/infra/gateway/push"
	"github.com/kislikjeka/handygo/internal/platform/notify"
	"github.com/kislikjeka/handygo/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New("development", io.Discard)
}

func newClient(url string) *push.Client {
	c := push.NewClient(url, "relay-key", testLogger())
	c.SetBackoff(time.Millisecond)
	return c
}

var msg = notify.Message{
	Title: "Job Request Accepted",
	Body:  "Your service request has been accepted by a handyman",
	Data:  map[string]string{"bookingId": "b-1", "status": "Accepted"},
}

func TestClient_Send_Payload(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotBody map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]string{"name": "messages/1"})
	}))
	defer server.Close()

	err := newClient(server.URL).Send(context.Background(), "device-token", msg)
	require.NoError(t, err)

	assert.Equal(t, "/messages:send", gotPath)
	assert.Equal(t, "Bearer relay-key", gotAuth)

	m := gotBody["message"].(map[string]any)
	assert.Equal(t, "device-token", m["token"])
	assert.Equal(t, "Job Request Accepted", m["notification"].(map[string]any)["title"])
	assert.Equal(t, "Accepted", m["data"].(map[string]any)["status"])
}

func TestClient_Send_Status(t *testing.T) {
	tests := []struct {
		name      string
		responses []int
		wantCalls int32
		check     func(t *testing.T, err error)
	}{
		{
			name:      "retries rate limit then succeeds",
			responses: []int{http.StatusTooManyRequests, http.StatusOK},
			wantCalls: 2,
			check:     func(t *testing.T, err error) { assert.NoError(t, err) },
		},
		{
			name:      "retries server errors",
			responses: []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusOK},
			wantCalls: 3,
			check:     func(t *testing.T, err error) { assert.NoError(t, err) },
		},
		{
			name:      "rate limit exhausted",
			responses: []int{429, 429, 429, 429},
			wantCalls: 4,
			check: func(t *testing.T, err error) {
				var rl *push.RateLimitError
				require.ErrorAs(t, err, &rl)
				assert.Equal(t, 4, rl.Attempts)
			},
		},
		{
			name:      "stale token",
			responses: []int{http.StatusNotFound},
			wantCalls: 1,
			check:     func(t *testing.T, err error) { assert.ErrorIs(t, err, push.ErrUnregistered) },
		},
		{
			name:      "bad request is not retried",
			responses: []int{http.StatusBadRequest},
			wantCalls: 1,
			check:     func(t *testing.T, err error) { assert.ErrorContains(t, err, "status 400") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := atomic.AddInt32(&calls, 1)
				status := tt.responses[n-1]
				w.WriteHeader(status)
				if status == http.StatusOK {
					json.NewEncoder(w).Encode(map[string]string{"name": "messages/1"})
				}
			}))
			defer server.Close()

			err := newClient(server.URL).Send(context.Background(), "device-token", msg)

			tt.check(t, err)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
		})
	}
}

func TestClient_Send_ContextCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := push.NewClient(server.URL, "", testLogger())
	c.SetBackoff(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.Send(ctx, "device-token", msg)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
