package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errBookingNotFound = NotFound("booking")

func TestSentinelSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("failed to cancel booking: %w", errBookingNotFound)

	assert.True(t, errors.Is(err, errBookingNotFound))
	assert.True(t, IsAppError(err))
	assert.Equal(t, ErrCodeNotFound, CodeOf(err))
	assert.Equal(t, "failed to cancel booking: booking not found", err.Error())
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "validation", err: Validationf("quantity must be at least %d", 1), want: ErrCodeValidation},
		{name: "transition", err: InvalidTransition("cannot cancel"), want: ErrCodeInvalidTransition},
		{name: "balance", err: InsufficientBalance("short"), want: ErrCodeInsufficientBalance},
		{name: "plain error is upstream", err: errors.New("connection reset"), want: ErrCodeUpstream},
		{name: "wrapped upstream", err: Upstream("store unavailable", errors.New("eof")), want: ErrCodeUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
			assert.True(t, HasCode(tt.err, tt.want))
		})
	}
}

func TestWrap_Unwrap(t *testing.T) {
	cause := errors.New("pool closed")
	err := Wrap(cause, ErrCodeUpstream, "failed to load booking")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to load booking: pool closed", err.Error())
	assert.Nil(t, GetAppError(cause))
}
