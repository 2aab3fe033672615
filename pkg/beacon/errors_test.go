package beacon_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaconhq/beacon-go/pkg/beacon"
)

func TestSendError(t *testing.T) {
	t.Run("formats with status code", func(t *testing.T) {
		err := &beacon.SendError{StatusCode: 503, Err: errors.New("service unavailable")}
		assert.Equal(t, "send failed with status 503: service unavailable", err.Error())
	})

	t.Run("formats without status code", func(t *testing.T) {
		err := &beacon.SendError{Err: errors.New("connection refused")}
		assert.Equal(t, "send failed: connection refused", err.Error())
	})

	t.Run("unwraps to the underlying error", func(t *testing.T) {
		err := &beacon.SendError{StatusCode: 401, Err: beacon.ErrUnauthorized}
		assert.ErrorIs(t, err, beacon.ErrUnauthorized)

		var sendErr *beacon.SendError
		require.ErrorAs(t, error(err), &sendErr)
		assert.Equal(t, 401, sendErr.StatusCode)
	})
}

func TestHookPanicError(t *testing.T) {
	err := &beacon.HookPanicError{
		HookIndex: 2,
		EventName: "signup",
		Value:     "boom",
		Stack:     "goroutine 1 [running]:",
	}

	assert.Equal(t, `hook 2 panicked on event "signup": boom`, err.Error())
}
