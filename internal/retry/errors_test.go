package retry_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"

	"FeedHarvester/internal/retry"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("discover: %w", context.DeadlineExceeded), true},
		{"net timeout", timeoutErr{}, true},
		{"dns failure", &net.DNSError{Err: "no such host", Name: "bad.example"}, true},
		{"connection refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"connection reset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"server error", &retry.HTTPError{URL: "u", StatusCode: 503}, true},
		{"too many requests", &retry.HTTPError{URL: "u", StatusCode: 429}, true},
		{"client error", &retry.HTTPError{URL: "u", StatusCode: 404}, false},
		{"forbidden", &retry.HTTPError{URL: "u", StatusCode: 403}, false},
		{"plain error", errors.New("malformed feed"), false},
		{"permanent wrapper", retry.Permanent(context.DeadlineExceeded), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, retry.IsTransient(tc.err))
		})
	}
}

func TestPermanentPreservesCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("bad selector")
	err := retry.Permanent(fmt.Errorf("parse: %w", cause))
	require.ErrorIs(t, err, cause)
	require.False(t, retry.IsTransient(err))
}

func TestPermanentNil(t *testing.T) {
	t.Parallel()

	require.NoError(t, retry.Permanent(nil))
}
