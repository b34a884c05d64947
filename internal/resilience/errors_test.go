package resilience

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "dial timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicit", NewTransientError(errors.New("429"), http.StatusTooManyRequests), true},
		{"wrapped explicit", eris.Wrap(NewTransientError(errors.New("busy"), 503), "salesforce: query"), true},
		{"net timeout", timeoutErr{}, true},
		{"conn reset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"conn refused", syscall.ECONNREFUSED, true},
		{"message pattern", errors.New("Post https://x: i/o timeout"), true},
		{"salesforce limit", errors.New("REQUEST_LIMIT_EXCEEDED: TotalRequests Limit exceeded"), true},
		{"permanent", errors.New("INVALID_FIELD: No such column"), false},
		{"breaker open", ErrBreakerOpen, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "%d", code)
	}
	for _, code := range []int{200, 400, 401, 403, 404, 501} {
		assert.False(t, IsTransientHTTPStatus(code), "%d", code)
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	base := errors.New("upstream")
	te := NewTransientError(base, 502)
	assert.ErrorIs(t, te, base)
	assert.Equal(t, "upstream", te.Error())
}
