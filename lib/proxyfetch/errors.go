package proxyfetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

type ErrorKind int

const (
	// every relay was tried and none produced a payload
	KindExhausted ErrorKind = iota
	// the last failure was a timeout, the relays are likely slow or overloaded
	KindTimeout
	// the last failure never reached a relay at all
	KindConnectivity
)

var timeoutPatterns = []string{
	"timeout",
	"timed out",
	"deadline exceeded",
}

var connectivityPatterns = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"network is unreachable",
	"broken pipe",
	"dial tcp",
}

// FetchError reports relay exhaustion. Kind classifies the last-known
// failure so callers can show an actionable message instead of a stack of
// relay noise.
type FetchError struct {
	Kind     ErrorKind
	Attempts []Attempt
	Last     error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindTimeout:
		return "request timed out: the relays are responding too slowly, try again in a moment"
	case KindConnectivity:
		return "could not reach any relay: check your network connection and any ad blocker or strict security settings that may be dropping these requests"
	default:
		return fmt.Sprintf("all proxies failed: %s", e.Last)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Last
}

func newFetchError(attempts []Attempt) *FetchError {
	var last error
	if len(attempts) > 0 {
		last = attempts[len(attempts)-1].Err
	}
	return &FetchError{
		Kind:     classifyKind(last),
		Attempts: attempts,
		Last:     last,
	}
}

func classifyKind(err error) ErrorKind {
	if err == nil {
		return KindExhausted
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	if containsAnyPattern(err, timeoutPatterns) {
		return KindTimeout
	}
	if containsAnyPattern(err, connectivityPatterns) {
		return KindConnectivity
	}
	return KindExhausted
}

func containsAnyPattern(err error, patterns []string) bool {
	msg := strings.ToLower(err.Error())
	for _, pattern := range patterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
