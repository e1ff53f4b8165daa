package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrorKind classifies provider failures for the retry policy.
type ErrorKind int

const (
	// KindUnavailable is a transport failure or a 5xx response.
	KindUnavailable ErrorKind = iota
	// KindRateLimited is a 429 response.
	KindRateLimited
	// KindRejected is any other 4xx: bad key, bad model, bad request.
	KindRejected
	// KindInvalidOutput is output that is not JSON or breaks the schema.
	KindInvalidOutput
	// KindTruncated is structured output cut off by the token limit.
	KindTruncated
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindRateLimited:
		return "rate limited"
	case KindRejected:
		return "rejected"
	case KindInvalidOutput:
		return "invalid output"
	case KindTruncated:
		return "truncated"
	default:
		return "error(" + strconv.Itoa(int(k)) + ")"
	}
}

// Error is a classified provider failure.
type Error struct {
	Kind     ErrorKind
	Provider string

	// RetryAfter is the server's requested backoff, when it sent one.
	RetryAfter time.Duration

	// Content is the offending output for KindInvalidOutput and
	// KindTruncated.
	Content json.RawMessage

	Err error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err carries an *Error of kind k.
func IsKind(err error, k ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// statusError classifies a failed call by its HTTP status. Status 0 means
// no response was received.
func statusError(provider string, status int, header http.Header, err error) *Error {
	e := &Error{Kind: KindUnavailable, Provider: provider, Err: err}
	switch {
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
		e.RetryAfter = retryAfter(header)
	case status >= 400 && status < 500:
		e.Kind = KindRejected
	}
	return e
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func invalidOutput(content json.RawMessage, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidOutput, Content: content, Err: fmt.Errorf(format, args...)}
}
