package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrUnavailable marks transient backend failures (network, 429, 5xx).
	ErrUnavailable = errors.New("model backend temporarily unavailable")
	// ErrRejected marks permanent failures (auth, malformed request).
	ErrRejected = errors.New("model backend rejected the request")
)

const retryDelay = 500 * time.Millisecond

// Transient reports whether the failure is worth a single retry.
func Transient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Classify wraps a remote-call failure with ErrUnavailable or ErrRejected so
// callers can distinguish "try again later" from "fix the request".
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if Transient(err) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return fmt.Errorf("%w: %v", ErrRejected, err)
}

// Retry runs fn and retries it exactly once if the first attempt fails with
// a transient error. Permanent failures are returned as-is.
func Retry(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || !Transient(err) {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(retryDelay):
	}
	return fn()
}
