package gslides

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// Google API errors.
var (
	ErrUnauthorized  = errors.New("gslides: unauthorized (invalid credentials)")
	ErrForbidden     = errors.New("gslides: forbidden (insufficient permissions)")
	ErrNotFound      = errors.New("gslides: resource not found")
	ErrRateLimited   = errors.New("gslides: rate limit exceeded")
	ErrNoCredentials = errors.New("gslides: no credentials")
	ErrBadCredential = errors.New("gslides: unreadable credential")
)

func apiCode(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}

// IsAuth reports whether err is a credential problem: a 401 or 403 response,
// a failed token exchange or a missing or unreadable credential.
func IsAuth(err error) bool {
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrNoCredentials) || errors.Is(err, ErrBadCredential) {
		return true
	}
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return true
	}
	code := apiCode(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// IsRateLimited reports a 429 response.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited) || apiCode(err) == http.StatusTooManyRequests
}

// IsRetryable reports whether another attempt may succeed: 408, 429, 5xx or
// a transient network failure. Cancellation is never retried.
func IsRetryable(err error) bool {
	if err == nil || IsAuth(err) {
		return false
	}
	if code := apiCode(err); code != 0 {
		return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests ||
			(code >= 500 && code <= 599)
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// retryAfter honors a Retry-After header in seconds, capped at maxWait.
func retryAfter(err error, fallback, maxWait time.Duration) time.Duration {
	wait := fallback
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Header != nil {
		if ra := strings.TrimSpace(gerr.Header.Get("Retry-After")); ra != "" {
			if secs, perr := strconv.Atoi(ra); perr == nil && secs > 0 {
				wait = time.Duration(secs) * time.Second
			}
		}
	}
	if maxWait > 0 && wait > maxWait {
		wait = maxWait
	}
	return wait
}

// WrapError tags a Google API error with the matching sentinel while keeping
// the original error in the chain.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	switch apiCode(err) {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrForbidden, err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	}
	return err
}
