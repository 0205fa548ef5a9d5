package directory

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
)

// Op identifies which directory operation failed
type Op string

const (
	OpFetchLocations Op = "fetch_locations"
	OpCheckName      Op = "check_name"
)

// Sentinel errors matched by errors.Is against any *Error with the
// corresponding Op.
var (
	ErrLocationFetchFailed = errors.New("location fetch failed")
	ErrNameCheckFailed     = errors.New("name check failed")
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the directory refused the connection
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeHTTP indicates a non-200 status code
	ErrTypeHTTP
	// ErrTypeParse indicates a malformed response body
	ErrTypeParse
	// ErrTypeProtocol indicates an unexpected or error frame on the websocket channel
	ErrTypeProtocol
	// ErrTypeCanceled indicates the caller abandoned the request
	ErrTypeCanceled
	// ErrTypeUnavailable indicates the directory reported itself unavailable
	ErrTypeUnavailable
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeProtocol:
		return "Protocol Error"
	case ErrTypeCanceled:
		return "Canceled"
	case ErrTypeUnavailable:
		return "Unavailable"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is returned by every Directory implementation
type Error struct {
	Op         Op        // Operation that failed
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (if applicable)
	Err        error     // Underlying error (if any)
	Retryable  bool      // Whether the request may be retried
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s (caused by: %v)", e.Op, e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the operation sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrLocationFetchFailed:
		return e.Op == OpFetchLocations
	case ErrNameCheckFailed:
		return e.Op == OpCheckName
	}
	return false
}

// classifyTransportError turns a transport failure into an *Error
func classifyTransportError(op Op, message string, err error) *Error {
	e := &Error{
		Op:        op,
		Type:      ErrTypeNetwork,
		Message:   message,
		Err:       err,
		Retryable: true,
	}

	if errors.Is(err, context.Canceled) {
		e.Type = ErrTypeCanceled
		e.Retryable = false
		return e
	}

	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		e.Type = ErrTypeTimeout
		return e
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		e.Type = ErrTypeDNS
		e.Retryable = false
		return e
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		e.Type = ErrTypeConnectionRefused
		return e
	}

	return e
}

func newHTTPError(op Op, statusCode int, message string) *Error {
	return &Error{
		Op:         op,
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  statusCode >= 500, // Server errors are retryable
	}
}

func newParseError(op Op, message string, err error) *Error {
	return &Error{
		Op:      op,
		Type:    ErrTypeParse,
		Message: message,
		Err:     err,
	}
}

func newProtocolError(op Op, message string) *Error {
	return &Error{
		Op:      op,
		Type:    ErrTypeProtocol,
		Message: message,
	}
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var dirErr *Error
	if errors.As(err, &dirErr) {
		return dirErr.Retryable
	}
	// Unknown errors are not retryable by default
	return false
}

// ShortMessage returns a concise, user-facing description of err
func ShortMessage(err error) string {
	var dirErr *Error
	if !errors.As(err, &dirErr) {
		return err.Error()
	}

	switch dirErr.Type {
	case ErrTypeTimeout:
		return "directory not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "directory refused connection"
	case ErrTypeDNS:
		return "cannot resolve directory host"
	case ErrTypeNetwork:
		return "network error"
	case ErrTypeHTTP:
		return fmt.Sprintf("directory error (HTTP %d)", dirErr.StatusCode)
	case ErrTypeParse:
		return "unreadable directory response"
	case ErrTypeCanceled:
		return "request canceled"
	default:
		return dirErr.Message
	}
}
