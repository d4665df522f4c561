package spectrailapi

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a CoreError into the taxonomy spec §7 enumerates.
type ErrorKind string

const (
	ErrInvalidCredentials ErrorKind = "invalid_credentials"
	ErrRateLimited        ErrorKind = "rate_limited"
	ErrProviderError      ErrorKind = "provider_error"
	ErrNetworkError       ErrorKind = "network_error"
	ErrTimeout            ErrorKind = "timeout"
	ErrUnknownTool        ErrorKind = "unknown_tool"
	ErrInvalidArgs        ErrorKind = "invalid_args"
	ErrPathEscape         ErrorKind = "path_escape"
	ErrDisallowedCommand  ErrorKind = "disallowed_command"
	ErrRepoUnavailable    ErrorKind = "repo_unavailable"
	ErrPersistenceError   ErrorKind = "persistence_error"
)

// fatalKinds is the subset of ErrorKind that aborts AgentLoop (ABORT state)
// rather than being recovered as a tool-message error payload. See spec §7
// "Propagation".
var fatalKinds = map[ErrorKind]bool{
	ErrInvalidCredentials: true,
	ErrRateLimited:        true,
	ErrProviderError:      true,
	ErrNetworkError:       true,
	ErrTimeout:            true,
	ErrRepoUnavailable:    true,
	ErrPersistenceError:   true,
}

// CoreError is the Core's single error type crossing package boundaries.
// It carries a Kind for caller-side dispatch and wraps an optional cause.
type CoreError struct {
	Kind    ErrorKind
	Message string
	HTTP    int
	cause   error
}

// NewCoreError constructs a CoreError. cause may be nil.
func NewCoreError(kind ErrorKind, message string, cause error) *CoreError {
	return &CoreError{Kind: kind, Message: message, cause: cause}
}

// NewProviderHTTPError constructs a CoreError for a non-retryable or
// retry-exhausted HTTP response from ChatProvider.
func NewProviderHTTPError(kind ErrorKind, httpStatus int, message string, cause error) *CoreError {
	return &CoreError{Kind: kind, Message: message, HTTP: httpStatus, cause: cause}
}

func (e *CoreError) Error() string {
	if e.HTTP > 0 {
		return fmt.Sprintf("%s (http %d): %s", e.Kind, e.HTTP, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CoreError) Unwrap() error { return e.cause }

// Fatal reports whether this error kind aborts the run rather than being
// recoverable as a tool-local error payload.
func (e *CoreError) Fatal() bool { return fatalKinds[e.Kind] }

// AsCoreError returns the first CoreError in err's chain, if any.
func AsCoreError(err error) (*CoreError, bool) {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// ToolErrorEnvelope is the JSON shape every tool-local failure is rendered
// as inside a tool message. It never crosses the boundary as a Go error.
type ToolErrorEnvelope struct {
	Error string `json:"error"`
}
