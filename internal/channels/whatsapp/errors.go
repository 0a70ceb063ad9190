package whatsapp

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotReady is returned by operations that need a Ready session.
	ErrNotReady = errors.New("whatsapp session not ready; initialize it first")

	// ErrAuthFailure means the credentials were rejected or revoked.
	ErrAuthFailure = errors.New("whatsapp authentication failed")

	// ErrInitTimeout means the session did not become ready in time.
	ErrInitTimeout = errors.New("whatsapp initialization timed out")

	// ErrEmptyGroupName rejects a send without a target group.
	ErrEmptyGroupName = errors.New("group name is required")

	// ErrGroupNotFound is the sentinel behind GroupNotFoundError.
	ErrGroupNotFound = errors.New("group not found")

	// ErrSendFailed wraps transport errors raised while dispatching a message.
	ErrSendFailed = errors.New("whatsapp send failed")

	// ErrTransport wraps any other failure of the underlying client.
	ErrTransport = errors.New("whatsapp transport error")

	// ErrDisconnected is delivered to waiters when the client drops mid-attempt.
	ErrDisconnected = errors.New("whatsapp disconnected")

	// ErrShutdown is delivered to waiters when the manager is shut down.
	ErrShutdown = errors.New("whatsapp session manager shut down")
)

// GroupNotFoundError lists the groups that were visible at lookup time so the
// caller can correct the name without another round trip.
type GroupNotFoundError struct {
	Query     string
	Available []string
}

func (e *GroupNotFoundError) Error() string {
	return fmt.Sprintf("group %q not found; available groups: %s", e.Query, strings.Join(e.Available, ", "))
}

func (e *GroupNotFoundError) Unwrap() error {
	return ErrGroupNotFound
}

func transportError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrTransport, op, err)
}

func sendError(err error) error {
	return fmt.Errorf("%w: %w", ErrSendFailed, err)
}

// FailureReason buckets an error for metrics labels and status payloads.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthFailure):
		return "auth_failure"
	case errors.Is(err, ErrInitTimeout):
		return "timeout"
	case errors.Is(err, ErrDisconnected):
		return "disconnected"
	case errors.Is(err, ErrShutdown):
		return "shutdown"
	case errors.Is(err, ErrNotReady):
		return "not_ready"
	case errors.Is(err, ErrEmptyGroupName):
		return "invalid_group"
	case errors.Is(err, ErrGroupNotFound):
		return "group_not_found"
	case errors.Is(err, ErrSendFailed):
		return "send_failed"
	default:
		return "transport"
	}
}
