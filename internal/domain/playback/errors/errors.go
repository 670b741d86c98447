// Package errors contains domain-specific errors for the playback domain
package errors

import (
	"errors"
	"fmt"
	"time"

	"github.com/ahmadraza76/Rolavibe/internal/domain/playback/entities"
	pkgerrors "github.com/ahmadraza76/Rolavibe/pkg/errors"
)

// Domain errors for playback operations
var (
	ErrNotFound          = pkgerrors.NewNotFoundError("no results found")
	ErrInvalidURL        = pkgerrors.NewValidationError("invalid URL or unsupported website")
	ErrEmptyQuery        = pkgerrors.NewValidationError("query cannot be empty")
	ErrDurationExceeded  = pkgerrors.NewValidationError("media duration exceeds the allowed limit")
	ErrResolutionTimeout = pkgerrors.NewInternalError("media resolution timed out")
	ErrJoinFailed        = pkgerrors.NewInternalError("failed to join voice call")
	ErrLeaveFailed       = pkgerrors.NewInternalError("failed to leave voice call")
	ErrPlayFailed        = pkgerrors.NewInternalError("failed to switch stream")
	ErrNothingPlaying    = pkgerrors.NewNotFoundError("nothing is playing in this chat")
	ErrPersistence       = pkgerrors.NewInternalError("failed to persist state")
	ErrInvalidCommand    = pkgerrors.NewValidationError("invalid command")

	ErrStalePlaybackEvent = pkgerrors.NewConflictError("finished stream is no longer playing")
)

// DurationError rejects an item longer than its kind allows
type DurationError struct {
	*pkgerrors.ValidationError
	Kind     entities.MediaKind
	Duration time.Duration
	Limit    time.Duration
}

// NewDurationExceeded creates a DurationError wrapping ErrDurationExceeded
func NewDurationExceeded(kind entities.MediaKind, duration, limit time.Duration) *DurationError {
	return &DurationError{
		ValidationError: ErrDurationExceeded,
		Kind:            kind,
		Duration:        duration,
		Limit:           limit,
	}
}

// Unwrap exposes ErrDurationExceeded
func (e *DurationError) Unwrap() error {
	return e.ValidationError
}

// DenyReason explains why the authorization gate rejected a command
type DenyReason string

const (
	ReasonGroupNotAuthorized   DenyReason = "group_not_authorized"
	ReasonMaintenance          DenyReason = "maintenance"
	ReasonNotAdmin             DenyReason = "not_admin"
	ReasonAdminCommandDisabled DenyReason = "admin_command_disabled"
	ReasonOwnerOnly            DenyReason = "owner_only"
)

// DeniedError is returned by the authorization gate
type DeniedError struct {
	*pkgerrors.PermissionError
	Reason DenyReason
}

// NewDenied creates a DeniedError for the given reason
func NewDenied(reason DenyReason) *DeniedError {
	return &DeniedError{
		PermissionError: pkgerrors.NewPermissionError(fmt.Sprintf("authorization denied: %s", reason)),
		Reason:          reason,
	}
}

// Unwrap exposes the typed permission error
func (e *DeniedError) Unwrap() error {
	return e.PermissionError
}

// DeniedReason extracts the deny reason from err
func DeniedReason(err error) (DenyReason, bool) {
	var denied *DeniedError
	if errors.As(err, &denied) {
		return denied.Reason, true
	}
	return "", false
}
