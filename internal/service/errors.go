package service

import (
	"context"
	"errors"
	"fmt"

	"iheartcare/internal/repository"

	"go.uber.org/zap"
)

var (
	// ErrInvalidCredentials single undistinguished authentication failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	// ErrMonitoringActive patient already has an active monitoring session.
	ErrMonitoringActive = errors.New("patient already has an active monitoring session")
	// ErrConflict duplicate username or CURP, or a record that is already linked to a user.
	ErrConflict = errors.New("conflict")
	// ErrDeviceUnavailable a device endpoint could not be reached or answered garbage.
	ErrDeviceUnavailable = errors.New("device unavailable")
	// ErrStoreUnavailable wraps driver and connection failures.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError rejected input; nothing was written.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// storeError translates repository errors into the service taxonomy.
// Anything unrecognised is logged once here and surfaced as ErrStoreUnavailable.
func storeError(logger *zap.Logger, op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrActiveMonitoringExists):
		return ErrMonitoringActive
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: %s", ErrConflict, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	logger.Error("Store operation failed",
		zap.String("operation", op),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
