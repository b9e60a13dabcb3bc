// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrFeedUnavailable  = errors.New("price feed unavailable")
	ErrRateLimited      = errors.New("rate limited")
	ErrSessionNotFound  = errors.New("session not found")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrEngineRunning    = errors.New("engine is running")
	ErrUnknownAsset     = errors.New("unknown asset")
	ErrDatabaseError    = errors.New("database error")
	ErrConnectionFailed = errors.New("connection failed")
)

// FeedError represents an error from the external price feed.
type FeedError struct {
	FeedID  string
	Message string
	Err     error
}

func (e *FeedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("feed error [%s]: %s: %v", e.FeedID, e.Message, e.Err)
	}
	return fmt.Sprintf("feed error [%s]: %s", e.FeedID, e.Message)
}

func (e *FeedError) Unwrap() error {
	return e.Err
}

// NewFeedError creates a new FeedError.
func NewFeedError(feedID, message string, err error) *FeedError {
	return &FeedError{
		FeedID:  feedID,
		Message: message,
		Err:     err,
	}
}

// StoreError represents a persistence error.
type StoreError struct {
	Operation string
	SessionID string
	Err       error
}

func (e *StoreError) Error() string {
	if e.SessionID != "" {
		return fmt.Sprintf("store error [%s] %s: %v", e.Operation, e.SessionID, e.Err)
	}
	return fmt.Sprintf("store error [%s]: %v", e.Operation, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(operation, sessionID string, err error) *StoreError {
	return &StoreError{
		Operation: operation,
		SessionID: sessionID,
		Err:       err,
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
