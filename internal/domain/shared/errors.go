// Package shared contains common domain types, errors and events
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")

	// Balance and eligibility errors
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrIneligible          = errors.New("eligibility requirements not met")
	ErrUnavailable         = errors.New("unavailable")

	// Token and state errors
	ErrTokenInvalid     = errors.New("token invalid")
	ErrExpired          = errors.New("expired")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrInvalidState     = errors.New("invalid state")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// Persistence errors
	ErrTransient = errors.New("transient persistence failure")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "ledger", "streak", "reward"
	Op      string // Operation that failed, e.g., "PostTransaction", "Redeem"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Account domain errors
var (
	ErrAccountNotFound      = NewDomainError("account", "Find", ErrNotFound, "account not found")
	ErrAccountAlreadyExists = NewDomainError("account", "Create", ErrAlreadyExists, "account already exists")
	ErrInvalidUserID        = NewDomainError("account", "Validate", ErrInvalidInput, "invalid user id")
	ErrInvalidDisplayName   = NewDomainError("account", "Validate", ErrInvalidInput, "invalid display name")
)

// Ledger domain errors
var (
	ErrInvalidAmount       = NewDomainError("ledger", "Validate", ErrNegativeValue, "amount must be positive")
	ErrUnknownCategory     = NewDomainError("ledger", "Validate", ErrInvalidInput, "unknown activity category")
	ErrUnknownDirection    = NewDomainError("ledger", "Validate", ErrInvalidInput, "unknown transaction direction")
	ErrSpendExceedsBalance = NewDomainError("ledger", "PostTransaction", ErrInsufficientBalance, "spend exceeds available points")
	ErrNegativePoints      = NewDomainError("ledger", "LevelFor", ErrNegativeValue, "points cannot be negative")
)

// Reward domain errors
var (
	ErrRewardNotFound     = NewDomainError("reward", "Find", ErrNotFound, "reward not found")
	ErrRewardInactive     = NewDomainError("reward", "Redeem", ErrUnavailable, "reward is not active")
	ErrRewardOutOfStock   = NewDomainError("reward", "Redeem", ErrUnavailable, "reward is out of stock")
	ErrRewardOutOfSeason  = NewDomainError("reward", "Redeem", ErrUnavailable, "reward is out of season")
	ErrLevelTooLow        = NewDomainError("reward", "Redeem", ErrIneligible, "user level below reward requirement")
	ErrMissingAchievement = NewDomainError("reward", "Redeem", ErrIneligible, "required achievement not unlocked")
	ErrTokenNotFound      = NewDomainError("reward", "Validate", ErrTokenInvalid, "unknown token")
	ErrTokenMalformed     = NewDomainError("reward", "Validate", ErrTokenInvalid, "malformed token payload")
	ErrTokenAlreadyUsed   = NewDomainError("reward", "Validate", ErrAlreadyProcessed, "token already redeemed")
	ErrTokenExpired       = NewDomainError("reward", "Validate", ErrExpired, "token expired")
)

// Streak domain errors
var (
	ErrStreakNotFound  = NewDomainError("streak", "Find", ErrNotFound, "streak not found")
	ErrUnknownActivity = NewDomainError("streak", "Touch", ErrInvalidInput, "unknown activity type")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsInsufficientBalance checks if the error is an insufficient balance error.
func IsInsufficientBalance(err error) bool {
	return errors.Is(err, ErrInsufficientBalance)
}

// IsIneligible checks if the error is an eligibility error.
func IsIneligible(err error) bool {
	return errors.Is(err, ErrIneligible)
}

// IsUnavailable checks if the error is an availability error.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsTokenInvalid checks if the error relates to an invalid redemption token.
func IsTokenInvalid(err error) bool {
	return errors.Is(err, ErrTokenInvalid) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrAlreadyProcessed)
}

// IsRetryable checks if the operation can be retried by the caller.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient) ||
		errors.Is(err, ErrConcurrentModification)
}
