package entities

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientHistory is returned when a series is empty or too short for a computation
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrModelFit is returned when a forecasting model cannot be fitted to a series
	ErrModelFit = errors.New("model fit failure")
	// ErrInvalidConfiguration is returned for planning parameters that cannot be used
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrInvalidEntity is returned when entity attributes violate their invariants
	ErrInvalidEntity = errors.New("invalid entity")
)

// ReasonCode is the machine-readable cause attached to an entity excluded from a plan
type ReasonCode string

const (
	ReasonInsufficientHistory ReasonCode = "insufficient_history"
	ReasonMissingHub          ReasonCode = "missing_hub"
	ReasonMissingTarget       ReasonCode = "missing_target"
	ReasonInvalidLeadTime     ReasonCode = "invalid_lead_time"
	ReasonForecastFailed      ReasonCode = "forecast_failed"
)

// EntityError isolates a failure to a single entity
type EntityError struct {
	Key    EntityKey
	Reason ReasonCode
	Err    error
}

// NewEntityError creates an EntityError
func NewEntityError(key EntityKey, reason ReasonCode, err error) *EntityError {
	return &EntityError{Key: key, Reason: reason, Err: err}
}

func (e *EntityError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", e.Key, e.Reason, e.Err)
}

func (e *EntityError) Unwrap() error {
	return e.Err
}
