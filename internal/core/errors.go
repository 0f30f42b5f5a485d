package core

import (
	"errors"
	"fmt"
)

var (
	// ErrSlotBusy is returned when a submission for the same kind is still running
	ErrSlotBusy = errors.New("analysis already in progress")
	// ErrNotAuthenticated is returned when the controller is built for a signed-out session
	ErrNotAuthenticated = errors.New("session is not authenticated")
	// ErrMissingPrediction is returned for a classifier answer without a prediction label
	ErrMissingPrediction = errors.New("classifier response has no prediction")
)

// ValidationError reports input rejected before any classifier call
type ValidationError struct {
	Kind   AnalysisKind
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Kind == "" {
		return "validation error: " + e.Reason
	}
	return fmt.Sprintf("validation error (%s): %s", e.Kind, e.Reason)
}

// ClassifierError reports a failed or unusable classifier call
type ClassifierError struct {
	Kind AnalysisKind
	Err  error
}

func (e *ClassifierError) Error() string {
	return fmt.Sprintf("classifier error (%s): %v", e.Kind, e.Err)
}

func (e *ClassifierError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsClassifierError reports whether err is a ClassifierError
func IsClassifierError(err error) bool {
	var ce *ClassifierError
	return errors.As(err, &ce)
}
