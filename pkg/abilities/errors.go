package abilities

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorType classifies ability failures. The orchestration loop keys its
// retry decisions off this: permission and not_found failures are surfaced
// immediately, validation and execution failures are eligible for the bounded
// model-guided correction path.
type ErrorType string

const (
	ErrorTypePermission    ErrorType = "permission"
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeExecution     ErrorType = "execution"
	ErrorTypeClientCommand ErrorType = "client_command"
	// ErrorTypeTransient marks transport-level failures reaching a remote
	// ability server. No corrected input can fix them, so they are surfaced
	// immediately instead of entering the correction path.
	ErrorTypeTransient ErrorType = "transient"
)

// AbilityError is the structured error shape every ability failure reduces to.
type AbilityError struct {
	Ability string    `json:"ability,omitempty"`
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	// Field names the offending input field for validation errors.
	Field string `json:"field,omitempty"`
}

func (e *AbilityError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("ability error [%s] %s: %s", e.Type, e.Field, e.Message)
	}
	return fmt.Sprintf("ability error [%s]: %s", e.Type, e.Message)
}

func NewPermissionError(ability, message string) *AbilityError {
	return &AbilityError{Ability: ability, Type: ErrorTypePermission, Message: message}
}

func NewValidationError(ability, field, message string) *AbilityError {
	return &AbilityError{Ability: ability, Type: ErrorTypeValidation, Field: field, Message: message}
}

func NewNotFoundError(ability string) *AbilityError {
	return &AbilityError{Ability: ability, Type: ErrorTypeNotFound, Message: fmt.Sprintf("ability not found: %s", ability)}
}

func NewExecutionError(ability string, err error) *AbilityError {
	return &AbilityError{Ability: ability, Type: ErrorTypeExecution, Message: err.Error()}
}

func NewClientCommandError(ability, message string) *AbilityError {
	return &AbilityError{Ability: ability, Type: ErrorTypeClientCommand, Message: message}
}

func NewTransientError(ability string, err error) *AbilityError {
	return &AbilityError{Ability: ability, Type: ErrorTypeTransient, Message: err.Error()}
}

// AsAbilityError unwraps err into an *AbilityError, converting plain errors
// into execution errors so callers always see the structured shape.
func AsAbilityError(ability string, err error) *AbilityError {
	if err == nil {
		return nil
	}
	var ae *AbilityError
	if errors.As(err, &ae) {
		return ae
	}
	return NewExecutionError(ability, err)
}

// IsRetryable reports whether the orchestration loop may ask the model for a
// corrected input after this failure.
func (e *AbilityError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeValidation, ErrorTypeExecution, ErrorTypeClientCommand:
		return true
	default:
		return false
	}
}
