package model

import (
	"errors"
	"fmt"
	"strings"
)

var ErrorConfiguration = errors.New("configuration error")
var ErrorValidation = errors.New("validation error")

// ConfigurationError is returned before any network call when required
// gateway settings are missing.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}

func (e *ConfigurationError) Unwrap() error {
	return ErrorConfiguration
}

// ValidationError rejects a request before any network call. Invalid holds
// at most MaxReportedInvalid offending entries.
type ValidationError struct {
	Field   string
	Reason  string
	Invalid []string
	// More is the number of offending entries not listed in Invalid.
	More int
}

const MaxReportedInvalid = 3

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	msg := e.Reason
	if e.Field != "" {
		msg = e.Field + ": " + e.Reason
	}
	if len(e.Invalid) > 0 {
		msg += ": " + strings.Join(e.Invalid, ", ")
		if e.More > 0 {
			msg += fmt.Sprintf(" and %d more", e.More)
		}
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return ErrorValidation
}

// GatewayRejection is a completed gateway call that answered with a non-zero
// response code.
type GatewayRejection struct {
	Code    int
	Message string
}

func (e *GatewayRejection) Error() string {
	return fmt.Sprintf("gateway rejected request: code %d: %s", e.Code, e.Message)
}

// TransportFailure covers network, timeout and response parsing failures
// talking to the gateway.
type TransportFailure struct {
	Cause string `json:"cause"`
}

func NewTransportFailure(err error) *TransportFailure {
	return &TransportFailure{Cause: err.Error()}
}

func (e *TransportFailure) Error() string {
	return "gateway transport failure: " + e.Cause
}
