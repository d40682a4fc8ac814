// errors.go

package main

import (
	"fmt"
)

// ConfigError is returned when required settings (post id, access token)
// are missing or malformed. No network call is made after one.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Message
}

func configErrorf(format string, a ...any) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, a...)}
}

// ValidationError is returned for bad user input: empty comments,
// missing files, or no action at all.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, a ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, a...)}
}

// APIError is an `error` object returned by the Graph API.
type APIError struct {
	StatusCode int
	Message    string
	Type       string
	Code       int
	FBTraceID  string
}

func (e *APIError) Error() string {
	return "API Error: " + e.Message
}

// TransportError wraps failures to reach the Graph API or to read its response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request failed (%s): %s", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
