// Package errors provides custom error types for the choicemate backend client.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common cases
var (
	ErrNotConfigured        = errors.New("API base URL is not configured")
	ErrInvalidResponse      = errors.New("invalid response format")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNoDecision           = errors.New("conversation has no decision yet")
)

// APIError represents a non-2xx answer from the backend.
// Payload holds the decoded response body: a JSON value when the body
// parsed, the raw text otherwise, nil when the body was empty.
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
	Payload    any
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error [%d] at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("API error at %s: %s", e.Endpoint, e.Message)
}

// Is matches ErrNotConfigured for the status-0 error produced when no base URL is set.
func (e *APIError) Is(target error) bool {
	if target == ErrNotConfigured {
		return e.StatusCode == 0 && e.Message == ErrNotConfigured.Error()
	}
	_, ok := target.(*APIError)
	return ok
}

// IsValidation reports whether the backend rejected the request input (400/422).
func (e *APIError) IsValidation() bool {
	return IsValidationStatus(e.StatusCode)
}

// PayloadString returns the payload rendered for display.
func (e *APIError) PayloadString() string {
	switch p := e.Payload.(type) {
	case nil:
		return ""
	case string:
		return p
	default:
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return fmt.Sprint(p)
		}
		return string(data)
	}
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, endpoint, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
	}
}

// NewAPIErrorWithPayload creates an APIError carrying the decoded response body
func NewAPIErrorWithPayload(statusCode int, endpoint, message string, payload any) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
		Payload:    payload,
	}
}

// NewNotConfiguredError is returned before any request when the base URL is empty.
func NewNotConfiguredError(endpoint string) *APIError {
	return NewAPIError(0, endpoint, ErrNotConfigured.Error())
}

// NetworkError represents a transport failure (DNS, refused connection, reset)
type NetworkError struct {
	Operation string
	Endpoint  string
	Cause     error
}

func (e *NetworkError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("network error during %s at %s", e.Operation, e.Endpoint)
	}
	return fmt.Sprintf("network error during %s at %s: %v", e.Operation, e.Endpoint, e.Cause)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// NewNetworkError creates a new NetworkError
func NewNetworkError(operation, endpoint string, cause error) *NetworkError {
	return &NetworkError{Operation: operation, Endpoint: endpoint, Cause: cause}
}

// TimeoutError represents a request timeout
type TimeoutError struct {
	Endpoint string
	Cause    error
}

func (e *TimeoutError) Error() string {
	if e.Endpoint == "" {
		return "request timed out"
	}
	return fmt.Sprintf("request timed out: %s", e.Endpoint)
}

func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(endpoint string, cause error) *TimeoutError {
	return &TimeoutError{Endpoint: endpoint, Cause: cause}
}

// ValidationError is a local form validation failure. It never reaches the backend.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConfigError represents an invalid configuration value
type ConfigError struct {
	Key     string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Message)
}

// NewConfigError creates a new ConfigError
func NewConfigError(key, message string) *ConfigError {
	return &ConfigError{Key: key, Message: message}
}

// IsValidationStatus reports whether status is one the UI shows inline.
func IsValidationStatus(status int) bool {
	return status == http.StatusBadRequest || status == http.StatusUnprocessableEntity
}

// GetHTTPStatus returns the HTTP status of an APIError in the chain, or 0
func GetHTTPStatus(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// GetEndpoint returns the endpoint recorded by any typed error in the chain
func GetEndpoint(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Endpoint
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.Endpoint
	}
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return timeoutErr.Endpoint
	}
	return ""
}

// GetPayload returns the display form of an APIError payload, or ""
func GetPayload(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.PayloadString()
	}
	return ""
}

// IsInline reports whether err should be shown next to the form that caused it
// rather than as a blocking alert: backend 400/422 answers and local validation.
func IsInline(err error) bool {
	if err == nil {
		return false
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsValidation()
	}
	return false
}

// IsNetworkError checks for a NetworkError in the chain
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsTimeoutError checks for a TimeoutError in the chain
func IsTimeoutError(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}

// IsNotConfigured reports whether err is the missing base URL error
func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}
