package paybill

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Typed errors below match them through errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotReady           = errors.New("client is not identified")
	ErrNotFound           = errors.New("resource not found")
	ErrIncompleteTemplate = errors.New("template is incomplete")
	ErrAuthentication     = errors.New("credential exchange failed")
	ErrInvalidState       = errors.New("invalid resource state")
	ErrSoftFailure        = errors.New("request was rejected by the platform")
)

// Common static errors that can be wrapped with context.
var (
	ErrConfigRequired      = errors.New("config is required")
	ErrClientIDRequired    = errors.New("client_id is required")
	ErrSecretRequired      = errors.New("secret is required")
	ErrInvalidEnvironment  = errors.New("environment must be live or sandbox")
	ErrTemplateRequired    = errors.New("template is required")
	ErrPatchRequired       = errors.New("patch is required")
	ErrEmptyPatch          = errors.New("patch has no operations")
	ErrIDRequired          = errors.New("id is required")
	ErrNoManager           = errors.New("resource is not bound to a manager")
	ErrCacheDisabled       = errors.New("cache disabled")
	ErrCacheKeyNotFound    = errors.New("key not found")
	ErrCacheEntryExpired   = errors.New("entry expired")
	ErrCacheValueTooLarge  = errors.New("cache value too large")
	ErrUnsupportedCache    = errors.New("unsupported cache type")
	ErrNATSConfigRequired  = errors.New("NATS configuration required for NATS cache")
	ErrNoPricingSchemes    = errors.New("at least one pricing scheme is required")
	ErrUnknownBillingCycle = errors.New("plan has no billing cycle with that sequence")
)

// ValidationError reports a builder input rejected before any mutation.
type ValidationError struct {
	Field   string
	Rule    string
	Value   interface{}
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}

	return fmt.Sprintf("invalid %s: failed %q rule", e.Field, e.Rule)
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotReadyError is returned by authorized calls made before identification completed.
type NotReadyError struct {
	Method string
	Path   string
}

// Error implements the error interface.
func (e *NotReadyError) Error() string {
	return fmt.Sprintf("%s %s: %s, call Identify first", e.Method, e.Path, ErrNotReady)
}

// Is matches ErrNotReady.
func (e *NotReadyError) Is(target error) bool {
	return target == ErrNotReady
}

// NotFoundError is returned when a single resource fetch yields 404 or no body.
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IncompleteTemplateError lists the required fields a template is missing.
type IncompleteTemplateError struct {
	Template string
	Missing  []string
}

// Error implements the error interface.
func (e *IncompleteTemplateError) Error() string {
	return fmt.Sprintf("%s template is missing %s", e.Template, strings.Join(e.Missing, ", "))
}

// Is matches ErrIncompleteTemplate.
func (e *IncompleteTemplateError) Is(target error) bool {
	return target == ErrIncompleteTemplate
}

// AuthenticationError is returned once the credential exchange retry policy is exhausted.
type AuthenticationError struct {
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("%s after %d attempt(s): %v", ErrAuthentication, e.Attempts, e.Err)
}

// Is matches ErrAuthentication.
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthentication
}

// Unwrap returns the last exchange failure.
func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// InvalidStateError is returned when a state transition is attempted from a status that does not allow it.
type InvalidStateError struct {
	Resource string
	ID       string
	Status   string
	Action   string
	Allowed  []string
}

// Error implements the error interface.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s %q in status %s (allowed: %s)",
		e.Action, e.Resource, e.ID, e.Status, strings.Join(e.Allowed, ", "))
}

// Is matches ErrInvalidState.
func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

// ErrorDetail is one entry of the platform's error details array.
type ErrorDetail struct {
	Field       string `json:"field,omitempty"       yaml:"field,omitempty"`
	Value       string `json:"value,omitempty"       yaml:"value,omitempty"`
	Location    string `json:"location,omitempty"    yaml:"location,omitempty"`
	Issue       string `json:"issue"                 yaml:"issue"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// ResponseError carries the error body of a request the platform rejected.
// Mutation and create calls return it instead of a domain value when the
// status is not the expected success code.
type ResponseError struct {
	StatusCode int             `json:"-"                 yaml:"-"`
	Name       string          `json:"name"              yaml:"name"`
	Message    string          `json:"message"           yaml:"message"`
	DebugID    string          `json:"debug_id"          yaml:"debug_id"`
	Details    []ErrorDetail   `json:"details,omitempty" yaml:"details,omitempty"`
	Body       json.RawMessage `json:"-"                 yaml:"-"`
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	if e.Name == "" && e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}

	msg := fmt.Sprintf("%s: %s (status: %d", e.Name, e.Message, e.StatusCode)
	if e.DebugID != "" {
		msg += ", debug_id: " + e.DebugID
	}

	return msg + ")"
}

// Is matches ErrSoftFailure.
func (e *ResponseError) Is(target error) bool {
	return target == ErrSoftFailure
}

// FirstDetail returns the first error detail or nil.
func (e *ResponseError) FirstDetail() *ErrorDetail {
	if len(e.Details) > 0 {
		return &e.Details[0]
	}

	return nil
}

// ParseResponseError builds a ResponseError from a status code and raw body.
// A body that is not a platform error document still yields a ResponseError
// carrying the status and the raw bytes.
func ParseResponseError(statusCode int, data []byte) *ResponseError {
	errResp := &ResponseError{StatusCode: statusCode, Body: data}

	if len(data) > 0 {
		_ = json.Unmarshal(data, errResp)
	}

	return errResp
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}

	errResp := &ResponseError{}
	if errors.As(err, &errResp) {
		return errResp.StatusCode == 404
	}

	return false
}

// IsNotReady checks if the error was caused by a call made before identification.
func IsNotReady(err error) bool {
	return errors.Is(err, ErrNotReady)
}

// IsValidation checks if the error is a builder validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsSoftFailure checks if the error carries a platform rejection body.
func IsSoftFailure(err error) bool {
	return errors.Is(err, ErrSoftFailure)
}
