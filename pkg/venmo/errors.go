package venmo

import (
	"errors"
	"fmt"
	"strings"
)

// Domain-level error values returned by the client.
var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrAPI                 = errors.New("api error")
	ErrMissingPath         = errors.New("missing path")
	ErrNoFundingSource     = errors.New("no funding source available")
	ErrNotInitialized      = errors.New("client not initialized")
	ErrInvalidUserID       = errors.New("invalid user id")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidAudience     = errors.New("invalid audience")
	ErrInvalidBalance      = errors.New("invalid balance")
	ErrInvalidClientConfig = errors.New("invalid client config")
)

// AuthError reports an HTTP 401 from any endpoint.
type AuthError struct {
	Message     string
	Status      int
	ServiceCode string
}

func (authError *AuthError) Error() string {
	return fmt.Sprintf("%s: %s (HTTP %d)", integrationName, authError.Message, authError.Status)
}

// Is matches ErrUnauthorized.
func (authError *AuthError) Is(target error) bool {
	return target == ErrUnauthorized
}

// APIError reports any other non-success HTTP status.
type APIError struct {
	Integration    string
	Status         int
	Message        string
	ServiceMessage string
	ServiceCode    string
}

func (apiError *APIError) Error() string {
	if apiError.ServiceMessage == "" {
		return fmt.Sprintf("%s: %s", apiError.Integration, apiError.Message)
	}
	return fmt.Sprintf("%s: %s: %s", apiError.Integration, apiError.Message, apiError.ServiceMessage)
}

// Is matches ErrAPI.
func (apiError *APIError) Is(target error) bool {
	return target == ErrAPI
}

// MissingPathError reports a response document that lacks an expected key chain.
type MissingPathError struct {
	Operation string
	Path      []string
}

func (missingPathError *MissingPathError) Error() string {
	return fmt.Sprintf("%s: %s: path %s not found", integrationName, missingPathError.Operation, formatPath(missingPathError.Path))
}

// Is matches ErrMissingPath.
func (missingPathError *MissingPathError) Is(target error) bool {
	return target == ErrMissingPath
}

// NoFundingSourceError is returned by PayUser when neither a funded primary
// nor a backup instrument exists.
type NoFundingSourceError struct {
	Amount Amount
}

func (noFundingSourceError *NoFundingSourceError) Error() string {
	return fmt.Sprintf("%s: no funding source available for %s", integrationName, noFundingSourceError.Amount.String())
}

// Is matches ErrNoFundingSource.
func (noFundingSourceError *NoFundingSourceError) Is(target error) bool {
	return target == ErrNoFundingSource
}

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}

func formatPath(path []string) string {
	return "[" + strings.Join(path, ".") + "]"
}
