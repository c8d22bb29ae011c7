// Package errors contains helper functions and types to work with errors
package errors

import (
	"errors"
)

// Category defines error category
type Category int

const (
	// CategoryNoError means the operation completed without a failure.
	CategoryNoError Category = iota
	// CategoryValidation The user supplied data that fails local validation,
	// for example an amount below the configured minimum. No external call
	// was made.
	CategoryValidation
	// CategoryProviderUnavailable The identity provider could not be reached
	// or refused the handshake.
	CategoryProviderUnavailable
	// CategorySessionBusy A session mutation was rejected because another one
	// is still in flight.
	CategorySessionBusy
	// CategoryApprovalRejected The ledger refused the allowance approval;
	// the spend phase was never attempted.
	CategoryApprovalRejected
	// CategoryBackendAction The backend canister rejected or failed the
	// domain operation after a successful approval.
	CategoryBackendAction
	// CategoryBalanceQuery The post-action balance refresh failed; the cached
	// balance stays at its last known value and is flagged stale.
	CategoryBalanceQuery
	// CategoryGeneralError The client failed in an unexpected way.
	CategoryGeneralError
)

func (c Category) String() string {
	switch c {
	case CategoryValidation:
		return "CategoryValidation"
	case CategoryProviderUnavailable:
		return "CategoryProviderUnavailable"
	case CategorySessionBusy:
		return "CategorySessionBusy"
	case CategoryApprovalRejected:
		return "CategoryApprovalRejected"
	case CategoryBackendAction:
		return "CategoryBackendAction"
	case CategoryBalanceQuery:
		return "CategoryBalanceQuery"
	default:
		return "CategoryGeneralError"
	}
}

// ServiceError represents the client-wide error type carrying the failure
// taxonomy category plus a human-readable message for the dialog layer.
type ServiceError struct {
	Category Category
	Message  string
	Err      error
}

// Error method to comply with error interface
func (err ServiceError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	return err.Message
}

// Unwrap returns the underlying error
func (err ServiceError) Unwrap() error {
	return err.Err
}

// Is implements the custom condition to check an error is equal to a service error
func (err ServiceError) Is(target error) bool {
	return err.Message == target.Error()
}

// Is checks that provided error is a ServiceError with desired Category
func Is(err error, cat Category) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Category == cat {
		return true
	}
	return false
}

// UserMessage extracts the message intended for the dialog layer. Non-service
// errors fall back to their plain Error text so nothing is swallowed.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Message != "" {
		return svcErr.Message
	}
	return err.Error()
}

// GeneralError returns a general service error
func GeneralError(err error) error {
	if err == nil {
		err = errors.New("internal client error")
	}
	return &ServiceError{
		Category: CategoryGeneralError,
		Message:  "internal client error",
		Err:      err,
	}
}

// ValidationError returns an error with category Validation
// the error message provided is surfaced to the user
func ValidationError(err error, message string) error {
	if err == nil {
		err = errors.New("validation: " + message)
	}
	return &ServiceError{
		Category: CategoryValidation,
		Message:  message,
		Err:      err,
	}
}

// ProviderUnavailableError returns an error with category ProviderUnavailable
func ProviderUnavailableError(err error, message string) error {
	if err == nil {
		err = errors.New("identity provider unavailable")
	}
	return &ServiceError{
		Category: CategoryProviderUnavailable,
		Message:  message,
		Err:      err,
	}
}

// SessionBusyError returns an error with category SessionBusy
func SessionBusyError(err error, message string) error {
	if err == nil {
		err = errors.New("session busy")
	}
	return &ServiceError{
		Category: CategorySessionBusy,
		Message:  message,
		Err:      err,
	}
}

// ApprovalRejectedError returns an error with category ApprovalRejected.
// The ledger's reason text is passed through unmodified as the message.
func ApprovalRejectedError(err error, message string) error {
	if err == nil {
		err = errors.New("approval rejected: " + message)
	}
	return &ServiceError{
		Category: CategoryApprovalRejected,
		Message:  message,
		Err:      err,
	}
}

// BackendActionError returns an error with category BackendAction.
// The backend's reason text is passed through unmodified as the message.
func BackendActionError(err error, message string) error {
	if err == nil {
		err = errors.New("backend action failed: " + message)
	}
	return &ServiceError{
		Category: CategoryBackendAction,
		Message:  message,
		Err:      err,
	}
}

// BalanceQueryError returns an error with category BalanceQuery
func BalanceQueryError(err error, message string) error {
	if err == nil {
		err = errors.New("balance query failed: " + message)
	}
	return &ServiceError{
		Category: CategoryBalanceQuery,
		Message:  message,
		Err:      err,
	}
}
