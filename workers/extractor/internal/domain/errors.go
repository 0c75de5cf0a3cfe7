package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers can decide between retrying,
// reporting to the user and aborting.
type ErrorKind int

const (
	// Internal is the zero kind: anything not classified below.
	Internal ErrorKind = iota
	Configuration
	Authentication
	RemoteJob
	TransientNetwork
	VendorFault
	UnexpectedState
	UnrecognizedFault
)

func (k ErrorKind) String() string {
	switch k {
	case Configuration:
		return "configuration"
	case Authentication:
		return "authentication"
	case RemoteJob:
		return "remote_job"
	case TransientNetwork:
		return "transient_network"
	case VendorFault:
		return "vendor_fault"
	case UnexpectedState:
		return "unexpected_state"
	case UnrecognizedFault:
		return "unrecognized_fault"
	default:
		return "internal"
	}
}

// Error is the single error type that crosses component boundaries.
type Error struct {
	Kind ErrorKind
	// Field names the offending configuration field, when there is one.
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrFullSyncRequired is wrapped by the RemoteJob error raised when the
// service refuses an incremental bulk download.
var ErrFullSyncRequired = errors.New("full sync required")

// NewError creates a classified error.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// ConfigError reports a user-fixable problem with field.
func ConfigError(field, format string, args ...interface{}) *Error {
	return &Error{Kind: Configuration, Field: field, Message: fmt.Sprintf(format, args...)}
}

func AuthError(message string, err error) *Error {
	return NewError(Authentication, message, err)
}

func RemoteJobError(message string, err error) *Error {
	return NewError(RemoteJob, message, err)
}

func TransientError(message string, err error) *Error {
	return NewError(TransientNetwork, message, err)
}

func VendorFaultError(message string) *Error {
	return NewError(VendorFault, message, nil)
}

func UnexpectedStateError(status string) *Error {
	return NewError(UnexpectedState, fmt.Sprintf("unknown job status %q", status), nil)
}

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// IsUserError reports whether err is something the user can act on.
func IsUserError(err error) bool {
	switch KindOf(err) {
	case Configuration, Authentication, RemoteJob, VendorFault:
		return true
	}
	return false
}

// ExitCode maps an error to the process exit status: 0 on success, 1 for
// user errors and 2 for everything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if IsUserError(err) {
		return 1
	}
	return 2
}

// DomainError is an infrastructure failure (state, storage, download)
// identified by a stable code.
type DomainError struct {
	Code      string
	Message   string
	Err       error
	Retryable bool
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches another DomainError by code, so errors.Is(err, ErrStateSaveFailed)
// works on wrapped instances.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error, retryable bool) *DomainError {
	return &DomainError{
		Code:      code,
		Message:   message,
		Err:       err,
		Retryable: retryable,
	}
}

// Wrap returns a copy of e carrying err.
func (e *DomainError) Wrap(err error) *DomainError {
	return NewDomainError(e.Code, e.Message, err, e.Retryable)
}

var (
	ErrStateLoadFailed = &DomainError{
		Code:    "STATE_LOAD_FAILED",
		Message: "Failed to load extractor state",
	}

	ErrStateSaveFailed = &DomainError{
		Code:      "STATE_SAVE_FAILED",
		Message:   "Failed to save extractor state",
		Retryable: true,
	}

	ErrDownloadFailed = &DomainError{
		Code:      "DOWNLOAD_FAILED",
		Message:   "Failed to download result file",
		Retryable: true,
	}

	ErrPublishFailed = &DomainError{
		Code:      "PUBLISH_FAILED",
		Message:   "Failed to publish output table",
		Retryable: true,
	}
)
