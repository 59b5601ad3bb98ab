package control

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the failure modes surfaced by uvcctl operations.
type ErrorKind int

const (
	// Success indicates no error. It is the kind reported for a nil error.
	Success ErrorKind = iota
	// DeviceNotFound indicates the device is not present or disconnected.
	DeviceNotFound
	// DeviceBusy indicates the device is in use by another consumer.
	DeviceBusy
	// PropertyNotSupported indicates the device rejected the property.
	PropertyNotSupported
	// InvalidValue indicates a property value outside the supported range
	// or a payload of the wrong size.
	InvalidValue
	// PermissionDenied indicates insufficient permissions to open the device.
	PermissionDenied
	// SystemError indicates an unexpected platform failure.
	SystemError
	// InvalidArgument indicates a malformed argument from the caller.
	InvalidArgument
	// NotImplemented indicates the feature is unavailable on this platform.
	NotImplemented
)

// String returns a human-readable name for the error kind.
func (k ErrorKind) String() string {
	switch k {
	case Success:
		return "success"
	case DeviceNotFound:
		return "device not found"
	case DeviceBusy:
		return "device busy"
	case PropertyNotSupported:
		return "property not supported"
	case InvalidValue:
		return "invalid value"
	case PermissionDenied:
		return "permission denied"
	case SystemError:
		return "system error"
	case InvalidArgument:
		return "invalid argument"
	case NotImplemented:
		return "not implemented"
	default:
		return fmt.Sprintf("unknown error kind %d", int(k))
	}
}

// Error carries an error kind plus human-readable detail. It is constructed
// at the failure site and propagated unchanged.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

// NewError creates an error with the given kind and message.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf creates an error with the given kind and a formatted message.
// A trailing %w verb records the wrapped cause for errors.Is/As.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	wrapped := fmt.Errorf(format, args...)
	return &Error{Kind: kind, Message: wrapped.Error(), cause: errors.Unwrap(wrapped)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Message
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// KindOf extracts the error kind from an error chain. A nil error reports
// Success; errors that do not carry a *Error anywhere in the chain report
// SystemError, so the kind taxonomy is never silently bypassed.
func KindOf(err error) ErrorKind {
	if err == nil {
		return Success
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return SystemError
}

// IsKind reports whether the error chain carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
