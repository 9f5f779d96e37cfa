package secure

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of a secure connection error
type ErrorType int

const (
	// ErrTypeRejected indicates the bridge refused or declined the connection
	ErrTypeRejected ErrorType = iota
	// ErrTypeHandshake indicates a handshake step received an unexpected response
	ErrTypeHandshake
	// ErrTypeMalformedFrame indicates a received record failed to decode
	ErrTypeMalformedFrame
	// ErrTypeCrypto indicates a cryptographic primitive failed
	ErrTypeCrypto
	// ErrTypeTransport indicates the underlying transport failed
	ErrTypeTransport
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeRejected:
		return "Connection Rejected"
	case ErrTypeHandshake:
		return "Handshake Failed"
	case ErrTypeMalformedFrame:
		return "Malformed Frame"
	case ErrTypeCrypto:
		return "Crypto Error"
	case ErrTypeTransport:
		return "Transport Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// ProtocolError represents an error establishing or using the secure channel
type ProtocolError struct {
	Type    ErrorType // Category of error
	Message string    // Human-readable error message
	Info    string    // Bridge-supplied info string (rejections only)
	Err     error     // Underlying error (if any)
}

// Error implements the error interface
func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// NewConnectionRejected creates a rejection error carrying the bridge's
// info string (e.g. "no client-connection available (all used)!")
func NewConnectionRejected(info string) *ProtocolError {
	return &ProtocolError{
		Type:    ErrTypeRejected,
		Message: fmt.Sprintf("bridge rejected connection: %s", info),
		Info:    info,
	}
}

// NewHandshakeFailed creates an error for a handshake step that received an
// unexpected message type
func NewHandshakeFailed(message string) *ProtocolError {
	return &ProtocolError{
		Type:    ErrTypeHandshake,
		Message: message,
	}
}

// NewMalformedFrame creates a decode error for a received record
func NewMalformedFrame(message string, err error) *ProtocolError {
	return &ProtocolError{
		Type:    ErrTypeMalformedFrame,
		Message: message,
		Err:     err,
	}
}

// NewCryptoError creates an error for a failed cryptographic primitive
func NewCryptoError(message string, err error) *ProtocolError {
	return &ProtocolError{
		Type:    ErrTypeCrypto,
		Message: message,
		Err:     err,
	}
}

// NewTransportError wraps an underlying transport failure
func NewTransportError(message string, err error) *ProtocolError {
	return &ProtocolError{
		Type:    ErrTypeTransport,
		Message: message,
		Err:     err,
	}
}

// IsConnectionRejected checks if an error is a bridge rejection
func IsConnectionRejected(err error) bool {
	return isType(err, ErrTypeRejected)
}

// IsHandshakeFailed checks if an error is a handshake failure
func IsHandshakeFailed(err error) bool {
	return isType(err, ErrTypeHandshake)
}

// IsMalformedFrame checks if an error is a frame decode failure
func IsMalformedFrame(err error) bool {
	return isType(err, ErrTypeMalformedFrame)
}

func isType(err error, t ErrorType) bool {
	var perr *ProtocolError
	if errors.As(err, &perr) {
		return perr.Type == t
	}
	return false
}
