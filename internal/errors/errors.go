package errors

import (
	"errors"
	"fmt"
	"time"
)

var (
	Is     = errors.Is
	As     = errors.As
	New    = errors.New
	Unwrap = errors.Unwrap
)

type ErrorCategory string

const (
	CategoryTransport ErrorCategory = "TRANSPORT" // Connectivity failures
	CategoryProtocol  ErrorCategory = "PROTOCOL"  // Non-2xx responses
	CategoryMalformed ErrorCategory = "MALFORMED" // Unusable response headers
	CategorySecurity  ErrorCategory = "SECURITY"  // TLS and client certificates
	CategoryCancelled ErrorCategory = "CANCELLED" // Abandoned requests
	CategoryUnknown   ErrorCategory = "UNKNOWN"   // Unclassified errors
)

// LoadError describes why a loading request could not be satisfied.
type LoadError struct {
	Err        error         // Original error
	Category   ErrorCategory // General category
	Resource   string        // What resource was being accessed
	RequestID  string        // Range request that failed
	StatusCode int           // HTTP status code, 0 if none was received
	Timestamp  time.Time     // When the error occurred
}

// Error implements the error interface
func (e *LoadError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("[%s] %s: %v", e.Category, e.Resource, e.Err)
	}
	return fmt.Sprintf("[%s] %s (status: %d): %v", e.Category, e.Resource, e.StatusCode, e.Err)
}

// Unwrap provides the underlying cause for error unwrapping (compatible with errors.As)
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Common sentinel errors
var (
	ErrNoAuthenticator     = New("authenticator is required")
	ErrUnsupportedRequest  = New("loading request has neither a metadata nor a data query")
	ErrUnresolvableURL     = New("resource URL cannot be resolved")
	ErrCertificateRequired = New("client certificate required")
)

func newLoadError(err error, category ErrorCategory, resource string) *LoadError {
	return &LoadError{
		Err:       err,
		Category:  category,
		Resource:  resource,
		Timestamp: time.Now(),
	}
}

// NewTransportError creates a connectivity error
func NewTransportError(err error, resource string) *LoadError {
	return newLoadError(err, CategoryTransport, resource)
}

// NewProtocolError creates an error for a response whose status is outside 200-299
func NewProtocolError(err error, resource string, statusCode int) *LoadError {
	e := newLoadError(err, CategoryProtocol, resource)
	e.StatusCode = statusCode

	return e
}

// NewSecurityError creates a TLS or certificate error
func NewSecurityError(err error, resource string) *LoadError {
	return newLoadError(err, CategorySecurity, resource)
}

// NewMalformedError creates an error for response headers that prevent satisfying a request
func NewMalformedError(err error, resource string) *LoadError {
	return newLoadError(err, CategoryMalformed, resource)
}

// NewCancelledError records an abandoned request. It is never delivered to a
// loading request, which finishes without error when cancelled.
func NewCancelledError(err error, resource string) *LoadError {
	return newLoadError(err, CategoryCancelled, resource)
}

// WithRequestID tags a LoadError with the range request that produced it.
func WithRequestID(err error, id string) error {
	var loadErr *LoadError
	if As(err, &loadErr) {
		loadErr.RequestID = id
	}

	return err
}

func hasCategory(err error, category ErrorCategory) bool {
	var loadErr *LoadError
	return As(err, &loadErr) && loadErr.Category == category
}

// IsTransportError determines if the error is connectivity related
func IsTransportError(err error) bool {
	return hasCategory(err, CategoryTransport)
}

// IsProtocolError determines if the error came from a non-2xx response
func IsProtocolError(err error) bool {
	return hasCategory(err, CategoryProtocol)
}

// IsSecurityError determines if the error came from TLS or certificate handling
func IsSecurityError(err error) bool {
	return hasCategory(err, CategorySecurity)
}

// IsMalformedError determines if the error came from unusable headers
func IsMalformedError(err error) bool {
	return hasCategory(err, CategoryMalformed)
}

// GetStatusCode extracts the status code from an error if available
func GetStatusCode(err error) (int, bool) {
	var loadErr *LoadError
	if As(err, &loadErr) && loadErr.StatusCode != 0 {
		return loadErr.StatusCode, true
	}
	return 0, false
}
