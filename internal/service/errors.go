package service

import (
	"errors"
	"fmt"
)

// Common service errors. Service methods return these sentinels for expected
// conditions and the API layer maps them to status codes. Unexpected errors
// are wrapped in DogServiceError.
var (
	// ErrDogNotFound indicates that the listing does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrDogNotFound = errors.New("dog not found")

	// ErrNotOwned indicates a resource is owned by a different user than the one making the request.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrAlreadyAdopted indicates the listing has already completed its only transition.
	// API layer should map this to HTTP 400 Bad Request.
	ErrAlreadyAdopted = errors.New("dog has already been adopted")

	// ErrSelfAdoption indicates an owner tried to adopt their own listing.
	// API layer should map this to HTTP 400 Bad Request.
	ErrSelfAdoption = errors.New("cannot adopt your own dog")
)

// ServiceError wraps an unexpected failure with the service and operation
// that produced it.
type ServiceError struct {
	Service string
	Op      string
	Err     error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Op, e.Err)
	}
	return fmt.Sprintf("%s service %s operation failed", e.Service, e.Op)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op string, err error) error {
	return &ServiceError{
		Service: service,
		Op:      op,
		Err:     err,
	}
}
