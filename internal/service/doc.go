// Package service contains the application use cases. It coordinates the
// domain types with the store interfaces (defined in internal/store) and
// never depends on a concrete storage backend.
//
// Error handling:
//   - Expected conditions are returned as sentinels (ErrDogNotFound,
//     ErrNotOwned, ErrAlreadyAdopted, ErrSelfAdoption) or as domain
//     validation errors.
//   - Unexpected failures are wrapped in DogServiceError, which keeps the
//     operation name and the underlying cause.
//   - The API layer maps sentinels to HTTP status codes with errors.Is.
//
// Account operations live in the auth subpackage.
package service
