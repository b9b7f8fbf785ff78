// Package mocks holds shared test doubles for the store and auth interfaces.
//
// Store mocks use testify/mock so tests can assert on calls:
//
//	users := &mocks.TestifyMockUserStore{}
//	users.On("GetByID", mock.Anything, id).Return(nil, store.ErrUserNotFound)
//
// The JWT and password mocks use function or value fields instead.
package mocks
