package sso

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrStateMismatch is returned when a callback's state does not match the session
var ErrStateMismatch = errors.New("state has been changed")

// AuthenticationError wraps an id token verification failure
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("id token verification failed: %v", e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// TokenExchangeError wraps an authorization code exchange failure
type TokenExchangeError struct {
	Err error
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("authorization code exchange failed: %v", e.Err)
}

func (e *TokenExchangeError) Unwrap() error {
	return e.Err
}

// LocalLoginError wraps a failure raised by the local login callback
type LocalLoginError struct {
	Err error
}

func (e *LocalLoginError) Error() string {
	return fmt.Sprintf("local login failed: %v", e.Err)
}

func (e *LocalLoginError) Unwrap() error {
	return e.Err
}

// StatusCode maps a login flow error to the HTTP status reported to the client
func StatusCode(err error) int {
	var (
		authErr     *AuthenticationError
		exchangeErr *TokenExchangeError
	)

	switch {
	case err == nil:
		return http.StatusFound
	case errors.Is(err, ErrStateMismatch):
		return http.StatusBadRequest
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.As(err, &exchangeErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
