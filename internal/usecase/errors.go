package usecase

import "errors"

// Sentinel errors returned by services. Handlers map these onto HTTP statuses
// with errors.Is; anything unrecognized is reported as an opaque 500.
var (
	ErrEmailTaken       = errors.New("email already registered")
	ErrWrongCredentials = errors.New("email or password is wrong")
	ErrEmailNotFound    = errors.New("email not found")
	ErrAlreadyVerified  = errors.New("email already verified")
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidRole      = errors.New("role is not valid")
	ErrWrongOldPassword = errors.New("old password is incorrect")

	// ErrTokenNotFound covers never-issued, consumed and overwritten
	// verification tokens alike; callers cannot tell these apart.
	ErrTokenNotFound = errors.New("verification token is invalid")
	ErrTokenExpired  = errors.New("verification token has expired")
)
