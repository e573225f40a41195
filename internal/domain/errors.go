package domain

import "errors"

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("duplicate user")

	ErrNameRequired  = errors.New("name is required")
	ErrNameTooLong   = errors.New("name too long")
	ErrEmailRequired = errors.New("email is required")
	ErrEmailInvalid  = errors.New("invalid email format")
)

// IsValidation reports whether err is one of the entity rule violations.
func IsValidation(err error) bool {
	return errors.Is(err, ErrNameRequired) ||
		errors.Is(err, ErrNameTooLong) ||
		errors.Is(err, ErrEmailRequired) ||
		errors.Is(err, ErrEmailInvalid)
}
