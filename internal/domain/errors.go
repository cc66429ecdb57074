package domain

import "fmt"

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// ConflictError represents a uniqueness violation, such as creating a
// post whose slug is already taken.
type ConflictError struct {
	Resource string
}

func (e ConflictError) Error() string {
	if e.Resource == "" {
		return "already exists"
	}
	return fmt.Sprintf("%s already exists", e.Resource)
}

// Is enables errors.Is matching on ConflictError.
func (e ConflictError) Is(target error) bool {
	_, ok := target.(ConflictError)
	if ok {
		return true
	}
	_, ok = target.(*ConflictError)
	return ok
}

// ErrConflict is the sentinel error for uniqueness violations.
var ErrConflict = ConflictError{}

// UnauthorizedError represents a missing or invalid admin key.
type UnauthorizedError struct{}

func (e UnauthorizedError) Error() string {
	return "invalid API key"
}

// Is enables errors.Is matching on UnauthorizedError.
func (e UnauthorizedError) Is(target error) bool {
	_, ok := target.(UnauthorizedError)
	if ok {
		return true
	}
	_, ok = target.(*UnauthorizedError)
	return ok
}

// ErrUnauthorized is the sentinel error for rejected admin keys.
var ErrUnauthorized = UnauthorizedError{}

// InvalidInputError represents a request that fails validation before
// touching storage.
type InvalidInputError struct {
	Reason string
}

func (e InvalidInputError) Error() string {
	if e.Reason == "" {
		return "invalid input"
	}
	return e.Reason
}

// Is enables errors.Is matching on InvalidInputError.
func (e InvalidInputError) Is(target error) bool {
	_, ok := target.(InvalidInputError)
	if ok {
		return true
	}
	_, ok = target.(*InvalidInputError)
	return ok
}

// ErrInvalidInput is the sentinel error for validation failures.
var ErrInvalidInput = InvalidInputError{}
