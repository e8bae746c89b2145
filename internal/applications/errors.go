package applications

import "errors"

var (
	ErrNotFound      = errors.New("application not found")
	ErrJobNotFound   = errors.New("job not found")
	ErrInvalidInput  = errors.New("invalid application input")
	ErrInvalidStatus = errors.New("status must be PENDING, ACCEPTED or REJECTED")
	ErrForbidden     = errors.New("not allowed to access this application")
)
