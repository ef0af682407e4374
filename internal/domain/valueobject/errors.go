package valueobject

import "errors"

var (
	ErrInvalidSlug        = errors.New("invalid slug format")
	ErrInvalidTitle       = errors.New("invalid title")
	ErrInvalidDestination = errors.New("invalid destination url")
)
