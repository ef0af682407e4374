package domain

import (
	"errors"

	"linkboard/internal/domain/valueobject"
)

var (
	ErrLinkNotFound     = errors.New("link not found")
	ErrInvalidToken     = errors.New("creator token must not be empty")
	ErrSlugTaken        = errors.New("slug already taken")
	ErrNotOwner         = errors.New("requester does not own this link")
	ErrStoreUnavailable = errors.New("link store unavailable")

	// Re-export value object errors for convenience.
	ErrInvalidSlug        = valueobject.ErrInvalidSlug
	ErrInvalidTitle       = valueobject.ErrInvalidTitle
	ErrInvalidDestination = valueobject.ErrInvalidDestination
)
