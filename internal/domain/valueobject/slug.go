package valueobject

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	MinSlugLength = 3
	MaxSlugLength = 50
)

var slugRegex = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

// Slug is a value object representing the human-chosen short path of a link.
// It is immutable and validated on creation.
type Slug struct {
	value string
}

// NewSlug creates a new Slug from a string, validating the format.
func NewSlug(slug string) (Slug, error) {
	if err := validation.Validate(slug,
		validation.Required.Error("slug is required"),
		validation.Length(MinSlugLength, MaxSlugLength).Error("slug must be 3-50 characters"),
		validation.Match(slugRegex).Error("slug must contain only alphanumeric characters and hyphens"),
	); err != nil {
		return Slug{}, ErrInvalidSlug
	}
	return Slug{value: slug}, nil
}

// String returns the string representation of the Slug.
func (s Slug) String() string {
	return s.value
}

// IsEmpty returns true if the Slug is empty.
func (s Slug) IsEmpty() bool {
	return s.value == ""
}

// Equals compares two Slugs for equality.
func (s Slug) Equals(other Slug) bool {
	return s.value == other.value
}
