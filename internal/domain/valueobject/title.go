package valueobject

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const MaxTitleLength = 100

// Title is a value object representing the display title of a link.
// Surrounding whitespace is trimmed on creation.
type Title struct {
	value string
}

// NewTitle creates a new Title from a string, trimming whitespace and
// validating the length.
func NewTitle(title string) (Title, error) {
	trimmed := strings.TrimSpace(title)
	if err := validation.Validate(trimmed,
		validation.Required.Error("title is required"),
		validation.Length(1, MaxTitleLength).Error("title must be 1-100 characters"),
	); err != nil {
		return Title{}, ErrInvalidTitle
	}
	return Title{value: trimmed}, nil
}

// String returns the string representation of the Title.
func (t Title) String() string {
	return t.value
}

// IsEmpty returns true if the Title is empty.
func (t Title) IsEmpty() bool {
	return t.value == ""
}

// Equals compares two Titles for equality.
func (t Title) Equals(other Title) bool {
	return t.value == other.value
}
