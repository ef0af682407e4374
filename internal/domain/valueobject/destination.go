package valueobject

import (
	"net/url"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Destination is a value object representing the absolute URL a link
// redirects to. It is immutable and validated on creation.
type Destination struct {
	value  string
	parsed *url.URL
}

// NewDestination creates a new Destination from a string, validating the format.
func NewDestination(rawURL string) (Destination, error) {
	if err := validation.Validate(rawURL,
		validation.Required.Error("destination URL is required"),
		is.URL.Error("invalid URL format"),
	); err != nil {
		return Destination{}, ErrInvalidDestination
	}

	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return Destination{}, ErrInvalidDestination
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return Destination{}, ErrInvalidDestination
	}

	if parsed.Host == "" {
		return Destination{}, ErrInvalidDestination
	}

	return Destination{
		value:  rawURL,
		parsed: parsed,
	}, nil
}

// String returns the string representation of the Destination.
func (d Destination) String() string {
	return d.value
}

// Host returns the host portion of the URL.
func (d Destination) Host() string {
	if d.parsed == nil {
		return ""
	}
	return d.parsed.Host
}

// Scheme returns the scheme (http or https) of the URL.
func (d Destination) Scheme() string {
	if d.parsed == nil {
		return ""
	}
	return d.parsed.Scheme
}

// IsEmpty returns true if the Destination is empty.
func (d Destination) IsEmpty() bool {
	return d.value == ""
}

// Equals compares two Destinations for equality.
func (d Destination) Equals(other Destination) bool {
	return d.value == other.value
}
