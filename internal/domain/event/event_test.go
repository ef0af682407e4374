package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinkCreated(t *testing.T) {
	e := NewLinkCreated("abc-123", "My Link", "https://example.com", "US")

	assert.Equal(t, "link.created", e.EventName())
	assert.Equal(t, "abc-123", e.AggregateID())
	assert.Equal(t, "abc-123", e.Slug)
	assert.Equal(t, "My Link", e.Title)
	assert.Equal(t, "https://example.com", e.DestinationURL)
	assert.Equal(t, "US", e.OriginCountryCode)
	assert.False(t, e.OccurredAt().IsZero())
	assert.NotEmpty(t, e.EventID())
}

func TestLinkClicked(t *testing.T) {
	e := NewLinkClicked("abc-123", "Mozilla/5.0", "en-US", "203.0.113.9", "https://news.ycombinator.com", "Germany")

	assert.Equal(t, "link.clicked", e.EventName())
	assert.Equal(t, "abc-123", e.AggregateID())
	assert.Equal(t, "Mozilla/5.0", e.UserAgent)
	assert.Equal(t, "en-US", e.Locale)
	assert.Equal(t, "203.0.113.9", e.RemoteIP)
	assert.Equal(t, "https://news.ycombinator.com", e.Referrer)
	assert.Equal(t, "Germany", e.Country)
}

func TestLinkRenamed(t *testing.T) {
	e := NewLinkRenamed("abc-123", "Old", "New")

	assert.Equal(t, "link.renamed", e.EventName())
	assert.Equal(t, "abc-123", e.AggregateID())
	assert.Equal(t, "Old", e.OldTitle)
	assert.Equal(t, "New", e.NewTitle)
}

func TestEventIDsAreUnique(t *testing.T) {
	a := NewLinkCreated("abc-123", "T", "https://example.com", "XX")
	b := NewLinkCreated("abc-123", "T", "https://example.com", "XX")

	assert.NotEqual(t, a.EventID(), b.EventID())
}
