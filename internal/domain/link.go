package domain

import (
	"sort"
	"time"

	"linkboard/internal/domain/event"
	"linkboard/internal/domain/valueobject"
)

// Compile-time interface check
var _ AggregateRoot = (*Link)(nil)

// Click is one recorded visit of a link. The fingerprint is used only to
// classify the visit as unique or repeat, never for identity.
type Click struct {
	TimestampMs    int64  `json:"timestamp_ms"`
	Country        string `json:"country"`
	ReferrerSource string `json:"referrer_source"`
	Fingerprint    string `json:"fingerprint"`
}

// Link is the aggregate root of the registry: a human-chosen slug mapped to a
// destination URL, owned by the device that created it, carrying its full
// click history and the aggregate counters derived from it.
//
// Slug, destination, creator token and creation time are write-once. The
// title may be changed by the owner. Clicks are append-only; totalClicks
// always equals the history length and uniqueClicks the number of distinct
// fingerprints in it.
type Link struct {
	slug              valueobject.Slug
	title             valueobject.Title
	destination       valueobject.Destination
	creatorToken      string
	createdAtMs       int64
	originCountry     string
	originCountryCode string
	totalClicks       int64
	uniqueClicks      int64
	clicks            []Click

	// seen indexes the fingerprints already present in clicks, so that
	// uniqueness classification stays O(1) instead of rescanning the
	// history on every click.
	seen map[string]struct{}

	// events holds domain events raised by this aggregate.
	events []event.Event
}

// NewLink creates a new Link with zeroed counters and an empty history.
// It raises a LinkCreated event.
func NewLink(
	slug valueobject.Slug,
	title valueobject.Title,
	destination valueobject.Destination,
	creatorToken string,
	originCountry string,
	originCountryCode string,
) *Link {
	l := &Link{
		slug:              slug,
		title:             title,
		destination:       destination,
		creatorToken:      creatorToken,
		createdAtMs:       time.Now().UnixMilli(),
		originCountry:     originCountry,
		originCountryCode: originCountryCode,
		clicks:            make([]Click, 0),
		seen:              make(map[string]struct{}),
		events:            make([]event.Event, 0),
	}
	l.addEvent(event.NewLinkCreated(slug.String(), title.String(), destination.String(), originCountryCode))
	return l
}

// LinkState is the persistence representation of a Link. Stores serialize
// and exchange this; the fingerprint index is rebuilt on reconstruction.
type LinkState struct {
	Slug              string  `json:"slug"`
	Title             string  `json:"title"`
	DestinationURL    string  `json:"destination_url"`
	CreatorToken      string  `json:"creator_token"`
	CreatedAtMs       int64   `json:"created_at_ms"`
	OriginCountry     string  `json:"origin_country"`
	OriginCountryCode string  `json:"origin_country_code"`
	TotalClicks       int64   `json:"total_clicks"`
	UniqueClicks      int64   `json:"unique_clicks"`
	Clicks            []Click `json:"clicks"`
}

// ReconstructLink recreates a Link from its persisted state.
func ReconstructLink(state LinkState) (*Link, error) {
	slug, err := valueobject.NewSlug(state.Slug)
	if err != nil {
		return nil, err
	}
	title, err := valueobject.NewTitle(state.Title)
	if err != nil {
		return nil, err
	}
	destination, err := valueobject.NewDestination(state.DestinationURL)
	if err != nil {
		return nil, err
	}

	clicks := make([]Click, len(state.Clicks))
	copy(clicks, state.Clicks)

	seen := make(map[string]struct{}, len(clicks))
	for _, c := range clicks {
		seen[c.Fingerprint] = struct{}{}
	}

	return &Link{
		slug:              slug,
		title:             title,
		destination:       destination,
		creatorToken:      state.CreatorToken,
		createdAtMs:       state.CreatedAtMs,
		originCountry:     state.OriginCountry,
		originCountryCode: state.OriginCountryCode,
		totalClicks:       state.TotalClicks,
		uniqueClicks:      state.UniqueClicks,
		clicks:            clicks,
		seen:              seen,
	}, nil
}

// State returns the persistence representation of the Link.
func (l *Link) State() LinkState {
	clicks := make([]Click, len(l.clicks))
	copy(clicks, l.clicks)

	return LinkState{
		Slug:              l.slug.String(),
		Title:             l.title.String(),
		DestinationURL:    l.destination.String(),
		CreatorToken:      l.creatorToken,
		CreatedAtMs:       l.createdAtMs,
		OriginCountry:     l.originCountry,
		OriginCountryCode: l.originCountryCode,
		TotalClicks:       l.totalClicks,
		UniqueClicks:      l.uniqueClicks,
		Clicks:            clicks,
	}
}

// Clone returns a deep copy of the Link. Uncommitted events are not carried
// over to the copy.
func (l *Link) Clone() *Link {
	clicks := make([]Click, len(l.clicks))
	copy(clicks, l.clicks)

	seen := make(map[string]struct{}, len(l.seen))
	for fp := range l.seen {
		seen[fp] = struct{}{}
	}

	return &Link{
		slug:              l.slug,
		title:             l.title,
		destination:       l.destination,
		creatorToken:      l.creatorToken,
		createdAtMs:       l.createdAtMs,
		originCountry:     l.originCountry,
		originCountryCode: l.originCountryCode,
		totalClicks:       l.totalClicks,
		uniqueClicks:      l.uniqueClicks,
		clicks:            clicks,
		seen:              seen,
	}
}

// Slug returns the link's slug.
func (l *Link) Slug() valueobject.Slug {
	return l.slug
}

// Title returns the link's current title.
func (l *Link) Title() valueobject.Title {
	return l.title
}

// Destination returns the destination URL.
func (l *Link) Destination() valueobject.Destination {
	return l.destination
}

// CreatorToken returns the opaque token of the creating device.
func (l *Link) CreatorToken() string {
	return l.creatorToken
}

// CreatedAtMs returns the creation time in epoch milliseconds.
func (l *Link) CreatedAtMs() int64 {
	return l.createdAtMs
}

// OriginCountry returns the best-effort country of the creator.
func (l *Link) OriginCountry() string {
	return l.originCountry
}

// OriginCountryCode returns the best-effort country code of the creator.
func (l *Link) OriginCountryCode() string {
	return l.originCountryCode
}

// TotalClicks returns the number of recorded clicks.
func (l *Link) TotalClicks() int64 {
	return l.totalClicks
}

// UniqueClicks returns the number of clicks with distinct fingerprints.
func (l *Link) UniqueClicks() int64 {
	return l.uniqueClicks
}

// Clicks returns a copy of the click history in arrival order.
func (l *Link) Clicks() []Click {
	clicks := make([]Click, len(l.clicks))
	copy(clicks, l.clicks)
	return clicks
}

// HasFingerprint reports whether a click with the given fingerprint has
// already been recorded on this link.
func (l *Link) HasFingerprint(fingerprint string) bool {
	_, ok := l.seen[fingerprint]
	return ok
}

// IsOwnedBy reports whether the given token matches the creator token.
// This is a plain equality check, not an authentication mechanism.
func (l *Link) IsOwnedBy(token string) bool {
	return l.creatorToken == token
}

// RecordClick appends a click to the history and updates both counters.
// It returns true if the click's fingerprint had not been seen before.
func (l *Link) RecordClick(c Click) bool {
	_, repeat := l.seen[c.Fingerprint]

	l.clicks = append(l.clicks, c)
	l.seen[c.Fingerprint] = struct{}{}
	l.totalClicks++
	if !repeat {
		l.uniqueClicks++
	}
	return !repeat
}

// Rename changes the title if the requester owns the link.
func (l *Link) Rename(newTitle valueobject.Title, requesterToken string) error {
	if !l.IsOwnedBy(requesterToken) {
		return ErrNotOwner
	}
	l.title = newTitle
	return nil
}

// ShortURL renders the public short URL for the given base.
func (l *Link) ShortURL(base string) string {
	return base + "/" + l.slug.String()
}

// addEvent adds a domain event to the aggregate.
func (l *Link) addEvent(e event.Event) {
	l.events = append(l.events, e)
}

// Events returns all uncommitted domain events.
func (l *Link) Events() []event.Event {
	return l.events
}

// ClearEvents clears all domain events after they have been dispatched.
func (l *Link) ClearEvents() {
	l.events = make([]event.Event, 0)
}

// SortByNewest orders links by creation time descending, ties broken by slug
// ascending so listings are deterministic when creations collide on the same
// millisecond.
func SortByNewest(links []*Link) {
	sort.Slice(links, func(i, j int) bool {
		if links[i].createdAtMs != links[j].createdAtMs {
			return links[i].createdAtMs > links[j].createdAtMs
		}
		return links[i].slug.String() < links[j].slug.String()
	})
}
