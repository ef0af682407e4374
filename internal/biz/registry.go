// Package biz implements the registry use cases on top of the domain layer:
// link creation, resolution, click recording, renaming and listings.
package biz

import (
	"context"
	"strings"

	"linkboard/internal/conf"
	"linkboard/internal/domain"
	"linkboard/internal/domain/event"
	"linkboard/internal/domain/valueobject"
	"linkboard/internal/geo"
	"linkboard/internal/infra/eventbus"

	"github.com/go-kratos/kratos/v2/log"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// DefaultPageSize bounds listings when the caller does not ask for a size.
	DefaultPageSize = 20

	suggestedSlugAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	suggestedSlugLength   = 8
	suggestRetries        = 5
)

// Visit carries the raw attributes of a single resolution request as
// supplied by the transport layer. Country may be pre-resolved by an edge
// proxy; when empty the recorder resolves it from RemoteIP.
type Visit struct {
	UserAgent string
	Locale    string
	RemoteIP  string
	Referrer  string
	Country   string
}

// CreateLinkInput is the caller-supplied material for a new link.
type CreateLinkInput struct {
	Slug           string
	Title          string
	DestinationURL string
	CreatorToken   string
	// CreatorIP is used to resolve the link's origin country. Empty means
	// the geolocation provider's own notion of "the caller".
	CreatorIP string
}

// LinkPage is one page of a listing.
type LinkPage struct {
	Links      []*domain.Link
	Page       int
	PageSize   int
	Total      int
	TotalPages int
}

// Registry is the public operation set over the link store. It owns input
// validation and ownership gating; the store owns atomicity.
type Registry struct {
	repo    domain.LinkRepository
	bus     *eventbus.EventBus
	geo     geo.Resolver
	baseURL string
	log     *log.Helper
}

// NewRegistry creates the registry use case.
func NewRegistry(repo domain.LinkRepository, bus *eventbus.EventBus, resolver geo.Resolver, c *conf.Server, logger log.Logger) *Registry {
	baseURL := ""
	if c != nil && c.HTTP != nil {
		baseURL = strings.TrimSuffix(c.HTTP.BaseURL, "/")
	}
	return &Registry{
		repo:    repo,
		bus:     bus,
		geo:     resolver,
		baseURL: baseURL,
		log:     log.NewHelper(logger),
	}
}

// BaseURL returns the public base under which short links are rendered.
func (r *Registry) BaseURL() string {
	return r.baseURL
}

// CheckAvailability reports whether the slug can be claimed. Syntactically
// invalid slugs are unavailable without a store round-trip. The result is
// advisory: Create remains the sole arbiter under races.
func (r *Registry) CheckAvailability(ctx context.Context, slug string) (bool, error) {
	s, err := valueobject.NewSlug(slug)
	if err != nil {
		return false, nil
	}
	exists, err := r.repo.Exists(ctx, s)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// CreateLink validates the input, resolves the creator's origin country and
// claims the slug. Exactly one of N concurrent creators of the same slug
// succeeds; the rest get ErrSlugTaken.
func (r *Registry) CreateLink(ctx context.Context, in CreateLinkInput) (*domain.Link, error) {
	slug, err := valueobject.NewSlug(in.Slug)
	if err != nil {
		return nil, err
	}
	title, err := valueobject.NewTitle(in.Title)
	if err != nil {
		return nil, err
	}
	destination, err := valueobject.NewDestination(in.DestinationURL)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.CreatorToken) == "" {
		return nil, domain.ErrInvalidToken
	}

	origin := r.geo.Lookup(ctx, in.CreatorIP)

	link := domain.NewLink(slug, title, destination, in.CreatorToken, origin.Country, origin.CountryCode)
	if err := r.repo.Create(ctx, link); err != nil {
		return nil, err
	}

	r.publish(ctx, link.Events()...)
	link.ClearEvents()

	r.log.WithContext(ctx).Infof("created link %s -> %s", slug.String(), destination.String())
	return link, nil
}

// GetLink fetches a link by slug without recording a click.
func (r *Registry) GetLink(ctx context.Context, slug string) (*domain.Link, error) {
	s, err := valueobject.NewSlug(slug)
	if err != nil {
		return nil, domain.ErrLinkNotFound
	}
	return r.repo.FindBySlug(ctx, s)
}

// Resolve looks up the link for redirection and independently triggers click
// recording through the event bus. Recording failures never block or fail
// the resolution.
func (r *Registry) Resolve(ctx context.Context, slug string, visit Visit) (*domain.Link, error) {
	s, err := valueobject.NewSlug(slug)
	if err != nil {
		// A syntactically invalid slug can never name a record.
		return nil, domain.ErrLinkNotFound
	}

	link, err := r.repo.FindBySlug(ctx, s)
	if err != nil {
		return nil, err
	}

	clicked := event.NewLinkClicked(s.String(), visit.UserAgent, visit.Locale, visit.RemoteIP, visit.Referrer, visit.Country)
	r.publish(ctx, clicked)

	return link, nil
}

// RenameLink changes a link's title if the requester owns it. The title swap
// is atomic with respect to concurrent clicks on the same slug.
func (r *Registry) RenameLink(ctx context.Context, slug, newTitle, requesterToken string) (*domain.Link, error) {
	s, err := valueobject.NewSlug(slug)
	if err != nil {
		return nil, domain.ErrLinkNotFound
	}
	title, err := valueobject.NewTitle(newTitle)
	if err != nil {
		return nil, err
	}

	var updated *domain.Link
	var oldTitle string
	err = r.repo.Update(ctx, s, func(l *domain.Link) error {
		oldTitle = l.Title().String()
		if err := l.Rename(title, requesterToken); err != nil {
			return err
		}
		updated = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.publish(ctx, event.NewLinkRenamed(s.String(), oldTitle, title.String()))
	return updated, nil
}

// ListLinks returns one page of links, newest first. Pages are 1-indexed;
// an out-of-range page yields an empty page, not an error.
func (r *Registry) ListLinks(ctx context.Context, ownerToken *string, page, pageSize int) (*LinkPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	links, err := r.repo.FindAll(ctx, ownerToken)
	if err != nil {
		return nil, err
	}

	total := len(links)
	totalPages := (total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return &LinkPage{
		Links:      links[start:end],
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

// UniqueOwnerCount returns the number of distinct creator tokens across all
// links.
func (r *Registry) UniqueOwnerCount(ctx context.Context) (int, error) {
	return r.repo.CountDistinctOwners(ctx)
}

// SuggestSlug proposes a random free slug. Advisory like CheckAvailability:
// a suggestion can still lose a race at create time.
func (r *Registry) SuggestSlug(ctx context.Context) (string, error) {
	var lastErr error
	for i := 0; i < suggestRetries; i++ {
		candidate, err := gonanoid.Generate(suggestedSlugAlphabet, suggestedSlugLength)
		if err != nil {
			return "", err
		}
		s, err := valueobject.NewSlug(candidate)
		if err != nil {
			return "", err
		}
		exists, err := r.repo.Exists(ctx, s)
		if err != nil {
			lastErr = err
			continue
		}
		if !exists {
			return candidate, nil
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", domain.ErrSlugTaken
}

// LinkStats aggregates a link's click history.
type LinkStats struct {
	Slug         string
	TotalClicks  int64
	UniqueClicks int64
	ByCountry    map[string]int64
	BySource     map[string]int64
}

// Stats computes per-country and per-referrer-source click breakdowns for a
// single link.
func (r *Registry) Stats(ctx context.Context, slug string) (*LinkStats, error) {
	s, err := valueobject.NewSlug(slug)
	if err != nil {
		return nil, domain.ErrLinkNotFound
	}
	link, err := r.repo.FindBySlug(ctx, s)
	if err != nil {
		return nil, err
	}

	stats := &LinkStats{
		Slug:         s.String(),
		TotalClicks:  link.TotalClicks(),
		UniqueClicks: link.UniqueClicks(),
		ByCountry:    make(map[string]int64),
		BySource:     make(map[string]int64),
	}
	for _, c := range link.Clicks() {
		stats.ByCountry[c.Country]++
		stats.BySource[c.ReferrerSource]++
	}
	return stats, nil
}

// publish sends events to the bus. Publish failures are logged and dropped:
// event delivery is best-effort and never fails the calling operation.
func (r *Registry) publish(ctx context.Context, events ...event.Event) {
	for _, e := range events {
		if err := r.bus.Publish(ctx, e); err != nil {
			r.log.WithContext(ctx).Warnf("failed to publish %s for %s: %v", e.EventName(), e.AggregateID(), err)
		}
	}
}
