// Package service maps transport-level requests onto the registry use cases
// and shapes domain objects into API replies. Creator tokens and visitor
// fingerprints never leave this layer.
package service

import (
	"context"

	"linkboard/internal/biz"
	"linkboard/internal/domain"

	"github.com/samber/lo"
)

// RegistryService is the API surface over the registry.
type RegistryService struct {
	registry *biz.Registry
}

// NewRegistryService creates the registry service.
func NewRegistryService(registry *biz.Registry) *RegistryService {
	return &RegistryService{registry: registry}
}

// LinkInfo is the public representation of a link.
type LinkInfo struct {
	Slug              string `json:"slug"`
	Title             string `json:"title"`
	DestinationURL    string `json:"destination_url"`
	ShortURL          string `json:"short_url"`
	CreatedAtMs       int64  `json:"created_at_ms"`
	OriginCountry     string `json:"origin_country"`
	OriginCountryCode string `json:"origin_country_code"`
	TotalClicks       int64  `json:"total_clicks"`
	UniqueClicks      int64  `json:"unique_clicks"`
}

func (s *RegistryService) toLinkInfo(l *domain.Link) LinkInfo {
	return LinkInfo{
		Slug:              l.Slug().String(),
		Title:             l.Title().String(),
		DestinationURL:    l.Destination().String(),
		ShortURL:          l.ShortURL(s.registry.BaseURL()),
		CreatedAtMs:       l.CreatedAtMs(),
		OriginCountry:     l.OriginCountry(),
		OriginCountryCode: l.OriginCountryCode(),
		TotalClicks:       l.TotalClicks(),
		UniqueClicks:      l.UniqueClicks(),
	}
}

// CreateLinkRequest is the payload for creating a link.
type CreateLinkRequest struct {
	Slug           string `json:"slug"`
	Title          string `json:"title"`
	DestinationURL string `json:"destination_url"`
	CreatorToken   string `json:"creator_token"`
}

// CreateLinkReply wraps the created link.
type CreateLinkReply struct {
	Link LinkInfo `json:"link"`
}

// CreateLink registers a new link. CreatorIP is taken from the transport.
func (s *RegistryService) CreateLink(ctx context.Context, req *CreateLinkRequest, creatorIP string) (*CreateLinkReply, error) {
	link, err := s.registry.CreateLink(ctx, biz.CreateLinkInput{
		Slug:           req.Slug,
		Title:          req.Title,
		DestinationURL: req.DestinationURL,
		CreatorToken:   req.CreatorToken,
		CreatorIP:      creatorIP,
	})
	if err != nil {
		return nil, err
	}
	return &CreateLinkReply{Link: s.toLinkInfo(link)}, nil
}

// GetLinkReply wraps a single link lookup.
type GetLinkReply struct {
	Link LinkInfo `json:"link"`
}

// GetLink fetches a link by slug without recording a click.
func (s *RegistryService) GetLink(ctx context.Context, slug string) (*GetLinkReply, error) {
	link, err := s.registry.GetLink(ctx, slug)
	if err != nil {
		return nil, err
	}
	return &GetLinkReply{Link: s.toLinkInfo(link)}, nil
}

// Resolve looks up the destination for a redirect and records the visit.
func (s *RegistryService) Resolve(ctx context.Context, slug string, visit biz.Visit) (string, error) {
	link, err := s.registry.Resolve(ctx, slug, visit)
	if err != nil {
		return "", err
	}
	return link.Destination().String(), nil
}

// RenameLinkRequest is the payload for renaming a link.
type RenameLinkRequest struct {
	Title          string `json:"title"`
	RequesterToken string `json:"requester_token"`
}

// RenameLinkReply wraps the renamed link.
type RenameLinkReply struct {
	Link LinkInfo `json:"link"`
}

// RenameLink changes a link's title, gated on ownership.
func (s *RegistryService) RenameLink(ctx context.Context, slug string, req *RenameLinkRequest) (*RenameLinkReply, error) {
	link, err := s.registry.RenameLink(ctx, slug, req.Title, req.RequesterToken)
	if err != nil {
		return nil, err
	}
	return &RenameLinkReply{Link: s.toLinkInfo(link)}, nil
}

// ListLinksReply is one page of links.
type ListLinksReply struct {
	Links      []LinkInfo `json:"links"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	Total      int        `json:"total"`
	TotalPages int        `json:"total_pages"`
}

// ListLinks returns one page of links, newest first, optionally filtered to
// a single owner.
func (s *RegistryService) ListLinks(ctx context.Context, ownerToken *string, page, pageSize int) (*ListLinksReply, error) {
	result, err := s.registry.ListLinks(ctx, ownerToken, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &ListLinksReply{
		Links:      lo.Map(result.Links, func(l *domain.Link, _ int) LinkInfo { return s.toLinkInfo(l) }),
		Page:       result.Page,
		PageSize:   result.PageSize,
		Total:      result.Total,
		TotalPages: result.TotalPages,
	}, nil
}

// AvailabilityReply reports whether a slug can be claimed.
type AvailabilityReply struct {
	Slug      string `json:"slug"`
	Available bool   `json:"available"`
}

// CheckAvailability reports whether the slug can be claimed.
func (s *RegistryService) CheckAvailability(ctx context.Context, slug string) (*AvailabilityReply, error) {
	available, err := s.registry.CheckAvailability(ctx, slug)
	if err != nil {
		return nil, err
	}
	return &AvailabilityReply{Slug: slug, Available: available}, nil
}

// SuggestSlugReply carries a proposed free slug.
type SuggestSlugReply struct {
	Slug string `json:"slug"`
}

// SuggestSlug proposes a random free slug.
func (s *RegistryService) SuggestSlug(ctx context.Context) (*SuggestSlugReply, error) {
	slug, err := s.registry.SuggestSlug(ctx)
	if err != nil {
		return nil, err
	}
	return &SuggestSlugReply{Slug: slug}, nil
}

// OwnerCountReply carries the distinct-owner count.
type OwnerCountReply struct {
	Count int `json:"count"`
}

// OwnerCount returns the number of distinct creator tokens.
func (s *RegistryService) OwnerCount(ctx context.Context) (*OwnerCountReply, error) {
	count, err := s.registry.UniqueOwnerCount(ctx)
	if err != nil {
		return nil, err
	}
	return &OwnerCountReply{Count: count}, nil
}

// StatsReply is the per-link click breakdown.
type StatsReply struct {
	Slug         string           `json:"slug"`
	TotalClicks  int64            `json:"total_clicks"`
	UniqueClicks int64            `json:"unique_clicks"`
	ByCountry    map[string]int64 `json:"by_country"`
	BySource     map[string]int64 `json:"by_source"`
}

// Stats returns the click breakdown for one link.
func (s *RegistryService) Stats(ctx context.Context, slug string) (*StatsReply, error) {
	stats, err := s.registry.Stats(ctx, slug)
	if err != nil {
		return nil, err
	}
	return &StatsReply{
		Slug:         stats.Slug,
		TotalClicks:  stats.TotalClicks,
		UniqueClicks: stats.UniqueClicks,
		ByCountry:    stats.ByCountry,
		BySource:     stats.BySource,
	}, nil
}
