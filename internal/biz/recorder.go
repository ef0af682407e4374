package biz

import (
	"context"
	"time"

	"linkboard/internal/domain"
	"linkboard/internal/domain/valueobject"
	"linkboard/internal/enrichment"
	"linkboard/internal/fingerprint"
	"linkboard/internal/geo"

	"github.com/go-kratos/kratos/v2/log"
)

// Recorder turns a raw visit into a persisted click on the link's history.
// It is invoked asynchronously from the event bus, decoupled from the
// resolution path.
type Recorder struct {
	repo   domain.LinkRepository
	hasher *fingerprint.Hasher
	geo    geo.Resolver
	log    *log.Helper
}

// NewRecorder creates the click recorder.
func NewRecorder(repo domain.LinkRepository, hasher *fingerprint.Hasher, resolver geo.Resolver, logger log.Logger) *Recorder {
	return &Recorder{
		repo:   repo,
		hasher: hasher,
		geo:    resolver,
		log:    log.NewHelper(logger),
	}
}

// Record appends one click to the slug's history. Uniqueness is classified
// against the history inside the store's atomic per-slug update, so no
// concurrent click is ever lost or double-counted. Returns ErrLinkNotFound
// when the slug names no record.
func (rec *Recorder) Record(ctx context.Context, slug string, visit Visit) error {
	s, err := valueobject.NewSlug(slug)
	if err != nil {
		return domain.ErrLinkNotFound
	}

	country := visit.Country
	if country == "" {
		country = rec.geo.Lookup(ctx, visit.RemoteIP).Country
	}

	click := domain.Click{
		TimestampMs:    time.Now().UnixMilli(),
		Country:        country,
		ReferrerSource: enrichment.NormalizeReferer(visit.Referrer),
		Fingerprint:    rec.hasher.Hash(fingerprint.ClickContext(visit.UserAgent, visit.Locale, visit.RemoteIP)),
	}

	return rec.repo.Update(ctx, s, func(l *domain.Link) error {
		unique := l.RecordClick(click)
		rec.log.WithContext(ctx).Debugf("recorded click on %s (unique=%t)", s.String(), unique)
		return nil
	})
}
