package domain

import (
	"context"

	"linkboard/internal/domain/valueobject"
)

// LinkRepository is the authoritative keyed store of link records. It is
// defined in the domain layer and implemented in the data layer.
//
// Implementations own their concurrency discipline: Create is an atomic
// check-and-set, and Update serializes concurrent mutations of the same slug
// so no increment or append is ever lost. Callers never take external locks.
// Transient backend failures are wrapped as ErrStoreUnavailable.
type LinkRepository interface {
	// Create persists a new link if and only if its slug is free.
	// Returns ErrSlugTaken when a record for the slug already exists;
	// under concurrent creation of the same slug exactly one call wins.
	Create(ctx context.Context, link *Link) error

	// FindBySlug retrieves a link by slug. Returns ErrLinkNotFound when
	// no record exists.
	FindBySlug(ctx context.Context, slug valueobject.Slug) (*Link, error)

	// Exists reports whether a record for the slug exists. Advisory only:
	// the result may be stale by the time a subsequent Create runs, and
	// Create stays the sole arbiter of slug ownership.
	Exists(ctx context.Context, slug valueobject.Slug) (bool, error)

	// Update applies the mutator to the stored link atomically with
	// respect to other updates of the same slug. A mutator error aborts
	// the write and is returned unchanged; no partial state becomes
	// visible. Returns ErrLinkNotFound when no record exists.
	Update(ctx context.Context, slug valueobject.Slug, mutate func(*Link) error) error

	// FindAll retrieves all links ordered by creation time descending,
	// ties broken by slug ascending. A non-nil ownerToken restricts the
	// result to links created by that token.
	FindAll(ctx context.Context, ownerToken *string) ([]*Link, error)

	// CountDistinctOwners returns the number of distinct creator tokens
	// across all records.
	CountDistinctOwners(ctx context.Context) (int, error)
}
