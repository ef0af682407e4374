package data

import (
	"context"
	"sync"

	"linkboard/internal/domain"
	"linkboard/internal/domain/valueobject"
)

// Compile-time interface check
var _ domain.LinkRepository = (*MemoryStore)(nil)

// memoryEntry holds one stored link. Its mutex serializes updates to that
// slug only; the published *Link is treated as immutable and replaced
// wholesale on every update, so readers holding an old pointer always see a
// complete record.
type memoryEntry struct {
	mu   sync.Mutex
	link *domain.Link
}

func (e *memoryEntry) snapshot() *domain.Link {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.link
}

// MemoryStore is the in-memory link store. The store-level RWMutex guards
// the slug map; mutation contention is per-slug.
type MemoryStore struct {
	mu    sync.RWMutex
	links map[string]*memoryEntry
}

// NewMemoryStore creates an empty in-memory link store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		links: make(map[string]*memoryEntry),
	}
}

// Create persists the link unless its slug is already taken.
func (s *MemoryStore) Create(ctx context.Context, link *domain.Link) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	slug := link.Slug().String()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.links[slug]; exists {
		return domain.ErrSlugTaken
	}
	s.links[slug] = &memoryEntry{link: link.Clone()}
	return nil
}

// FindBySlug retrieves a copy of the stored link.
func (s *MemoryStore) FindBySlug(ctx context.Context, slug valueobject.Slug) (*domain.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	entry, exists := s.links[slug.String()]
	s.mu.RUnlock()

	if !exists {
		return nil, domain.ErrLinkNotFound
	}
	return entry.snapshot().Clone(), nil
}

// Exists reports whether a record for the slug exists.
func (s *MemoryStore) Exists(ctx context.Context, slug valueobject.Slug) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.links[slug.String()]
	return exists, nil
}

// Update applies the mutator to a working copy and publishes it atomically.
// A mutator error discards the copy and leaves the stored record untouched.
func (s *MemoryStore) Update(ctx context.Context, slug valueobject.Slug, mutate func(*domain.Link) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	entry, exists := s.links[slug.String()]
	s.mu.RUnlock()

	if !exists {
		return domain.ErrLinkNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	work := entry.link.Clone()
	if err := mutate(work); err != nil {
		return err
	}
	entry.link = work
	return nil
}

// FindAll returns copies of all links, newest first, optionally filtered by
// creator token.
func (s *MemoryStore) FindAll(ctx context.Context, ownerToken *string) ([]*domain.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	entries := make([]*memoryEntry, 0, len(s.links))
	for _, e := range s.links {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	links := make([]*domain.Link, 0, len(entries))
	for _, e := range entries {
		l := e.snapshot()
		if ownerToken != nil && !l.IsOwnedBy(*ownerToken) {
			continue
		}
		links = append(links, l.Clone())
	}

	domain.SortByNewest(links)
	return links, nil
}

// CountDistinctOwners returns the number of distinct creator tokens.
func (s *MemoryStore) CountDistinctOwners(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	entries := make([]*memoryEntry, 0, len(s.links))
	for _, e := range s.links {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	owners := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		owners[e.snapshot().CreatorToken()] = struct{}{}
	}
	return len(owners), nil
}
