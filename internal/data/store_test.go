package data

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"linkboard/internal/domain"
	"linkboard/internal/domain/valueobject"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustLink builds a valid link for store tests.
func mustLink(t *testing.T, slug, owner string) *domain.Link {
	t.Helper()
	s, err := valueobject.NewSlug(slug)
	require.NoError(t, err)
	title, err := valueobject.NewTitle("Title of " + slug)
	require.NoError(t, err)
	dest, err := valueobject.NewDestination("https://example.com/" + slug)
	require.NoError(t, err)
	return domain.NewLink(s, title, dest, owner, "Unknown", "XX")
}

func mustSlug(t *testing.T, slug string) valueobject.Slug {
	t.Helper()
	s, err := valueobject.NewSlug(slug)
	require.NoError(t, err)
	return s
}

func testClick(fingerprint string) domain.Click {
	return domain.Click{
		TimestampMs:    time.Now().UnixMilli(),
		Country:        "Germany",
		ReferrerSource: "direct",
		Fingerprint:    fingerprint,
	}
}

// testLinkRepository is the conformance suite every store backend must pass.
func testLinkRepository(t *testing.T, newStore func(t *testing.T) domain.LinkRepository) {
	ctx := context.Background()

	t.Run("create and find round trip", func(t *testing.T) {
		repo := newStore(t)
		link := mustLink(t, "abc-123", "device-1")
		require.NoError(t, repo.Create(ctx, link))

		found, err := repo.FindBySlug(ctx, mustSlug(t, "abc-123"))
		require.NoError(t, err)
		assert.Equal(t, "abc-123", found.Slug().String())
		assert.Equal(t, link.Title(), found.Title())
		assert.Equal(t, link.Destination(), found.Destination())
		assert.Equal(t, "device-1", found.CreatorToken())
		assert.Equal(t, link.CreatedAtMs(), found.CreatedAtMs())
		assert.Equal(t, int64(0), found.TotalClicks())
		assert.Equal(t, int64(0), found.UniqueClicks())
	})

	t.Run("create rejects taken slug", func(t *testing.T) {
		repo := newStore(t)
		require.NoError(t, repo.Create(ctx, mustLink(t, "promo", "device-1")))

		err := repo.Create(ctx, mustLink(t, "promo", "device-2"))
		assert.ErrorIs(t, err, domain.ErrSlugTaken)

		// The original record survives untouched.
		found, err := repo.FindBySlug(ctx, mustSlug(t, "promo"))
		require.NoError(t, err)
		assert.Equal(t, "device-1", found.CreatorToken())
	})

	t.Run("find missing slug", func(t *testing.T) {
		repo := newStore(t)
		_, err := repo.FindBySlug(ctx, mustSlug(t, "missing"))
		assert.ErrorIs(t, err, domain.ErrLinkNotFound)
	})

	t.Run("exists", func(t *testing.T) {
		repo := newStore(t)
		require.NoError(t, repo.Create(ctx, mustLink(t, "here", "device-1")))

		exists, err := repo.Exists(ctx, mustSlug(t, "here"))
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.Exists(ctx, mustSlug(t, "gone"))
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("update records clicks", func(t *testing.T) {
		repo := newStore(t)
		require.NoError(t, repo.Create(ctx, mustLink(t, "clicky", "device-1")))

		slug := mustSlug(t, "clicky")
		for _, fp := range []string{"A", "A", "B"} {
			fp := fp
			require.NoError(t, repo.Update(ctx, slug, func(l *domain.Link) error {
				l.RecordClick(testClick(fp))
				return nil
			}))
		}

		found, err := repo.FindBySlug(ctx, slug)
		require.NoError(t, err)
		assert.Equal(t, int64(3), found.TotalClicks())
		assert.Equal(t, int64(2), found.UniqueClicks())
		assert.Len(t, found.Clicks(), 3)
		assert.True(t, found.HasFingerprint("A"))
		assert.True(t, found.HasFingerprint("B"))
	})

	t.Run("update missing slug", func(t *testing.T) {
		repo := newStore(t)
		err := repo.Update(ctx, mustSlug(t, "missing"), func(l *domain.Link) error {
			return nil
		})
		assert.ErrorIs(t, err, domain.ErrLinkNotFound)
	})

	t.Run("update mutator error leaves record unchanged", func(t *testing.T) {
		repo := newStore(t)
		require.NoError(t, repo.Create(ctx, mustLink(t, "stable", "device-1")))

		slug := mustSlug(t, "stable")
		boom := errors.New("mutation rejected")
		err := repo.Update(ctx, slug, func(l *domain.Link) error {
			l.RecordClick(testClick("X"))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		found, err := repo.FindBySlug(ctx, slug)
		require.NoError(t, err)
		assert.Equal(t, int64(0), found.TotalClicks())
		assert.Empty(t, found.Clicks())
	})

	t.Run("update applies rename atomically with ownership check", func(t *testing.T) {
		repo := newStore(t)
		require.NoError(t, repo.Create(ctx, mustLink(t, "owned", "device-1")))

		slug := mustSlug(t, "owned")
		newTitle, err := valueobject.NewTitle("Renamed")
		require.NoError(t, err)

		err = repo.Update(ctx, slug, func(l *domain.Link) error {
			return l.Rename(newTitle, "intruder")
		})
		assert.ErrorIs(t, err, domain.ErrNotOwner)

		require.NoError(t, repo.Update(ctx, slug, func(l *domain.Link) error {
			return l.Rename(newTitle, "device-1")
		}))

		found, err := repo.FindBySlug(ctx, slug)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", found.Title().String())
	})

	t.Run("find all sorts newest first with slug tiebreak", func(t *testing.T) {
		repo := newStore(t)
		for _, slug := range []string{"first", "second", "third"} {
			require.NoError(t, repo.Create(ctx, mustLink(t, slug, "device-1")))
			time.Sleep(2 * time.Millisecond) // distinct createdAtMs
		}

		links, err := repo.FindAll(ctx, nil)
		require.NoError(t, err)
		require.Len(t, links, 3)
		assert.Equal(t, "third", links[0].Slug().String())
		assert.Equal(t, "second", links[1].Slug().String())
		assert.Equal(t, "first", links[2].Slug().String())
	})

	t.Run("find all filters by owner", func(t *testing.T) {
		repo := newStore(t)
		require.NoError(t, repo.Create(ctx, mustLink(t, "mine-1", "device-1")))
		require.NoError(t, repo.Create(ctx, mustLink(t, "mine-2", "device-1")))
		require.NoError(t, repo.Create(ctx, mustLink(t, "theirs", "device-2")))

		owner := "device-1"
		links, err := repo.FindAll(ctx, &owner)
		require.NoError(t, err)
		require.Len(t, links, 2)
		for _, l := range links {
			assert.Equal(t, "device-1", l.CreatorToken())
		}
	})

	t.Run("count distinct owners", func(t *testing.T) {
		repo := newStore(t)

		count, err := repo.CountDistinctOwners(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, count)

		for i, owner := range []string{"device-1", "device-1", "device-2", "device-3"} {
			require.NoError(t, repo.Create(ctx, mustLink(t, fmt.Sprintf("link-%d", i), owner)))
		}

		count, err = repo.CountDistinctOwners(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})
}
