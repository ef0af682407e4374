package biz

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"linkboard/internal/conf"
	"linkboard/internal/data"
	"linkboard/internal/domain"
	"linkboard/internal/fingerprint"
	"linkboard/internal/geo"
	"linkboard/internal/infra/eventbus"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registryFixture struct {
	registry *Registry
	recorder *Recorder
	repo     domain.LinkRepository
	bus      *eventbus.EventBus
}

// newFixture wires a registry over the in-memory store with a running event
// router, so the asynchronous click path behaves as in production.
func newFixture(t *testing.T) *registryFixture {
	t.Helper()

	logger := log.NewStdLogger(testWriter{t})
	repo := data.NewMemoryStore()
	bus := eventbus.NewEventBus(watermill.NopLogger{})
	t.Cleanup(func() { _ = bus.Close() })

	resolver := geo.StaticResolver{Location: geo.Location{Country: "Germany", CountryCode: "DE"}}
	recorder := NewRecorder(repo, fingerprint.NewHasher(), resolver, logger)

	router, err := eventbus.NewRouter(bus, watermill.NopLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = router.Close() })
	RegisterEventHandlers(router, NewClickEventHandler(recorder, logger), logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = router.Run(ctx) }()
	<-router.Running()

	server := &conf.Server{HTTP: &conf.HTTP{BaseURL: "https://lnk.example"}}
	registry := NewRegistry(repo, bus, resolver, server, logger)

	return &registryFixture{registry: registry, recorder: recorder, repo: repo, bus: bus}
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func validInput(slug string) CreateLinkInput {
	return CreateLinkInput{
		Slug:           slug,
		Title:          "My Link",
		DestinationURL: "https://example.com/page",
		CreatorToken:   "device-1",
	}
}

func TestCreateLink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	link, err := f.registry.CreateLink(ctx, validInput("my-slug"))
	require.NoError(t, err)

	assert.Equal(t, "my-slug", link.Slug().String())
	assert.Equal(t, "My Link", link.Title().String())
	assert.Equal(t, int64(0), link.TotalClicks())
	assert.Equal(t, int64(0), link.UniqueClicks())
	assert.Equal(t, "Germany", link.OriginCountry())
	assert.Equal(t, "DE", link.OriginCountryCode())
	assert.Equal(t, "https://lnk.example/my-slug", link.ShortURL(f.registry.BaseURL()))
}

func TestCreateLinkValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		mutate  func(*CreateLinkInput)
		wantErr error
	}{
		{"slug too short", func(in *CreateLinkInput) { in.Slug = "ab" }, domain.ErrInvalidSlug},
		{"slug bad chars", func(in *CreateLinkInput) { in.Slug = "my_slug!" }, domain.ErrInvalidSlug},
		{"empty title", func(in *CreateLinkInput) { in.Title = "   " }, domain.ErrInvalidTitle},
		{"relative url", func(in *CreateLinkInput) { in.DestinationURL = "/relative" }, domain.ErrInvalidDestination},
		{"empty token", func(in *CreateLinkInput) { in.CreatorToken = " " }, domain.ErrInvalidToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput("valid-slug")
			tc.mutate(&in)
			_, err := f.registry.CreateLink(ctx, in)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestCreateLinkDuplicateSlug(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.registry.CreateLink(ctx, validInput("my-slug"))
	require.NoError(t, err)

	_, err = f.registry.CreateLink(ctx, validInput("my-slug"))
	assert.ErrorIs(t, err, domain.ErrSlugTaken)
}

func TestConcurrentCreateExactlyOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const callers = 16
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := validInput("contested")
			in.CreatorToken = fmt.Sprintf("device-%d", i)
			_, errs[i] = f.registry.CreateLink(ctx, in)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, domain.ErrSlugTaken)
		}
	}
	assert.Equal(t, 1, wins)
}

func TestCheckAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	available, err := f.registry.CheckAvailability(ctx, "free-slug")
	require.NoError(t, err)
	assert.True(t, available)

	// Syntactically invalid slugs are unavailable without touching the store.
	available, err = f.registry.CheckAvailability(ctx, "x")
	require.NoError(t, err)
	assert.False(t, available)

	_, err = f.registry.CreateLink(ctx, validInput("taken-slug"))
	require.NoError(t, err)

	available, err = f.registry.CheckAvailability(ctx, "taken-slug")
	require.NoError(t, err)
	assert.False(t, available)
}

func TestResolveRecordsClickAsynchronously(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.registry.CreateLink(ctx, validInput("my-slug"))
	require.NoError(t, err)

	visit := Visit{UserAgent: "curl/8.0", Locale: "en-US", RemoteIP: "203.0.113.9", Referrer: "https://news.example"}
	link, err := f.registry.Resolve(ctx, "my-slug", visit)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/page", link.Destination().String())

	// The resolution returns before the click is recorded; the bus delivers it.
	require.Eventually(t, func() bool {
		l, err := f.registry.GetLink(ctx, "my-slug")
		return err == nil && l.TotalClicks() == 1 && l.UniqueClicks() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestResolveUnknownSlug(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.registry.Resolve(ctx, "no-such", Visit{})
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)

	_, err = f.registry.Resolve(ctx, "!!bad!!", Visit{})
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
}

func TestRenameLink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.registry.CreateLink(ctx, validInput("my-slug"))
	require.NoError(t, err)

	updated, err := f.registry.RenameLink(ctx, "my-slug", "Better Title", "device-1")
	require.NoError(t, err)
	assert.Equal(t, "Better Title", updated.Title().String())
}

func TestRenameLinkUnauthorizedLeavesTitle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.registry.CreateLink(ctx, validInput("my-slug"))
	require.NoError(t, err)

	_, err = f.registry.RenameLink(ctx, "my-slug", "Hijacked", "device-2")
	assert.ErrorIs(t, err, domain.ErrNotOwner)

	link, err := f.registry.GetLink(ctx, "my-slug")
	require.NoError(t, err)
	assert.Equal(t, "My Link", link.Title().String())
}

func TestRenameLinkErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.registry.RenameLink(ctx, "no-such", "Title", "device-1")
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)

	_, err = f.registry.CreateLink(ctx, validInput("my-slug"))
	require.NoError(t, err)

	_, err = f.registry.RenameLink(ctx, "my-slug", "  ", "device-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTitle)
}

func TestListLinksPaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		in := validInput(fmt.Sprintf("slug-%d", i))
		_, err := f.registry.CreateLink(ctx, in)
		require.NoError(t, err)
	}

	page1, err := f.registry.ListLinks(ctx, nil, 1, 2)
	require.NoError(t, err)
	assert.Len(t, page1.Links, 2)
	assert.Equal(t, 5, page1.Total)
	assert.Equal(t, 3, page1.TotalPages)

	page2, err := f.registry.ListLinks(ctx, nil, 2, 2)
	require.NoError(t, err)
	page3, err := f.registry.ListLinks(ctx, nil, 3, 2)
	require.NoError(t, err)
	assert.Len(t, page2.Links, 2)
	assert.Len(t, page3.Links, 1)

	// No duplicates or gaps across pages of a stable snapshot.
	seen := make(map[string]bool)
	for _, p := range []*LinkPage{page1, page2, page3} {
		for _, l := range p.Links {
			assert.False(t, seen[l.Slug().String()])
			seen[l.Slug().String()] = true
		}
	}
	assert.Len(t, seen, 5)

	// Out-of-range pages are empty, not an error.
	page9, err := f.registry.ListLinks(ctx, nil, 9, 2)
	require.NoError(t, err)
	assert.Empty(t, page9.Links)
}

func TestListLinksOwnerFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		in := validInput(fmt.Sprintf("mine-%d", i))
		_, err := f.registry.CreateLink(ctx, in)
		require.NoError(t, err)
	}
	other := validInput("theirs")
	other.CreatorToken = "device-2"
	_, err := f.registry.CreateLink(ctx, other)
	require.NoError(t, err)

	owner := "device-1"
	page, err := f.registry.ListLinks(ctx, &owner, 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Links, 3)
	for _, l := range page.Links {
		assert.True(t, l.IsOwnedBy(owner))
	}
}

func TestUniqueOwnerCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tokens := []string{"device-1", "device-1", "device-2", "device-3"}
	for i, token := range tokens {
		in := validInput(fmt.Sprintf("slug-%d", i))
		in.CreatorToken = token
		_, err := f.registry.CreateLink(ctx, in)
		require.NoError(t, err)
	}

	count, err := f.registry.UniqueOwnerCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSuggestSlug(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	suggested, err := f.registry.SuggestSlug(ctx)
	require.NoError(t, err)
	assert.Len(t, suggested, suggestedSlugLength)

	available, err := f.registry.CheckAvailability(ctx, suggested)
	require.NoError(t, err)
	assert.True(t, available)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.registry.CreateLink(ctx, validInput("my-slug"))
	require.NoError(t, err)

	visits := []Visit{
		{RemoteIP: "203.0.113.1", Country: "Germany", Referrer: "https://news.example"},
		{RemoteIP: "203.0.113.1", Country: "Germany", Referrer: ""},
		{RemoteIP: "203.0.113.2", Country: "France", Referrer: "https://news.example"},
	}
	for _, v := range visits {
		require.NoError(t, f.recorder.Record(ctx, "my-slug", v))
	}

	stats, err := f.registry.Stats(ctx, "my-slug")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalClicks)
	assert.Equal(t, int64(2), stats.UniqueClicks)
	assert.Equal(t, int64(2), stats.ByCountry["Germany"])
	assert.Equal(t, int64(1), stats.ByCountry["France"])
	assert.Equal(t, int64(2), stats.BySource["https://news.example"])
	assert.Equal(t, int64(1), stats.BySource["direct"])

	_, err = f.registry.Stats(ctx, "no-such")
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
}
