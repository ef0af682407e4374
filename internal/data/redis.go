package data

import (
	"context"
	"encoding/json"
	"errors"

	"linkboard/internal/domain"
	"linkboard/internal/domain/valueobject"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
)

// Compile-time interface check
var _ domain.LinkRepository = (*RedisStore)(nil)

const (
	linkKeyPrefix = "link:"

	// maxCASRetries bounds the optimistic retry loop in Update. Contention
	// on a single slug is short-lived; hitting the bound means the store
	// is pathologically contended and is reported as unavailable.
	maxCASRetries = 16
)

// RedisStore is the redis-backed link store. Records are JSON-encoded
// LinkState payloads under "link:<slug>" keys. Create relies on SETNX for
// its exactly-one-winner guarantee; Update runs an optimistic WATCH/MULTI
// compare-and-swap so concurrent mutations of the same slug never lose
// writes.
type RedisStore struct {
	client *redis.Client
	log    *log.Helper
}

// NewRedisStore creates a link store on top of the given redis client.
func NewRedisStore(client *redis.Client, logger log.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		log:    log.NewHelper(logger),
	}
}

func linkKey(slug string) string {
	return linkKeyPrefix + slug
}

// Create persists the link unless its slug is already taken.
func (s *RedisStore) Create(ctx context.Context, link *domain.Link) error {
	payload, err := json.Marshal(link.State())
	if err != nil {
		return storeErr("marshal link", err)
	}

	ok, err := s.client.SetNX(ctx, linkKey(link.Slug().String()), payload, 0).Result()
	if err != nil {
		return storeErr("create link", err)
	}
	if !ok {
		return domain.ErrSlugTaken
	}
	return nil
}

// FindBySlug retrieves a link by slug.
func (s *RedisStore) FindBySlug(ctx context.Context, slug valueobject.Slug) (*domain.Link, error) {
	payload, err := s.client.Get(ctx, linkKey(slug.String())).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrLinkNotFound
	}
	if err != nil {
		return nil, storeErr("get link", err)
	}
	return s.unmarshalLink(payload)
}

// Exists reports whether a record for the slug exists.
func (s *RedisStore) Exists(ctx context.Context, slug valueobject.Slug) (bool, error) {
	n, err := s.client.Exists(ctx, linkKey(slug.String())).Result()
	if err != nil {
		return false, storeErr("check slug", err)
	}
	return n > 0, nil
}

// Update applies the mutator under a WATCH-guarded compare-and-swap,
// retrying when a concurrent write invalidates the watched key.
func (s *RedisStore) Update(ctx context.Context, slug valueobject.Slug, mutate func(*domain.Link) error) error {
	key := linkKey(slug.String())

	txn := func(tx *redis.Tx) error {
		payload, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return domain.ErrLinkNotFound
		}
		if err != nil {
			return storeErr("get link", err)
		}

		link, err := s.unmarshalLink(payload)
		if err != nil {
			return err
		}

		if err := mutate(link); err != nil {
			return err
		}

		updated, err := json.Marshal(link.State())
		if err != nil {
			return storeErr("marshal link", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxCASRetries; i++ {
		err := s.client.Watch(ctx, txn, key)
		if errors.Is(err, redis.TxFailedErr) {
			s.log.Debugf("cas conflict on %s, retrying", key)
			continue
		}
		return err
	}
	return storeErr("update link", errors.New("cas retries exhausted"))
}

// FindAll scans all link keys and returns the decoded records, newest first.
func (s *RedisStore) FindAll(ctx context.Context, ownerToken *string) ([]*domain.Link, error) {
	keys, err := s.scanKeys(ctx)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []*domain.Link{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, storeErr("mget links", err)
	}

	links := make([]*domain.Link, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			// Key expired between SCAN and MGET.
			continue
		}
		link, err := s.unmarshalLink([]byte(str))
		if err != nil {
			return nil, err
		}
		if ownerToken != nil && !link.IsOwnedBy(*ownerToken) {
			continue
		}
		links = append(links, link)
	}

	domain.SortByNewest(links)
	return links, nil
}

// CountDistinctOwners returns the number of distinct creator tokens.
func (s *RedisStore) CountDistinctOwners(ctx context.Context) (int, error) {
	links, err := s.FindAll(ctx, nil)
	if err != nil {
		return 0, err
	}

	owners := make(map[string]struct{}, len(links))
	for _, l := range links {
		owners[l.CreatorToken()] = struct{}{}
	}
	return len(owners), nil
}

func (s *RedisStore) scanKeys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, linkKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, storeErr("scan links", err)
	}
	return keys, nil
}

func (s *RedisStore) unmarshalLink(payload []byte) (*domain.Link, error) {
	var state domain.LinkState
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, storeErr("unmarshal link", err)
	}
	link, err := domain.ReconstructLink(state)
	if err != nil {
		return nil, storeErr("reconstruct link", err)
	}
	return link, nil
}
