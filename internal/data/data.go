package data

import (
	"fmt"

	"linkboard/internal/conf"
	"linkboard/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(NewLinkRepository)

// NewLinkRepository builds the link store backend selected by the config.
// An unset or unknown store name falls back to the in-memory backend.
func NewLinkRepository(c *conf.Data, logger log.Logger) (domain.LinkRepository, func(), error) {
	helper := log.NewHelper(logger)

	store := ""
	if c != nil {
		store = c.Store
	}

	switch store {
	case "redis":
		if c.Redis == nil {
			return nil, nil, fmt.Errorf("redis store selected but no redis config given")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		})
		cleanup := func() {
			helper.Info("closing redis link store")
			if err := client.Close(); err != nil {
				helper.Errorf("failed to close redis client: %v", err)
			}
		}
		return NewRedisStore(client, logger), cleanup, nil

	case "sqlite":
		if c.SQLite == nil {
			return nil, nil, fmt.Errorf("sqlite store selected but no sqlite config given")
		}
		repo, err := NewSQLiteStore(c.SQLite.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			helper.Info("closing sqlite link store")
			if err := repo.Close(); err != nil {
				helper.Errorf("failed to close sqlite store: %v", err)
			}
		}
		return repo, cleanup, nil

	default:
		return NewMemoryStore(), func() {}, nil
	}
}

// storeErr tags a backend failure with the ErrStoreUnavailable kind so
// callers can tell transport faults apart from domain outcomes.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, domain.ErrStoreUnavailable)
}
