package biz

import (
	"linkboard/internal/conf"
	"linkboard/internal/fingerprint"
	"linkboard/internal/geo"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	NewRegistry,
	NewRecorder,
	NewClickEventHandler,
	NewGeoResolver,
	fingerprint.NewHasher,
)

// NewGeoResolver builds the geolocation resolver from the data config.
func NewGeoResolver(c *conf.Data, logger log.Logger) (geo.Resolver, func(), error) {
	gc := geo.Config{}
	if c != nil && c.Geo != nil {
		gc = geo.Config{
			Provider:     c.Geo.Provider,
			Endpoint:     c.Geo.Endpoint,
			DatabasePath: c.Geo.DatabasePath,
		}
	}
	return geo.NewResolver(gc, logger)
}
