// Package geo resolves visitor and creator locations. Lookups are
// best-effort: every resolver returns the Unknown sentinel instead of
// failing its caller.
package geo

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"
)

// Location is a best-effort country classification.
type Location struct {
	Country     string `json:"country"`
	CountryCode string `json:"countryCode"`
}

// Unknown is the sentinel returned when a lookup fails or is disabled.
var Unknown = Location{Country: "Unknown", CountryCode: "XX"}

// Resolver maps an IP address to a Location. An empty ip means "the caller's
// own address" for resolvers that support it; others return Unknown.
type Resolver interface {
	Lookup(ctx context.Context, ip string) Location
}

// StaticResolver always returns the same Location. Used when geolocation is
// disabled and in tests.
type StaticResolver struct {
	Location Location
}

// Lookup returns the configured Location.
func (s StaticResolver) Lookup(ctx context.Context, ip string) Location {
	return s.Location
}

// Config selects and configures the geolocation backend.
type Config struct {
	// Provider is one of "ipapi", "geoip2" or "off".
	Provider string `json:"provider"`
	// Endpoint overrides the ip-api.com base URL (tests).
	Endpoint string `json:"endpoint"`
	// DatabasePath locates the GeoIP2 database for the geoip2 provider.
	DatabasePath string `json:"database_path"`
}

// NewResolver builds the Resolver selected by the config. Unrecognized or
// empty providers fall back to the remote ip-api resolver.
func NewResolver(c Config, logger log.Logger) (Resolver, func(), error) {
	helper := log.NewHelper(logger)

	switch c.Provider {
	case "off":
		return StaticResolver{Location: Unknown}, func() {}, nil
	case "geoip2":
		r, err := NewGeoIP2Resolver(c.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		return r, func() {
			if err := r.Close(); err != nil {
				helper.Errorf("failed to close geoip database: %v", err)
			}
		}, nil
	default:
		return NewIPAPIClient(c.Endpoint, logger), func() {}, nil
	}
}
