package geo

import (
	"context"
	"net"

	geoip2 "github.com/oschwald/geoip2-golang"
)

// GeoIP2Resolver resolves IP addresses against a local GeoIP2 database.
type GeoIP2Resolver struct {
	db *geoip2.Reader
}

// NewGeoIP2Resolver opens the GeoIP2 database at the given path.
func NewGeoIP2Resolver(dbPath string) (*GeoIP2Resolver, error) {
	db, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return &GeoIP2Resolver{db: db}, nil
}

// Close closes the database reader.
func (g *GeoIP2Resolver) Close() error {
	return g.db.Close()
}

// Lookup returns the country of the given IP address. Private, invalid or
// unmatched addresses yield the Unknown sentinel.
func (g *GeoIP2Resolver) Lookup(ctx context.Context, ipStr string) Location {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return Unknown
	}

	record, err := g.db.Country(ip)
	if err != nil {
		return Unknown
	}

	if record.Country.IsoCode == "" {
		return Unknown
	}

	country := record.Country.Names["en"]
	if country == "" {
		country = record.Country.IsoCode
	}

	return Location{Country: country, CountryCode: record.Country.IsoCode}
}
