// Package conf holds the bootstrap configuration scanned from the config
// file by the kratos config loader.
package conf

// Bootstrap is the root configuration document.
type Bootstrap struct {
	Server *Server `json:"server"`
	Data   *Data   `json:"data"`
}

// Server configures the transport layer.
type Server struct {
	HTTP *HTTP `json:"http"`
}

// HTTP configures the HTTP server.
type HTTP struct {
	Network string `json:"network"`
	Addr    string `json:"addr"`
	// Timeout is a Go duration string, e.g. "1s".
	Timeout string `json:"timeout"`
	// BaseURL is the public base under which short links are rendered.
	BaseURL string `json:"base_url"`
}

// Data configures storage and collaborators.
type Data struct {
	// Store selects the link store backend: "memory", "redis" or "sqlite".
	Store  string  `json:"store"`
	Redis  *Redis  `json:"redis"`
	SQLite *SQLite `json:"sqlite"`
	Geo    *Geo    `json:"geo"`
}

// Redis configures the redis-backed link store.
type Redis struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// SQLite configures the sqlite-backed link store.
type SQLite struct {
	Path string `json:"path"`
}

// Geo configures the geolocation collaborator.
type Geo struct {
	// Provider is one of "ipapi", "geoip2" or "off".
	Provider string `json:"provider"`
	// Endpoint overrides the ip-api base URL.
	Endpoint string `json:"endpoint"`
	// DatabasePath locates the GeoIP2 database for the geoip2 provider.
	DatabasePath string `json:"database_path"`
}
