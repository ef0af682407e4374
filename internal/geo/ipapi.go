package geo

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

const (
	defaultIPAPIEndpoint = "http://ip-api.com"
	ipapiTimeout         = 3 * time.Second
)

// IPAPIClient resolves locations through the ip-api.com JSON endpoint.
type IPAPIClient struct {
	endpoint string
	client   *http.Client
	log      *log.Helper
}

// NewIPAPIClient creates a new ip-api.com resolver. An empty endpoint uses
// the public service.
func NewIPAPIClient(endpoint string, logger log.Logger) *IPAPIClient {
	if endpoint == "" {
		endpoint = defaultIPAPIEndpoint
	}
	return &IPAPIClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: ipapiTimeout},
		log:      log.NewHelper(logger),
	}
}

// Lookup resolves the country of the given IP, or of the requesting host
// when ip is empty. Any failure yields the Unknown sentinel.
func (c *IPAPIClient) Lookup(ctx context.Context, ip string) Location {
	url := c.endpoint + "/json"
	if ip != "" {
		url += "/" + ip
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.log.Warnf("geo lookup request failed: %v", err)
		return Unknown
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warnf("geo lookup failed: %v", err)
		return Unknown
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warnf("geo lookup returned status %d", resp.StatusCode)
		return Unknown
	}

	var loc Location
	if err := json.NewDecoder(resp.Body).Decode(&loc); err != nil {
		c.log.Warnf("geo lookup decode failed: %v", err)
		return Unknown
	}

	if loc.Country == "" {
		loc.Country = Unknown.Country
	}
	if loc.CountryCode == "" {
		loc.CountryCode = Unknown.CountryCode
	}
	return loc
}
