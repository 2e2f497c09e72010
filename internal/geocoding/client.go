package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public BAN geocoding endpoint.
const DefaultBaseURL = "https://data.geopf.fr/geocodage/search/"

// defaultProxyHost is the corporate proxy used when explicit credentials are
// supplied but no HTTP_PROXY is configured.
const defaultProxyHost = "fproxy-vip.tdf.fr:8080"

// Result holds the selected candidate of a geocoding response.
type Result struct {
	Label     string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Client wraps the geocoding HTTP API. All failures (network, proxy auth,
// timeout, malformed JSON, empty result set) resolve to "not found": callers
// cannot distinguish an unknown address from an unreachable geocoder. That is
// the documented contract, not an accident.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a geocoding client. An empty baseURL selects the public
// endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(10), 1),
	}
}

var proxyOnce sync.Once

// SetupProxyFromEnv configures process-wide proxy settings once, the first
// time it runs. An already-present HTTP_PROXY wins; otherwise PROXY_LOGIN and
// PROXY_PASSWORD are combined with the corporate proxy host. Setting the env
// vars process-wide mirrors how the rest of the tooling expects to find them.
func SetupProxyFromEnv() {
	proxyOnce.Do(func() {
		if os.Getenv("HTTP_PROXY") != "" || os.Getenv("http_proxy") != "" {
			return
		}
		login := os.Getenv("PROXY_LOGIN")
		password := os.Getenv("PROXY_PASSWORD")
		if login == "" || password == "" {
			return
		}
		proxyURL := fmt.Sprintf("http://%s:%s@%s",
			url.QueryEscape(login), url.QueryEscape(password), defaultProxyHost)
		os.Setenv("http_proxy", proxyURL)
		os.Setenv("https_proxy", proxyURL)
		log.Println("[geocoding] proxy configured from credentials")
	})
}

type searchResponse struct {
	Features []feature `json:"features"`
}

type feature struct {
	Properties properties `json:"properties"`
	Geometry   geometry   `json:"geometry"`
}

type properties struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

type geometry struct {
	// GeoJSON order: [longitude, latitude].
	Coordinates []float64 `json:"coordinates"`
}

// Resolve geocodes a normalized address. The second return value is false
// when no usable candidate exists, for whatever reason.
func (c *Client) Resolve(ctx context.Context, address string) (Result, bool) {
	SetupProxyFromEnv()

	if err := c.limiter.Wait(ctx); err != nil {
		return Result{}, false
	}

	q := url.Values{}
	q.Set("q", address)
	q.Set("limit", "5")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Result{}, false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[geocoding] request failed for %q: %v", address, err)
		return Result{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[geocoding] HTTP %d for %q", resp.StatusCode, address)
		return Result{}, false
	}

	var search searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		log.Printf("[geocoding] decoding response for %q: %v", address, err)
		return Result{}, false
	}
	if len(search.Features) == 0 {
		return Result{}, false
	}

	best := search.Features[0]
	for _, f := range search.Features[1:] {
		if f.Properties.Score > best.Properties.Score {
			best = f
		}
	}
	if len(best.Geometry.Coordinates) < 2 {
		return Result{}, false
	}

	return Result{
		Label:     best.Properties.Label,
		Latitude:  best.Geometry.Coordinates[1],
		Longitude: best.Geometry.Coordinates[0],
	}, true
}
