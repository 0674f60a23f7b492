// Package overpass queries building footprints from the Overpass API with
// strict ordered failover across redundant endpoints.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/solarch/roofscout/internal/model"
)

// DefaultEndpoints is the ordered list of public Overpass mirrors tried on
// each search.
var DefaultEndpoints = []string{
	"https://overpass-api.de/api/interpreter",
	"https://overpass.kumi.systems/api/interpreter",
	"https://overpass.openstreetmap.ru/api/interpreter",
}

const (
	userAgent = "roofscout/1.0"

	// serverTimeoutSecs is the query timeout requested from the Overpass
	// server itself, separate from the client-side attempt timeout.
	serverTimeoutSecs = 120
)

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRateLimit sets the requests-per-second limit across all endpoints.
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// Client issues footprint searches against an ordered endpoint list. This is
// a failover chain, not load balancing: endpoints are tried in order, the
// first success short-circuits, and a failing endpoint is never retried
// within one search.
type Client struct {
	endpoints []string
	client    *http.Client
	limiter   *rate.Limiter
	timeout   time.Duration
}

// NewClient creates a Client for the given endpoints.
func NewClient(endpoints []string, opts ...Option) *Client {
	c := &Client{
		endpoints: endpoints,
		client:    &http.Client{},
		limiter:   rate.NewLimiter(1, 1),
		timeout:   3 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search returns all building-tagged ways and relations within radiusM
// meters of center, with tags and full vertex geometry. If every endpoint
// fails, the returned error wraps the last underlying failure.
func (c *Client) Search(ctx context.Context, center model.GeoPoint, radiusM int) ([]model.Footprint, error) {
	if len(c.endpoints) == 0 {
		return nil, eris.New("overpass: no endpoints configured")
	}

	query := buildQuery(center, radiusM)

	var lastErr error
	for _, endpoint := range c.endpoints {
		footprints, err := c.attempt(ctx, endpoint, query)
		if err != nil {
			lastErr = err
			zap.L().Warn("overpass: endpoint failed, trying next",
				zap.String("endpoint", endpoint),
				zap.Error(err),
			)
			continue
		}
		zap.L().Debug("overpass: search complete",
			zap.String("endpoint", endpoint),
			zap.Int("elements", len(footprints)),
		)
		return footprints, nil
	}

	return nil, eris.Wrapf(lastErr, "overpass: all %d endpoints failed", len(c.endpoints))
}

// attempt runs the query against a single endpoint, bounded by the
// per-attempt timeout. No retry happens at this level.
func (c *Client) attempt(ctx context.Context, endpoint, query string) ([]model.Footprint, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "overpass: rate limiter wait")
	}

	actx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(actx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "overpass: create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "overpass: post %s", endpoint)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("overpass: %s returned status %d", endpoint, resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, eris.Wrapf(err, "overpass: decode response from %s", endpoint)
	}

	return body.footprints(), nil
}

// buildQuery renders the Overpass QL request for all building ways and
// relations around the center, asking for tags and full geometry.
func buildQuery(center model.GeoPoint, radiusM int) string {
	return fmt.Sprintf(`[out:json][timeout:%d];
(
  way["building"](around:%d,%.7f,%.7f);
  relation["building"](around:%d,%.7f,%.7f);
);
out tags geom;`,
		serverTimeoutSecs,
		radiusM, center.Lat, center.Lon,
		radiusM, center.Lat, center.Lon,
	)
}

// response mirrors the Overpass JSON output.
type response struct {
	Elements []element `json:"elements"`
}

type element struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Tags     map[string]string `json:"tags"`
	Geometry []geomPoint       `json:"geometry"`
}

type geomPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// footprints converts decoded elements into footprint records. Elements
// without geometry are kept; the polygon builder drops them downstream so
// the fetched count stays honest.
func (r response) footprints() []model.Footprint {
	out := make([]model.Footprint, 0, len(r.Elements))
	for _, el := range r.Elements {
		kind := model.SourceKind(el.Type)
		if kind != model.SourceWay && kind != model.SourceRelation {
			continue
		}

		vertices := make([]model.GeoPoint, len(el.Geometry))
		for i, g := range el.Geometry {
			vertices[i] = model.GeoPoint{Lon: g.Lon, Lat: g.Lat}
		}

		out = append(out, model.Footprint{
			Kind:     kind,
			ID:       el.ID,
			Tags:     el.Tags,
			Vertices: vertices,
		})
	}
	return out
}
