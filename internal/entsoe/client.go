// Package entsoe is a minimal client for the ENTSO-E transparency platform
// RESTful API, covering the document types this importer needs.
//
// The platform enforces a request quota (400 requests per minute), so the
// client rate-limits itself and keeps an LRU cache of parsed responses keyed
// by zone and window.
package entsoe

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/fkaman/flexmeasures-entsoe/internal/models"
)

const (
	// ProductionURL is the regular transparency platform endpoint.
	ProductionURL = "https://web-api.tp.entsoe.eu/api"
	// TestServerURL is the IOP test environment, selectable via config.
	TestServerURL = "https://iop-transparency.entsoe.eu/api"

	documentDayAheadPrices = "A44"

	// periodFormat is the yyyyMMddHHmm layout the API expects, in UTC.
	periodFormat = "200601021504"
)

var (
	ErrRequest = errors.New("error making ENTSO-E request")
	ErrStatus  = errors.New("error status from ENTSO-E API")
)

// Config holds client construction options.
type Config struct {
	BaseURL   string // defaults to ProductionURL
	Token     string // security token, required
	Timeout   time.Duration
	RateLimit float64 // requests per second
	RateBurst int
	CacheSize int
	Logger    *logrus.Logger
}

// Client fetches time series documents from the transparency platform.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *lru.Cache
	logger     *logrus.Logger
}

// NewClient creates a Client. The security token is required; everything else
// has defaults.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("ENTSO-E auth token is not set")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = ProductionURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 5.0
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = 10
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = 128
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	cache, err := lru.New(cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		cache:      cache,
		logger:     cfg.Logger,
	}, nil
}

// BaseURL reports which endpoint the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// DayAheadPrices fetches day-ahead prices (document type A44) for a bidding
// zone over [r.Start, r.End). The result is ordered by event start and may be
// empty or shorter than requested when the auction has not been published yet.
func (c *Client) DayAheadPrices(ctx context.Context, zone Zone, r models.TimeRange) (models.Series, error) {
	cacheKey := fmt.Sprintf("%s:%s:%s:%s",
		documentDayAheadPrices, zone.Code,
		r.Start.UTC().Format(periodFormat), r.End.UTC().Format(periodFormat))
	if cached, ok := c.cache.Get(cacheKey); ok {
		c.logger.WithField("zone", zone.Country).Debug("ENTSO-E cache hit")
		return cached.(models.Series), nil
	}

	params := url.Values{}
	params.Set("documentType", documentDayAheadPrices)
	params.Set("in_Domain", zone.Code)
	params.Set("out_Domain", zone.Code)

	body, err := c.get(ctx, params, r)
	if err != nil {
		return nil, err
	}

	s, err := parsePublication(body)
	if err != nil {
		return nil, err
	}

	c.cache.Add(cacheKey, s)
	return s, nil
}

// get performs one rate-limited request and returns the response body.
// A 200 carrying an Acknowledgement_MarketDocument means "no matching data";
// that is reported as an empty body error-free so callers can treat it as an
// empty series.
func (c *Client) get(ctx context.Context, params url.Values, r models.TimeRange) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequest, err)
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base URL: %v", ErrRequest, err)
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	q.Set("securityToken", c.token)
	q.Set("periodStart", r.Start.UTC().Format(periodFormat))
	q.Set("periodEnd", r.End.UTC().Format(periodFormat))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequest, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequest, err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: got %d, check the ENTSO-E auth token", ErrStatus, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		if reason := ackReason(body); reason != "" {
			return nil, fmt.Errorf("%w: got %d: %s", ErrStatus, resp.StatusCode, reason)
		}
		return nil, fmt.Errorf("%w: got %d", ErrStatus, resp.StatusCode)
	}

	return body, nil
}

type publicationDocument struct {
	XMLName    xml.Name `xml:"Publication_MarketDocument"`
	TimeSeries []struct {
		Period []struct {
			TimeInterval struct {
				Start string `xml:"start"`
				End   string `xml:"end"`
			} `xml:"timeInterval"`
			Resolution string `xml:"resolution"`
			Points     []struct {
				Position int     `xml:"position"`
				Price    float64 `xml:"price.amount"`
			} `xml:"Point"`
		} `xml:"Period"`
	} `xml:"TimeSeries"`
}

type acknowledgementDocument struct {
	XMLName xml.Name `xml:"Acknowledgement_MarketDocument"`
	Reason  struct {
		Code string `xml:"code"`
		Text string `xml:"text"`
	} `xml:"Reason"`
}

// ackReason extracts the reason text from an acknowledgement document, or ""
// if body is not one.
func ackReason(body []byte) string {
	var ack acknowledgementDocument
	if err := xml.Unmarshal(body, &ack); err != nil {
		return ""
	}
	return ack.Reason.Text
}

// parsePublication flattens a publication document into a single ordered
// series. Periods may repeat or overlap across TimeSeries elements (one per
// auction day); later occurrences win.
//
// Positions use the A03 curve type: a missing position repeats the previous
// value, and the last point runs to the end of the period.
func parsePublication(body []byte) (models.Series, error) {
	if len(body) == 0 {
		return nil, nil
	}
	if reason := ackReason(body); reason != "" {
		// "No matching data" acknowledgements mean an empty result, not a
		// protocol failure.
		return nil, nil
	}

	var doc publicationDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode response: %v", err)
	}

	byTime := map[time.Time]float64{}
	for _, ts := range doc.TimeSeries {
		for _, period := range ts.Period {
			start, err := parsePeriodTime(period.TimeInterval.Start)
			if err != nil {
				return nil, err
			}
			end, err := parsePeriodTime(period.TimeInterval.End)
			if err != nil {
				return nil, err
			}
			resolution, err := parseResolution(period.Resolution)
			if err != nil {
				return nil, err
			}
			slots := int(end.Sub(start) / resolution)
			if slots <= 0 || len(period.Points) == 0 {
				continue
			}

			values := make([]float64, slots)
			idx := 0
			for slot := 0; slot < slots; slot++ {
				// Advance to the point covering this 1-based position.
				for idx+1 < len(period.Points) && period.Points[idx+1].Position <= slot+1 {
					idx++
				}
				values[slot] = period.Points[idx].Price
			}
			for slot, v := range values {
				byTime[start.Add(time.Duration(slot)*resolution)] = v
			}
		}
	}

	s := make(models.Series, 0, len(byTime))
	for t, v := range byTime {
		s = append(s, models.Point{Time: t, Value: v})
	}
	sort.Slice(s, func(i, j int) bool { return s[i].Time.Before(s[j].Time) })
	return s, nil
}

func parsePeriodTime(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02T15:04Z", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid period timestamp %q: %v", s, err)
	}
	return t, nil
}

// parseResolution maps the ISO 8601 durations the platform uses onto Go
// durations.
func parseResolution(s string) (time.Duration, error) {
	switch s {
	case "PT15M":
		return 15 * time.Minute, nil
	case "PT30M":
		return 30 * time.Minute, nil
	case "PT60M":
		return time.Hour, nil
	case "P1D":
		return 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("unsupported resolution %q", s)
}
