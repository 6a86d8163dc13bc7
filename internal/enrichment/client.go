// Package enrichment resolves sunrise/sunset times for a coordinate pair and
// date via api.sunrise-sunset.org. Calls are synchronous, never cached and
// never retried; two writes with identical coordinates each pay a fresh round
// trip.
package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mkarev/suntrack/internal/domain"
)

// ErrUnavailable reports a failed enrichment call: transport error,
// non-success status or a payload missing sunrise/sunset.
var ErrUnavailable = errors.New("sun api unavailable")

const DefaultBaseURL = "https://api.sunrise-sunset.org/json"

type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient builds a client bounded by timeout. The upstream has no SLA, so
// an unbounded call would block its worker for the whole outage.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// payload mirrors the wire format. formatted=0 makes sunrise/sunset ISO-8601
// offset datetimes instead of locale-formatted strings.
type payload struct {
	Results struct {
		Sunrise string `json:"sunrise"`
		Sunset  string `json:"sunset"`
	} `json:"results"`
	Status string `json:"status"`
}

func (c *Client) Fetch(ctx context.Context, lat, lng float64, date domain.Date) (domain.SunTimes, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("date", date.String())
	q.Set("formatted", "0")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return domain.SunTimes{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("sun api request failed", zap.Error(err))
		return domain.SunTimes{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("sun api returned non-OK status", zap.Int("status", resp.StatusCode))
		return domain.SunTimes{}, fmt.Errorf("%w: http status %d", ErrUnavailable, resp.StatusCode)
	}

	var body payload
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.SunTimes{}, fmt.Errorf("%w: bad payload: %v", ErrUnavailable, err)
	}
	if body.Status != "OK" {
		return domain.SunTimes{}, fmt.Errorf("%w: api status %q", ErrUnavailable, body.Status)
	}

	sunrise, err := time.Parse(time.RFC3339, body.Results.Sunrise)
	if err != nil {
		return domain.SunTimes{}, fmt.Errorf("%w: bad sunrise %q", ErrUnavailable, body.Results.Sunrise)
	}
	sunset, err := time.Parse(time.RFC3339, body.Results.Sunset)
	if err != nil {
		return domain.SunTimes{}, fmt.Errorf("%w: bad sunset %q", ErrUnavailable, body.Results.Sunset)
	}

	c.logger.Debug("sun times fetched",
		zap.Float64("lat", lat),
		zap.Float64("lng", lng),
		zap.String("date", date.String()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return domain.SunTimes{Sunrise: sunrise, Sunset: sunset}, nil
}
