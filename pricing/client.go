package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/homevolt/dayahead/core/logger"
)

// ErrNoPrices indicates the API has no day-ahead prices for the requested
// day, typically because they have not been published yet.
var ErrNoPrices = errors.New("no day-ahead prices available")

// Config defines the spot price API settings.
type Config struct {
	// Area is the bidding zone, e.g. "SE3".
	Area string `json:"area"`
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string `json:"base_url"`
	// TimeoutSeconds bounds each HTTP request.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Area == "" {
		c.Area = "SE3"
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://www.elprisetjustnu.se/api/v1/prices"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
}

// Client fetches day-ahead spot prices from the elprisetjustnu.se API.
type Client struct {
	cfg  Config
	http *http.Client
	log  logger.Logger
}

// NewClient creates a price API client.
func NewClient(cfg Config, log logger.Logger) *Client {
	cfg.SetDefaults()
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		log:  log,
	}
}

// priceEntry is one interval of the API response. Entries are hourly or
// quarter-hourly depending on the market coupling in effect.
type priceEntry struct {
	SEKPerKWh float64 `json:"SEK_per_kWh"`
	TimeStart string  `json:"time_start"`
}

// QuarterPrices returns the spot price in oere/kWh for every quarter of the
// requested day, keyed by "HH:MM". Hourly entries are expanded to their four
// quarters; quarters with no data at all resolve to zero.
func (c *Client) QuarterPrices(ctx context.Context, date time.Time) (map[string]float64, error) {
	url := fmt.Sprintf("%s/%d/%02d-%02d_%s.json", c.cfg.BaseURL, date.Year(), date.Month(), date.Day(), c.cfg.Area)
	c.log.Infof("fetching prices from %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoPrices
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price API returned status %d", resp.StatusCode)
	}

	var entries []priceEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode prices: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrNoPrices
	}

	raw := make(map[string]float64, len(entries))
	for _, e := range entries {
		ts, err := time.Parse(time.RFC3339, e.TimeStart)
		if err != nil {
			return nil, fmt.Errorf("parse interval start %q: %w", e.TimeStart, err)
		}
		raw[ts.Format("15:04")] = e.SEKPerKWh * 100
	}

	quarters := make(map[string]float64, 96)
	for hour := 0; hour < 24; hour++ {
		hourKey := fmt.Sprintf("%02d:00", hour)
		for _, minute := range []int{0, 15, 30, 45} {
			quarterKey := fmt.Sprintf("%02d:%02d", hour, minute)
			if p, ok := raw[quarterKey]; ok {
				quarters[quarterKey] = p
			} else if p, ok := raw[hourKey]; ok {
				quarters[quarterKey] = p
			} else {
				quarters[quarterKey] = 0
			}
		}
	}
	return quarters, nil
}
