// Package external gathers light real-world context (weather, headlines)
// for the generation prompt. Everything here is optional: missing keys
// or failing APIs just mean an emptier prompt.
package external

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/stellarlinkco/onair/internal/config"
)

const cacheTTL = 5 * time.Minute

// Collector fetches and caches external info. Results are cached for
// five minutes so a chatty loop never hammers the APIs.
type Collector struct {
	cfg     config.ExternalConfig
	client  *http.Client
	weather string
	news    string

	mu        sync.Mutex
	cached    string
	fetchedAt time.Time
}

func NewCollector(cfg config.ExternalConfig) *Collector {
	return &Collector{
		cfg:     cfg,
		client:  &http.Client{Timeout: 10 * time.Second},
		weather: "https://api.openweathermap.org/data/2.5/weather",
		news:    "https://newsapi.org/v2/top-headlines",
	}
}

// Summary returns the current context block, refreshing it when the
// cache has expired. Fetch failures are logged and produce an empty
// block rather than an error.
func (c *Collector) Summary(ctx context.Context) string {
	c.mu.Lock()
	if time.Since(c.fetchedAt) < cacheTTL {
		cached := c.cached
		c.mu.Unlock()
		return cached
	}
	c.mu.Unlock()

	var parts []string
	if w := c.fetchWeather(ctx); w != "" {
		parts = append(parts, w)
	}
	if n := c.fetchNews(ctx); n != "" {
		parts = append(parts, n)
	}
	summary := strings.Join(parts, "\n")

	c.mu.Lock()
	c.cached = summary
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	return summary
}

func (c *Collector) fetchWeather(ctx context.Context) string {
	if c.cfg.WeatherAPIKey == "" || c.cfg.WeatherCity == "" {
		return ""
	}
	q := url.Values{
		"q":     {c.cfg.WeatherCity},
		"appid": {c.cfg.WeatherAPIKey},
		"units": {"metric"},
	}
	var resp struct {
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
	}
	if err := c.get(ctx, c.weather+"?"+q.Encode(), &resp); err != nil {
		log.Printf("[external] weather fetch failed: %v", err)
		return ""
	}
	if len(resp.Weather) == 0 {
		return ""
	}
	return fmt.Sprintf("Weather in %s: %s, %.0f°C", c.cfg.WeatherCity, resp.Weather[0].Description, resp.Main.Temp)
}

func (c *Collector) fetchNews(ctx context.Context) string {
	if c.cfg.NewsAPIKey == "" {
		return ""
	}
	q := url.Values{
		"apiKey":   {c.cfg.NewsAPIKey},
		"pageSize": {"3"},
		"country":  {"us"},
	}
	var resp struct {
		Articles []struct {
			Title string `json:"title"`
		} `json:"articles"`
	}
	if err := c.get(ctx, c.news+"?"+q.Encode(), &resp); err != nil {
		log.Printf("[external] news fetch failed: %v", err)
		return ""
	}
	if len(resp.Articles) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Recent headlines:")
	for _, a := range resp.Articles {
		b.WriteString("\n- " + a.Title)
	}
	return b.String()
}

func (c *Collector) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
