package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/stellarlinkco/onair/internal/config"
	"github.com/stellarlinkco/onair/internal/perception"
)

const (
	youtubeAPIBase        = "https://www.googleapis.com/youtube/v3"
	defaultYTPollInterval = 5 * time.Second
	youtubeRequestsPerMin = 30
	youtubeRequestTimeout = 15 * time.Second
)

// YouTubeClient polls the live chat messages API and the video's
// concurrent viewer count. A rate limiter keeps the poller inside the
// API quota even when the server suggests very short polling intervals.
type YouTubeClient struct {
	cfg     config.YouTubeConfig
	chat    *perception.ChatQueue
	client  *http.Client
	limiter *rate.Limiter
	baseURL string

	nextPageToken string
}

func NewYouTubeClient(cfg config.YouTubeConfig, chat *perception.ChatQueue) *YouTubeClient {
	return &YouTubeClient{
		cfg:     cfg,
		chat:    chat,
		client:  &http.Client{Timeout: youtubeRequestTimeout},
		limiter: rate.NewLimiter(rate.Every(time.Minute/youtubeRequestsPerMin), 2),
		baseURL: youtubeAPIBase,
	}
}

// ViewerCount satisfies perception.ViewerSource.
func (c *YouTubeClient) ViewerCount(ctx context.Context) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	q := url.Values{
		"part": {"liveStreamingDetails"},
		"id":   {c.cfg.VideoID},
		"key":  {c.cfg.APIKey},
	}
	var resp struct {
		Items []struct {
			LiveStreamingDetails struct {
				ConcurrentViewers string `json:"concurrentViewers"`
			} `json:"liveStreamingDetails"`
		} `json:"items"`
	}
	if err := c.get(ctx, "/videos", q, &resp); err != nil {
		return 0, err
	}
	if len(resp.Items) == 0 {
		return 0, fmt.Errorf("video %s not found", c.cfg.VideoID)
	}
	n, err := strconv.Atoi(resp.Items[0].LiveStreamingDetails.ConcurrentViewers)
	if err != nil {
		// A finished or not-yet-live stream omits the field.
		return 0, nil
	}
	return n, nil
}

// Run polls live chat until ctx is cancelled. Poll errors are logged and
// retried on the next tick.
func (c *YouTubeClient) Run(ctx context.Context) error {
	interval := defaultYTPollInterval
	if c.cfg.PollIntervalSeconds > 0 {
		interval = time.Duration(c.cfg.PollIntervalSeconds * float64(time.Second))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.pollChat(ctx); err != nil {
				log.Printf("[youtube] chat poll failed: %v", err)
			}
		}
	}
}

func (c *YouTubeClient) pollChat(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	q := url.Values{
		"part":       {"snippet,authorDetails"},
		"liveChatId": {c.cfg.LiveChatID},
		"key":        {c.cfg.APIKey},
	}
	if c.nextPageToken != "" {
		q.Set("pageToken", c.nextPageToken)
	}
	var resp struct {
		NextPageToken string `json:"nextPageToken"`
		Items         []struct {
			Snippet struct {
				DisplayMessage string `json:"displayMessage"`
			} `json:"snippet"`
			AuthorDetails struct {
				DisplayName string `json:"displayName"`
			} `json:"authorDetails"`
		} `json:"items"`
	}
	if err := c.get(ctx, "/liveChat/messages", q, &resp); err != nil {
		return err
	}
	c.nextPageToken = resp.NextPageToken
	for _, item := range resp.Items {
		if item.Snippet.DisplayMessage == "" {
			continue
		}
		c.chat.Add(item.AuthorDetails.DisplayName, item.Snippet.DisplayMessage, "youtube")
	}
	return nil
}

func (c *YouTubeClient) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
