// Package quote fetches short random quotes from an external HTTP API and
// formats them for use as chat messages. The client never surfaces an error
// to its callers: any upstream failure degrades to a fixed fallback line so
// auto-replies and broadcasts keep flowing when the quote service is down.
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/quotechat/backend/telemetry"
)

// Client talks to a quotable-style API. The zero value is not usable; build
// one with New or populate BaseURL yourself.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	MaxLength  int
	Fallback   string
}

// New returns a Client for the given API base URL.
func New(baseURL string, maxLength int, timeout time.Duration, fallback string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
		MaxLength:  maxLength,
		Fallback:   fallback,
	}
}

type apiQuote struct {
	Content string `json:"content"`
	Author  string `json:"author"`
}

// Random returns a formatted quote, `"<content>" - <author>`, or the fallback
// line when the API is unreachable, slow, or returns something unusable.
func (c *Client) Random(ctx context.Context) string {
	var out string
	telemetry.TimeFunc(telemetry.QuoteFetchDuration, func() {
		out = c.fetch(ctx)
	})
	return out
}

func (c *Client) fetch(ctx context.Context) string {
	u, err := url.Parse(c.BaseURL + "/quotes/random")
	if err != nil {
		slog.Warn("quote: bad base url, using fallback", "url", c.BaseURL, "err", err)
		return c.Fallback
	}
	if c.MaxLength > 0 {
		q := u.Query()
		q.Set("maxLength", strconv.Itoa(c.MaxLength))
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return c.Fallback
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		slog.Warn("quote: fetch failed, using fallback", "err", err)
		return c.Fallback
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		slog.Warn("quote: unexpected status, using fallback", "status", resp.StatusCode)
		return c.Fallback
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		slog.Warn("quote: read failed, using fallback", "err", err)
		return c.Fallback
	}
	// The endpoint returns a one-element array. Tolerate a bare object too,
	// since older API versions served that shape.
	var quotes []apiQuote
	if err := json.Unmarshal(body, &quotes); err != nil {
		var single apiQuote
		if err2 := json.Unmarshal(body, &single); err2 != nil {
			slog.Warn("quote: decode failed, using fallback", "err", err)
			return c.Fallback
		}
		quotes = []apiQuote{single}
	}
	if len(quotes) == 0 || quotes[0].Content == "" {
		slog.Warn("quote: empty response, using fallback")
		return c.Fallback
	}
	q := quotes[0]
	if q.Author == "" {
		q.Author = "Unknown"
	}
	return fmt.Sprintf("\"%s\" - %s", q.Content, q.Author)
}
