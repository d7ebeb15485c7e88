// Package robots answers whether a page may be fetched according to the
// site's robots.txt.
package robots

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"
)

// DefaultExpiry is how long a host's robots.txt is reused.
const DefaultExpiry = 30 * time.Minute

// Checker fetches and caches robots.txt per host. A missing or unreachable
// robots.txt allows everything; a 5xx answer disallows everything.
type Checker struct {
	HTTPClient *http.Client
	UserAgent  string
	// Expiry defaults to DefaultExpiry.
	Expiry time.Duration
	// Timeout bounds one robots.txt download. Zero means 10s.
	Timeout time.Duration

	mu    sync.Mutex
	hosts map[string]entry
	group singleflight.Group
	now   func() time.Time
}

type entry struct {
	data   *robotstxt.RobotsData
	expiry time.Time
}

// Allowed reports whether u may be fetched by the configured user agent.
// A lookup error is returned alongside true so callers can log and proceed.
func (c *Checker) Allowed(ctx context.Context, u *url.URL) (bool, error) {
	if u == nil || !isHTTPScheme(u) {
		return false, fmt.Errorf("unsupported url: %v", u)
	}
	data, err := c.rules(ctx, u.Scheme, u.Host)
	if err != nil {
		return true, err
	}
	if data == nil {
		return true, nil
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return data.TestAgent(path, c.agent()), nil
}

// CrawlDelay returns the delay the site asks of this user agent, or zero.
func (c *Checker) CrawlDelay(ctx context.Context, u *url.URL) time.Duration {
	if u == nil || !isHTTPScheme(u) {
		return 0
	}
	data, err := c.rules(ctx, u.Scheme, u.Host)
	if err != nil || data == nil {
		return 0
	}
	if g := data.FindGroup(c.agent()); g != nil {
		return g.CrawlDelay
	}
	return 0
}

func (c *Checker) agent() string {
	if ua := strings.TrimSpace(c.UserAgent); ua != "" {
		// Groups match on the product token.
		return strings.SplitN(ua, "/", 2)[0]
	}
	return "*"
}

func (c *Checker) rules(ctx context.Context, scheme, host string) (*robotstxt.RobotsData, error) {
	key := strings.ToLower(scheme + "://" + host)
	c.mu.Lock()
	if c.now == nil {
		c.now = time.Now
	}
	if c.hosts == nil {
		c.hosts = make(map[string]entry)
	}
	if e, ok := c.hosts[key]; ok && c.now().Before(e.expiry) {
		c.mu.Unlock()
		return e.data, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (any, error) {
		data, err := c.download(ctx, key+"/robots.txt")
		exp := c.Expiry
		if exp <= 0 {
			exp = DefaultExpiry
		}
		c.mu.Lock()
		c.hosts[key] = entry{data: data, expiry: c.now().Add(exp)}
		c.mu.Unlock()
		return data, err
	})
	if err != nil {
		return nil, err
	}
	return v.(*robotstxt.RobotsData), nil
}

func (c *Checker) download(ctx context.Context, robotsURL string) (*robotstxt.RobotsData, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("robots.txt: %w", err)
	}
	defer resp.Body.Close()
	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	log.Debug().Str("url", robotsURL).Int("status", resp.StatusCode).Msg("robots.txt loaded")
	return data, nil
}

func isHTTPScheme(u *url.URL) bool {
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
