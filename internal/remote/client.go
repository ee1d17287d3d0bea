// Package remote talks to the HTTP API of a registered NVR host.
//
// Every call is a single bounded GET. There are no retries: a failed call
// is reported to the caller, which treats it as "no data this cycle".
package remote

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/MrSnakeDoc/nvrsync/internal/domain"
	"github.com/MrSnakeDoc/nvrsync/internal/version"
)

var (
	// ErrFetch covers transport errors, timeouts, non-2xx answers and
	// malformed payloads alike. Callers never distinguish them.
	ErrFetch = errors.New("remote fetch failed")
	// ErrHostDisabled is returned without any network I/O for disabled hosts.
	ErrHostDisabled = errors.New("host disabled")
)

const (
	DefaultStatusPath = "/api/version"
	DefaultConfigPath = "/api/config"
	DefaultStatsPath  = "/api/stats"

	DefaultStatusTimeout = 10 * time.Second
	DefaultFetchTimeout  = 60 * time.Second
)

// Options configures the client. Zero values fall back to defaults.
type Options struct {
	StatusTimeout     time.Duration // short; keeps the liveness loop responsive
	FetchTimeout      time.Duration // long; config and stats bodies are larger
	StatusPath        string
	ConfigPath        string
	StatsPath         string
	SkipTLSValidation bool // NVRs commonly ship self-signed certificates
}

// Client issues status, config and stats requests against hosts.
type Client struct {
	http *resty.Client
	opts Options
}

// New builds a client with the given options.
func New(opts Options) *Client {
	if opts.StatusTimeout <= 0 {
		opts.StatusTimeout = DefaultStatusTimeout
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.StatusPath == "" {
		opts.StatusPath = DefaultStatusPath
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = DefaultConfigPath
	}
	if opts.StatsPath == "" {
		opts.StatsPath = DefaultStatsPath
	}

	r := resty.New()
	r.SetRetryCount(0)
	r.SetHeader("Accept", "application/json")
	r.SetHeader("User-Agent", version.UserAgent())
	r.SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	if opts.SkipTLSValidation {
		r.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) // #nosec G402 -- opt-in via config
	}

	return &Client{http: r, opts: opts}
}

// FetchStatus reports whether the host answers its status endpoint.
// It returns (true, nil) on a 2xx answer and (false, err) otherwise.
func (c *Client) FetchStatus(ctx context.Context, host domain.Host) (bool, error) {
	if _, err := c.get(ctx, host, c.opts.StatusPath, c.opts.StatusTimeout); err != nil {
		return false, err
	}
	return true, nil
}

// FetchConfig returns the host's camera configuration.
func (c *Client) FetchConfig(ctx context.Context, host domain.Host) (*ConfigPayload, error) {
	body, err := c.get(ctx, host, c.opts.ConfigPath, c.opts.FetchTimeout)
	if err != nil {
		return nil, err
	}
	payload, err := ParseConfig(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, host.URL, err)
	}
	return payload, nil
}

// FetchStats returns the host's runtime statistics.
func (c *Client) FetchStats(ctx context.Context, host domain.Host) (*StatsPayload, error) {
	body, err := c.get(ctx, host, c.opts.StatsPath, c.opts.FetchTimeout)
	if err != nil {
		return nil, err
	}
	payload, err := ParseStats(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, host.URL, err)
	}
	return payload, nil
}

func (c *Client) get(ctx context.Context, host domain.Host, path string, timeout time.Duration) ([]byte, error) {
	if !host.Enabled {
		return nil, ErrHostDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := Endpoint(host.URL, path)
	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrFetch, url, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: GET %s: status %d", ErrFetch, url, resp.StatusCode())
	}
	return resp.Body(), nil
}

// Endpoint joins a host base URL and an API path.
func Endpoint(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}
