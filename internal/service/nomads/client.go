package nomads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/oshokin/gfs-monitor/internal/config"
	"github.com/oshokin/gfs-monitor/internal/domain/cycle"
)

// userAgent identifies the monitor to the file server.
const userAgent = "gfs-monitor/1"

// maxListingSize bounds how much of a directory listing is read.
const maxListingSize = 4 << 20

var (
	// ErrUnexpectedStatus is wrapped when the server answers with a non-success status.
	ErrUnexpectedStatus = errors.New("unexpected http status")
	// errBaseURLRequired is returned when the client is built without a base URL.
	errBaseURLRequired = errors.New("base URL must be provided")
)

// Layout describes how dataset paths are built.
type Layout struct {
	// Collection is the dataset prefix, e.g. "gfs".
	Collection string
	// ProductArea is the cycle sub-folder holding the marker file, e.g. "atmos".
	ProductArea string
	// Resolution is the grid tag, e.g. "0p25".
	Resolution string
	// MaxHorizon is the last forecast hour of a cycle.
	MaxHorizon int
}

// LayoutFromConfig extracts the path layout from the settings.
func LayoutFromConfig(cfg *config.Config) Layout {
	return Layout{
		Collection:  cfg.Collection,
		ProductArea: cfg.ProductArea,
		Resolution:  cfg.Resolution,
		MaxHorizon:  cfg.MaxHorizon,
	}
}

// DayDirectory returns the directory of a day, e.g. "gfs.20240101".
func (l Layout) DayDirectory(date cycle.Date) string {
	return l.Collection + "." + date.Compact()
}

// MarkerFile returns the file written last for a cycle,
// e.g. "gfs.t00z.pgrb2.0p25.f384.idx".
func (l Layout) MarkerFile(hour cycle.Hour) string {
	return fmt.Sprintf("%s.t%sz.pgrb2.%s.f%03d.idx", l.Collection, hour.Label(), l.Resolution, l.MaxHorizon)
}

// MarkerPath returns the marker path of a cycle relative to the base URL.
func (l Layout) MarkerPath(id cycle.Identity) string {
	return path.Join(l.DayDirectory(id.Date), id.Hour.Label(), l.ProductArea, l.MarkerFile(id.Hour))
}

// Client probes the NOMADS file server.
type Client struct {
	// baseURL is the production folder holding the day directories.
	baseURL *url.URL
	// layout builds dataset paths.
	layout Layout
	// httpClient performs the requests.
	httpClient *http.Client
	// callTimeout is the timeout of a single request.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets the timeout of each request.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient returns a client for the server at baseURL.
func NewClient(baseURL string, layout Layout, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errBaseURLRequired
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	client := &Client{
		baseURL:     parsed,
		layout:      layout,
		httpClient:  http.DefaultClient,
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// ListCycles fetches the listing of the day directory and reports which
// publication hours have started.
func (c *Client) ListCycles(ctx context.Context, date cycle.Date) Listing {
	// Directory listings need the trailing slash.
	target := c.resolve(c.layout.DayDirectory(date)) + "/"

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.do(callCtx, http.MethodGet, target)
	if err != nil {
		return Listing{Outcome: Unreachable, URL: target, Err: err}
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return Listing{
			Outcome:    Unreachable,
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s, %s: %w", target, resp.Status, ErrUnexpectedStatus),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxListingSize))
	if err != nil {
		return Listing{
			Outcome:    Unreachable,
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("read listing: %w", err),
		}
	}

	hours := ParseListing(string(body))

	outcome := NotFound
	if len(hours) > 0 {
		outcome = Found
	}

	return Listing{
		Outcome:    outcome,
		URL:        target,
		StatusCode: resp.StatusCode,
		Hours:      hours,
	}
}

// CheckCompletion checks with a HEAD request whether the marker file of
// the cycle exists.
func (c *Client) CheckCompletion(ctx context.Context, id cycle.Identity) Completion {
	target := c.resolve(c.layout.MarkerPath(id))

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.do(callCtx, http.MethodHead, target)
	if err != nil {
		return Completion{Outcome: Unreachable, URL: target, Err: err}
	}

	_ = resp.Body.Close()

	result := Completion{
		URL:        target,
		StatusCode: resp.StatusCode,
	}

	switch resp.StatusCode {
	case http.StatusOK:
		result.Outcome = Found
	case http.StatusNotFound, http.StatusForbidden:
		result.Outcome = NotFound
	default:
		result.Outcome = Unreachable
		result.Err = fmt.Errorf("%s, %s: %w", target, resp.Status, ErrUnexpectedStatus)
	}

	return result
}

// ParseListing returns the publication hours whose "HH/" marker occurs in
// body, in Priority order.
func ParseListing(body string) []cycle.Hour {
	hours := make([]cycle.Hour, 0, len(cycle.Priority))

	for _, h := range cycle.Priority {
		if strings.Contains(body, h.Label()+"/") {
			hours = append(hours, h)
		}
	}

	return hours
}

// resolve joins rel to the base URL path.
func (c *Client) resolve(rel string) string {
	u := *c.baseURL
	// Use path.Join to normalize duplicate slashes when composing the URL path.
	u.Path = path.Join("/", u.Path, rel)

	return u.String()
}

// do sends a bodiless request.
func (c *Client) do(ctx context.Context, method, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}

	return resp, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
