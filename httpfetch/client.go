// Package httpfetch builds cache fetchers that read JSON from the portal API.
package httpfetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/krisalay/request-cache/cancellation"
	"github.com/krisalay/request-cache/types"
)

// DefaultTimeout bounds a request when the client has no http.Client of its own.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed response ends up in StatusError.
const maxErrorBody = 512

// Client talks to one API base URL.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	// Header is added to every request, e.g. an Authorization token.
	Header http.Header
}

// NewClient returns a client for baseURL with DefaultTimeout.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: DefaultTimeout},
	}
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	URL    string
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
	}
	return fmt.Sprintf("GET %s: %s: %s", e.URL, e.Status, e.Body)
}

// Get returns a fetcher that GETs path and decodes the JSON body into T.
// The request is bound to the fetch context, so a superseded fetch aborts
// the HTTP round trip.
func Get[T any](c *Client, path string) types.Fetcher {
	fn := Func[T](c, path)
	return types.FetcherFunc(func(ctx context.Context) (any, error) {
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
}

// Func is Get for the typed helpers, cache.FetchAs and persistent.LoadOrFetchAs.
func Func[T any](c *Client, path string) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		var out T
		if err := c.getJSON(ctx, path, &out); err != nil {
			var zero T
			return zero, err
		}
		return out, nil
	}
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	u, err := c.resolve(path)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", u, err)
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range c.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		if cancellation.Requested(ctx) {
			return fmt.Errorf("GET %s: %w", u, context.Cause(ctx))
		}
		return fmt.Errorf("GET %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			URL:    u,
			Code:   resp.StatusCode,
			Status: resp.Status,
			Body:   strings.TrimSpace(string(body)),
		}
	}

	// Nobody wants the body of a superseded fetch.
	if cancellation.Requested(ctx) {
		return fmt.Errorf("GET %s: %w", u, context.Cause(ctx))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", u, err)
	}
	return nil
}

func (c *Client) resolve(path string) (string, error) {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse path %q: %w", path, err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	ref.Path = strings.TrimLeft(ref.Path, "/")
	return base.ResolveReference(ref).String(), nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}
