// Package pretix provides a client for the pretix ticketing REST API.
package pretix

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/abrezinsky/badgegen/internal/errors"
	"github.com/abrezinsky/badgegen/internal/logger"
	"github.com/abrezinsky/badgegen/internal/models"
)

// TokenEnv is the environment variable holding the API token
const TokenEnv = "PRETIX_TOKEN"

// Page is one page of a pretix list endpoint
type Page[T any] struct {
	Count   int     `json:"count"`
	Next    *string `json:"next"`
	Results []T     `json:"results"`
}

// StatusError is a non-2xx response from pretix
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("pretix returned status %d for %s", e.StatusCode, e.URL)
}

// Client defines the interface for pretix operations
type Client interface {
	// ForEachOrder calls fn for every order of the event, page by page in
	// API order. It stops at the first error from a page fetch or from fn.
	ForEachOrder(ctx context.Context, fn func(models.Order) error) error
	// FetchOrder retrieves a single order by code
	FetchOrder(ctx context.Context, code string) (*models.Order, error)
}

var orderCodePattern = regexp.MustCompile(`^[A-Za-z0-9]{1,16}$`)

// ValidOrderCode reports whether code looks like a pretix order code
func ValidOrderCode(code string) bool {
	return orderCodePattern.MatchString(code)
}

// HTTPClient is a real HTTP client for pretix
type HTTPClient struct {
	ordersURL  string
	token      string
	httpClient *http.Client
	log        logger.Logger
}

// NewHTTPClient creates a client for the order list at ordersURL
func NewHTTPClient(ordersURL, token string, log logger.Logger) *HTTPClient {
	return NewHTTPClientWithHTTPClient(ordersURL, token, &http.Client{Timeout: 30 * time.Second}, log)
}

// NewHTTPClientWithHTTPClient creates a new pretix client with a custom http.Client
func NewHTTPClientWithHTTPClient(ordersURL, token string, httpClient *http.Client, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		ordersURL:  ordersURL,
		token:      token,
		httpClient: httpClient,
		log:        log,
	}
}

// OrdersURL returns the first page of the order list
func (c *HTTPClient) OrdersURL() string {
	return c.ordersURL
}

// get fetches reqURL and decodes the JSON body into out
func (c *HTTPClient) get(ctx context.Context, reqURL string, out any) error {
	c.log.Debug("pretix request", "method", "GET", "url", reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrNetwork, "create request")
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrNetwork, "connect to pretix")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, errors.ErrNetwork, "read response")
	}

	c.log.Debug("pretix response", "status", resp.StatusCode, "bytes", len(body))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{URL: reqURL, StatusCode: resp.StatusCode, Body: string(body)}
		return errors.Wrap(statusErr, errors.ErrNetwork, "fetch "+reqURL)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, errors.ErrNetwork, "parse response")
	}
	return nil
}

// paginate walks a list endpoint from first until next is null
func paginate[T any](ctx context.Context, c *HTTPClient, first string, fn func(T) error) error {
	seen := make(map[string]bool)
	next := first
	for next != "" {
		if seen[next] {
			return errors.Networkf("pagination loop at %s", next)
		}
		seen[next] = true

		var page Page[T]
		if err := c.get(ctx, next, &page); err != nil {
			return err
		}
		for _, item := range page.Results {
			if err := fn(item); err != nil {
				return err
			}
		}

		current := next
		next = ""
		if page.Next != nil && *page.Next != "" {
			resolved, err := resolveNext(first, current, *page.Next)
			if err != nil {
				return err
			}
			next = resolved
		}
	}
	return nil
}

// resolveNext makes a next link absolute against the current page and
// requires it to share the first page's scheme and host, so the token is
// only ever sent to the configured server
func resolveNext(first, current, next string) (string, error) {
	origin, err := url.Parse(first)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrNetwork, "parse orders url")
	}
	base, err := url.Parse(current)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrNetwork, "parse page url")
	}
	u, err := base.Parse(next)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrNetwork, "parse next page url %q", next)
	}
	if u.Scheme != origin.Scheme || u.Host != origin.Host {
		return "", errors.Networkf("next page %s is not on %s://%s", u.Redacted(), origin.Scheme, origin.Host)
	}
	return u.String(), nil
}

// ForEachOrder pages through every order of the event
func (c *HTTPClient) ForEachOrder(ctx context.Context, fn func(models.Order) error) error {
	return paginate(ctx, c, c.ordersURL, fn)
}

// FetchOrder retrieves one order. An unknown code is a not-found error.
func (c *HTTPClient) FetchOrder(ctx context.Context, code string) (*models.Order, error) {
	if !ValidOrderCode(code) {
		return nil, errors.InvalidInputf("invalid order code %q", code)
	}

	var order models.Order
	err := c.get(ctx, c.ordersURL+url.PathEscape(code)+"/", &order)
	var statusErr *StatusError
	if stderrors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return nil, errors.Wrapf(statusErr, errors.ErrNotFound, "order %s not found", code)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}
