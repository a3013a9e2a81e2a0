// Package spimex implements the exchange website client: report link
// discovery, report downloads and workbook parsing.
package spimex

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://spimex.com"

	resultsPath = "/markets/oil_products/trades/results/"

	defaultRatePerSecond = 2.0
	defaultTimeout       = 30 * time.Second
	burstSize            = 5
)

// Options configures the website client.
type Options struct {
	BaseURL           string
	RequestsPerSecond float64
	RequestTimeout    time.Duration
}

// Client fetches listing pages and report files from the exchange website.
// All requests share one rate limiter so discovery and downloads together
// stay below the configured request rate.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *logrus.Entry
}

func NewClient(opts Options, logger *logrus.Logger) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	perSecond := opts.RequestsPerSecond
	if perSecond <= 0 {
		perSecond = defaultRatePerSecond
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Limit(perSecond), burstSize),
		logger:     logger.WithField("component", "spimex_client"),
	}
}

// GetHTML downloads a page and returns its body as text.
func (c *Client) GetHTML(ctx context.Context, url string) (string, error) {
	data, err := c.get(ctx, url)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GetBytes downloads a report file and returns its raw bytes.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	return c.get(ctx, url)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", url, err)
	}
	return data, nil
}

func (c *Client) absoluteURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return c.baseURL + href
}
