package twelvedata

import (
	"net/http"
	"net/url"
	"strings"

	"marketgateway/internal/provider/credential"
)

const baseURL = "https://api.twelvedata.com"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=twelvedata_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a client for the TwelveData time-series API.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient performs the requests.
	httpClient HTTPClient
	// keys hands out the apikey for each request.
	keys credential.Source
	// header contains additional headers to be sent with each request.
	header http.Header
	// query contains additional query parameters to be sent with each request.
	query url.Values
	// interval and outputSize shape every time_series request.
	interval   string
	outputSize int
}

// ClientOption is a configuration option for the TwelveData client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL for the API. An empty value keeps the default.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) ClientOption {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithSeriesShape sets the candle interval and number of points requested.
func WithSeriesShape(interval string, outputSize int) ClientOption {
	return func(c *Client) {
		if interval != "" {
			c.interval = interval
		}
		if outputSize > 0 {
			c.outputSize = outputSize
		}
	}
}

// NewClient creates a new TwelveData client. Every request takes its apikey
// from keys, so two configured keys share the load round-robin.
func NewClient(keys credential.Source, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		keys:       keys,
		header:     http.Header{},
		query:      url.Values{},
		interval:   "1day",
		outputSize: 90,
	}
	for _, option := range options {
		option(c)
	}
	return c
}
