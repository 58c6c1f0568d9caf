package twelvedata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strconv"

	"marketgateway/internal/provider"
)

var (
	ErrUnauthorized = errors.New("twelvedata: unauthorized")
	ErrRateLimited  = errors.New("twelvedata: rate limited")
)

// TimeSeries is the raw GET /time_series payload. Values arrive newest first.
// Errors are reported in-band with status "error" and an HTTP 200.
type TimeSeries struct {
	Status  string  `json:"status"`
	Code    int     `json:"code,omitempty"`
	Message string  `json:"message,omitempty"`
	Values  []Value `json:"values"`
}

// Value is one raw data point; both fields are strings upstream.
type Value struct {
	Datetime string `json:"datetime"`
	Close    string `json:"close"`
}

// TimeSeries fetches the raw series for symbol.
func (c *Client) TimeSeries(ctx context.Context, symbol string) (TimeSeries, error) {
	query := maps.Clone(c.query)
	query.Set("symbol", symbol)
	query.Set("interval", c.interval)
	query.Set("outputsize", strconv.Itoa(c.outputSize))
	query.Set("apikey", c.keys.Next())

	url := fmt.Sprintf("%s/time_series?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return TimeSeries{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return TimeSeries{}, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
	case res.StatusCode == http.StatusUnauthorized, res.StatusCode == http.StatusForbidden:
		return TimeSeries{}, ErrUnauthorized
	case res.StatusCode == http.StatusTooManyRequests:
		return TimeSeries{}, ErrRateLimited
	default:
		b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return TimeSeries{}, fmt.Errorf("unexpected status code: %d: %s", res.StatusCode, string(b))
	}

	var body TimeSeries
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return TimeSeries{}, fmt.Errorf("decoding time series response: %w", err)
	}
	return body, nil
}

// Candles fetches and normalizes the series for symbol. An in-band upstream
// error is not an error here; it yields an unavailable series.
func (c *Client) Candles(ctx context.Context, symbol string) (provider.CandleSeries, error) {
	ts, err := c.TimeSeries(ctx, symbol)
	if err != nil {
		return provider.CandleSeries{}, err
	}
	return Normalize(symbol, ts), nil
}
