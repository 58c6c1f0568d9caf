package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"

	"github.com/shopspring/decimal"

	"marketgateway/internal/provider"
)

var (
	ErrUnauthorized = errors.New("finnhub: unauthorized")
	ErrRateLimited  = errors.New("finnhub: rate limited")
)

// quoteResponse is the subset of GET /quote the gateway uses.
//
//	{"c": 261.74, "d": -0.5, "dp": -0.19, "h": 263.31, "l": 260.68, "o": 261.07, "pc": 262.24, "t": 1582641000}
type quoteResponse struct {
	Current       decimal.Decimal `json:"c"`
	Change        decimal.Decimal `json:"d"`
	PercentChange decimal.Decimal `json:"dp"`
}

// Quote fetches the latest quote for symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (provider.Quote, error) {
	query := maps.Clone(c.query)
	query.Set("symbol", symbol)
	query.Set("token", c.keys.Next())

	url := fmt.Sprintf("%s/quote?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return provider.Quote{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return provider.Quote{}, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
	case res.StatusCode == http.StatusUnauthorized, res.StatusCode == http.StatusForbidden:
		return provider.Quote{}, ErrUnauthorized
	case res.StatusCode == http.StatusTooManyRequests:
		return provider.Quote{}, ErrRateLimited
	default:
		b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return provider.Quote{}, fmt.Errorf("unexpected status code: %d: %s", res.StatusCode, string(b))
	}

	var body quoteResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return provider.Quote{}, fmt.Errorf("decoding quote response: %w", err)
	}
	return provider.Quote{
		Symbol:        symbol,
		Price:         body.Current,
		Change:        body.Change,
		ChangePercent: body.PercentChange,
	}, nil
}
