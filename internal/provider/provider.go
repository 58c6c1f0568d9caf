package provider

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Quote is the normalized point-in-time snapshot returned by quote providers.
// Prices are kept as decimals and go on the wire as JSON numbers.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"changePercent"`
}

// MarshalJSON writes the decimals as bare numbers so clients read them as
// numbers, not strings. Decoding accepts either form.
func (q Quote) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Symbol        string      `json:"symbol"`
		Price         json.Number `json:"price"`
		Change        json.Number `json:"change"`
		ChangePercent json.Number `json:"changePercent"`
	}{
		Symbol:        q.Symbol,
		Price:         json.Number(q.Price.String()),
		Change:        json.Number(q.Change.String()),
		ChangePercent: json.Number(q.ChangePercent.String()),
	})
}

// Status reports whether a candle series carries data.
type Status string

const (
	StatusOK          Status = "ok"
	StatusUnavailable Status = "unavailable"
)

// CandleSeries is a chronological close-price series for one symbol.
// ClosePrices and Timestamps are index-aligned and strictly ascending in time.
type CandleSeries struct {
	Symbol      string    `json:"-"`
	ClosePrices []float64 `json:"c"`
	Timestamps  []int64   `json:"t"`
	Status      Status    `json:"s"`
}

// Unavailable returns an empty series marked unavailable.
func Unavailable(symbol string) CandleSeries {
	return CandleSeries{
		Symbol:      symbol,
		ClosePrices: []float64{},
		Timestamps:  []int64{},
		Status:      StatusUnavailable,
	}
}

// Len returns the number of data points.
func (s CandleSeries) Len() int { return len(s.Timestamps) }

type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (Quote, error)
}

type SeriesSource interface {
	Candles(ctx context.Context, symbol string) (CandleSeries, error)
}
