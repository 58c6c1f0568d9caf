package twelvedata

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"marketgateway/internal/provider"
)

// datetime layouts accepted for a data point, parsed as UTC.
var layouts = []string{time.DateOnly, time.DateTime}

type point struct {
	ts    int64
	close float64
}

// Normalize converts a raw series into a CandleSeries. Points whose datetime
// or close does not parse are dropped. The result is strictly ascending in
// time with prices and timestamps index-aligned, whatever order the
// upstream used. Duplicate timestamps keep the first point seen.
func Normalize(symbol string, ts TimeSeries) provider.CandleSeries {
	if ts.Status != "ok" || ts.Values == nil {
		return provider.Unavailable(symbol)
	}

	points := make([]point, 0, len(ts.Values))
	for _, v := range ts.Values {
		at, ok := parseDatetime(v.Datetime)
		if !ok {
			continue
		}
		c, err := strconv.ParseFloat(strings.TrimSpace(v.Close), 64)
		if err != nil || math.IsNaN(c) || math.IsInf(c, 0) {
			continue
		}
		points = append(points, point{ts: at, close: c})
	}

	slices.SortStableFunc(points, func(a, b point) int { return cmp.Compare(a.ts, b.ts) })
	points = slices.CompactFunc(points, func(a, b point) bool { return a.ts == b.ts })

	out := provider.CandleSeries{
		Symbol:      symbol,
		ClosePrices: make([]float64, len(points)),
		Timestamps:  make([]int64, len(points)),
		Status:      provider.StatusOK,
	}
	for i, p := range points {
		out.Timestamps[i] = p.ts
		out.ClosePrices[i] = p.close
	}
	return out
}

func parseDatetime(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.Unix(), true
		}
	}
	return 0, false
}
