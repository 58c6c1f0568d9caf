package twelvedata_test

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"marketgateway/internal/provider"
	"marketgateway/internal/provider/credential"
	"marketgateway/internal/provider/twelvedata"
)

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func newClient(t *testing.T, httpClient twelvedata.HTTPClient, opts ...twelvedata.ClientOption) *twelvedata.Client {
	t.Helper()
	keys, err := credential.NewRotator("td-key")
	require.NoError(t, err)
	return twelvedata.NewClient(keys, append([]twelvedata.ClientOption{twelvedata.WithHTTPClient(httpClient)}, opts...)...)
}

const sampleSeries = `{
  "meta": {"symbol": "AAPL", "interval": "1day"},
  "values": [
    {"datetime": "2025-01-03", "open": "1", "close": "243.36"},
    {"datetime": "2025-01-02", "open": "1", "close": "243.85"}
  ],
  "status": "ok"
}`

func TestCandles(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock HTTP client
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodGet, req.Method)
			require.True(t, strings.HasSuffix(req.URL.Path, "/time_series"))
			q := req.URL.Query()
			require.Equal(t, "AAPL", q.Get("symbol"))
			require.Equal(t, "1day", q.Get("interval"))
			require.Equal(t, "90", q.Get("outputsize"))
			require.Equal(t, "td-key", q.Get("apikey"))
			return jsonResponse(http.StatusOK, sampleSeries), nil
		}).
		Times(1)

	// Act
	series, err := newClient(t, httpClient).Candles(t.Context(), "AAPL")
	require.NoError(t, err)

	// Assert: ascending after normalization
	require.Equal(t, provider.StatusOK, series.Status)
	require.Equal(t, []float64{243.85, 243.36}, series.ClosePrices)
	require.Equal(t, []int64{1735776000, 1735862400}, series.Timestamps)
}

func TestCandles_SeriesShape(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "1week", req.URL.Query().Get("interval"))
			require.Equal(t, "30", req.URL.Query().Get("outputsize"))
			return jsonResponse(http.StatusOK, sampleSeries), nil
		}).
		Times(1)

	_, err := newClient(t, httpClient, twelvedata.WithSeriesShape("1week", 30)).Candles(t.Context(), "AAPL")
	require.NoError(t, err)
}

func TestCandles_InBandErrorIsUnavailable(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(jsonResponse(http.StatusOK, `{"code":400,"message":"**symbol** not found","status":"error"}`), nil).
		Times(1)

	series, err := newClient(t, httpClient).Candles(t.Context(), "ZZZZ")
	require.NoError(t, err)
	require.Equal(t, provider.Unavailable("ZZZZ"), series)
}

func TestCandles_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		res  *http.Response
		err  error
		want error
	}{
		{name: "transport", err: errors.New("connection reset")},
		{name: "bad gateway", res: jsonResponse(http.StatusBadGateway, "")},
		{name: "rate limited", res: jsonResponse(http.StatusTooManyRequests, ""), want: twelvedata.ErrRateLimited},
		{name: "unauthorized", res: jsonResponse(http.StatusUnauthorized, ""), want: twelvedata.ErrUnauthorized},
		{name: "malformed body", res: jsonResponse(http.StatusOK, "<html>")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			httpClient := NewMockHTTPClient(ctrl)
			httpClient.EXPECT().Do(gomock.Any()).Return(tc.res, tc.err).Times(1)

			_, err := newClient(t, httpClient).Candles(t.Context(), "AAPL")
			require.Error(t, err)
			if tc.want != nil {
				require.ErrorIs(t, err, tc.want)
			}
		})
	}
}
