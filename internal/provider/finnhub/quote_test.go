package finnhub_test

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"marketgateway/internal/provider/credential"
	"marketgateway/internal/provider/finnhub"
)

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func newRotator(t *testing.T, keys ...string) *credential.Rotator {
	t.Helper()
	r, err := credential.NewRotator(keys...)
	require.NoError(t, err)
	return r
}

func TestQuote(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock HTTP client
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodGet, req.Method)
			require.True(t, strings.HasSuffix(req.URL.Path, "/quote"))
			require.Equal(t, "AAPL", req.URL.Query().Get("symbol"))
			require.Equal(t, "k1", req.URL.Query().Get("token"))
			return jsonResponse(http.StatusOK, `{"c":261.74,"d":-0.5,"dp":-0.1906,"h":263.31,"pc":262.24}`), nil
		}).
		Times(1)

	client := finnhub.NewClient(newRotator(t, "k1"), finnhub.WithHTTPClient(httpClient))

	// Act: fetch the quote
	q, err := client.Quote(t.Context(), "AAPL")
	require.NoError(t, err)

	// Assert: fields are mapped
	require.Equal(t, "AAPL", q.Symbol)
	require.Equal(t, "261.74", q.Price.String())
	require.Equal(t, "-0.5", q.Change.String())
	require.Equal(t, "-0.1906", q.ChangePercent.String())
}

func TestQuote_RotatesKeysPerRequest(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	var tokens []string
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			tokens = append(tokens, req.URL.Query().Get("token"))
			return jsonResponse(http.StatusOK, `{"c":1,"d":0,"dp":0}`), nil
		}).
		Times(4)

	client := finnhub.NewClient(newRotator(t, "k1", "k2"), finnhub.WithHTTPClient(httpClient))
	for range 4 {
		_, err := client.Quote(t.Context(), "MSFT")
		require.NoError(t, err)
	}
	require.Equal(t, []string{"k1", "k2", "k1", "k2"}, tokens)
}

func TestQuote_NullFieldsDecodeAsZero(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(jsonResponse(http.StatusOK, `{"c":0,"d":null,"dp":null}`), nil).
		Times(1)

	client := finnhub.NewClient(newRotator(t, "k"), finnhub.WithHTTPClient(httpClient))
	q, err := client.Quote(t.Context(), "NOPE")
	require.NoError(t, err)
	require.True(t, q.Change.IsZero())
	require.True(t, q.ChangePercent.IsZero())
}

func TestQuote_WithBaseURLAndHeader(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Truef(t, strings.HasPrefix(req.URL.String(), "http://localhost:8080/quote"), "got %s", req.URL.String())
			require.Equal(t, "bar", req.Header.Get("foo"))
			return jsonResponse(http.StatusOK, `{"c":1,"d":0,"dp":0}`), nil
		}).
		Times(1)

	client := finnhub.NewClient(newRotator(t, "k"),
		finnhub.WithHTTPClient(httpClient),
		finnhub.WithBaseURL("http://localhost:8080"),
		finnhub.WithHeader(http.Header{"foo": []string{"bar"}}),
	)
	_, err := client.Quote(t.Context(), "AAPL")
	require.NoError(t, err)
}

func TestQuote_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		res  *http.Response
		err  error
		want error
	}{
		{name: "transport", err: fmt.Errorf("dial tcp: timeout")},
		{name: "server error", res: jsonResponse(http.StatusInternalServerError, "oops")},
		{name: "rate limited", res: jsonResponse(http.StatusTooManyRequests, ""), want: finnhub.ErrRateLimited},
		{name: "forbidden", res: jsonResponse(http.StatusForbidden, ""), want: finnhub.ErrUnauthorized},
		{name: "malformed body", res: jsonResponse(http.StatusOK, "invalid json")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			httpClient := NewMockHTTPClient(ctrl)
			httpClient.EXPECT().Do(gomock.Any()).Return(tc.res, tc.err).Times(1)

			client := finnhub.NewClient(newRotator(t, "k"), finnhub.WithHTTPClient(httpClient))
			_, err := client.Quote(t.Context(), "AAPL")
			require.Error(t, err)
			if tc.want != nil {
				require.ErrorIs(t, err, tc.want)
			}
		})
	}
}
