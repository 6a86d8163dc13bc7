package enrichment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mkarev/suntrack/internal/domain"
)

const okBody = `{
	"results": {
		"sunrise": "2025-06-04T03:49:00+00:00",
		"sunset": "2025-06-04T19:55:00+00:00"
	},
	"status": "OK"
}`

func TestFetchSuccess(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zap.NewNop())
	times, err := c.Fetch(context.Background(), 48.8566, 2.3522, domain.NewDate(2025, time.June, 4))
	require.NoError(t, err)

	require.Equal(t, "48.8566", gotQuery.Get("lat"))
	require.Equal(t, "2.3522", gotQuery.Get("lng"))
	require.Equal(t, "2025-06-04", gotQuery.Get("date"))
	require.Equal(t, "0", gotQuery.Get("formatted"))

	require.Equal(t, time.Date(2025, time.June, 4, 3, 49, 0, 0, time.UTC), times.Sunrise.UTC())
	require.Equal(t, time.Date(2025, time.June, 4, 19, 55, 0, 0, time.UTC), times.Sunset.UTC())
}

func TestFetchFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "http 500",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
		},
		{
			name: "api status not OK",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"results":{},"status":"INVALID_REQUEST"}`))
			},
		},
		{
			name: "missing timestamps",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"results":{"sunrise":"","sunset":""},"status":"OK"}`))
			},
		},
		{
			name: "unparseable sunset",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"results":{"sunrise":"2025-06-04T03:49:00+00:00","sunset":"7:55 PM"},"status":"OK"}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient(srv.URL, time.Second, zap.NewNop())
			_, err := c.Fetch(context.Background(), 48.8566, 2.3522, domain.NewDate(2025, time.June, 4))
			require.ErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient(srv.URL, time.Second, zap.NewNop())
	_, err := c.Fetch(context.Background(), 0, 0, domain.NewDate(2025, time.June, 4))
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestNewClientDefaultBaseURL(t *testing.T) {
	c := NewClient("", time.Second, zap.NewNop())
	require.Equal(t, DefaultBaseURL, c.baseURL)
}
