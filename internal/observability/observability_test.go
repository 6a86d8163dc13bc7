package observability

import (
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendServerTiming(t *testing.T) {
	tests := []struct {
		testName string

		name  string
		durMs float64
		desc  string

		expected string
	}{
		{
			testName: "durMs - ok, desc - ok",

			name:  "app",
			durMs: 100.5,
			desc:  "total",

			expected: `app;dur=100.50;desc="total"`,
		},
		{
			testName: "durMs - ok, desc is empty",

			name:  "app",
			durMs: 200.0,
			desc:  "",

			expected: "app;dur=200.00",
		},
		{
			testName: "durMs is zero, desc is ok",

			name:  "app",
			durMs: 0,
			desc:  "total",

			expected: `app;desc="total"`,
		},
		{
			testName: "durMs is zero, desc is empty",

			name:  "app",
			durMs: 0,
			desc:  "",

			expected: "",
		},
		{
			testName: "durMs is negative, desc is ok",

			name:  "app",
			durMs: -10,
			desc:  "total",

			expected: `app;desc="total"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.testName, func(t *testing.T) {
			w := httptest.NewRecorder()
			AppendServerTiming(w, tt.name, tt.durMs, tt.desc)

			result := w.Header().Get("Server-Timing")
			require.Equal(t, tt.expected, result)
		})
	}
}

func TestAppendServerTiming_MultipleCalls(t *testing.T) {
	w := httptest.NewRecorder()

	AppendServerTiming(w, "db", 150.25, "database query")
	AppendServerTiming(w, "cache", 50.0, "cache lookup")

	headers := w.Header()["Server-Timing"]
	require.Len(t, headers, 2)
	require.Equal(t, `db;dur=150.25;desc="database query"`, headers[0])
	require.Equal(t, `cache;dur=50.00;desc="cache lookup"`, headers[1])
}

func TestInmem_RetainsLastN(t *testing.T) {
	m := NewInmem(2)
	m.ObserveLookup("place", SourceCache, 1)
	m.ObserveLookup("place", SourceStore, 2)
	m.ObserveMutation("place", "create", 3)

	last := m.Last()
	require.Len(t, last, 2)
}

func TestInmem_CacheCounters(t *testing.T) {
	m := NewInmem(10)
	m.IncCacheHit()
	m.IncCacheHit()
	m.IncCacheHit()
	m.IncCacheMiss()

	hits, misses := m.CacheCounters()
	require.Equal(t, 3, hits)
	require.Equal(t, 1, misses)
}

func TestInmem_ConcurrentOperations(t *testing.T) {
	m := NewInmem(100)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.ObserveEnrichment(1.5, true)
		}()
	}
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncCacheHit()
		}()
	}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncCacheMiss()
		}()
	}
	wg.Wait()

	require.Len(t, m.Last(), 50)
	hits, misses := m.CacheCounters()
	require.Equal(t, 30, hits)
	require.Equal(t, 20, misses)
}

func TestNoopImplementsMetrics(t *testing.T) {
	var m Metrics = NewNoop()
	m.ObserveLookup("place", SourceCache, 1)
	m.ObserveMutation("place", "create", 1)
	m.ObserveHTTP("GET", "/", 200, 1)
	m.ObserveEnrichment(1, true)
	m.ObserveIngest(1, false)
	m.IncCacheHit()
	m.IncCacheMiss()
}
