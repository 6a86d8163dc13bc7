package observability

import "sync"

// Inmem keeps the last N observations plus running cache counters. It backs
// local debugging and tests; production deployments can swap in a real sink
// behind the same interface.
type Inmem struct {
	mu   sync.Mutex
	last []any
	max  int

	cacheHits   int
	cacheMisses int
}

func NewInmem(max int) *Inmem {
	return &Inmem{max: max}
}

func (m *Inmem) push(v any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = append(m.last, v)
	if len(m.last) > m.max {
		m.last = m.last[1:]
	}
}

func (m *Inmem) ObserveLookup(kind, source string, durMs float64) {
	m.push(struct {
		Kind, EntityKind, Source string
		DurMs                    float64
	}{"lookup", kind, source, durMs})
}

func (m *Inmem) ObserveMutation(kind, op string, durMs float64) {
	m.push(struct {
		Kind, EntityKind, Op string
		DurMs                float64
	}{"mutation", kind, op, durMs})
}

func (m *Inmem) ObserveHTTP(method, route string, status int, durMs float64) {
	m.push(struct {
		Kind, Method, Route string
		Status              int
		DurMs               float64
	}{"http", method, route, status, durMs})
}

func (m *Inmem) ObserveEnrichment(durMs float64, ok bool) {
	m.push(struct {
		Kind  string
		DurMs float64
		OK    bool
	}{"enrichment", durMs, ok})
}

func (m *Inmem) ObserveIngest(durMs float64, ok bool) {
	m.push(struct {
		Kind  string
		DurMs float64
		OK    bool
	}{"ingest", durMs, ok})
}

func (m *Inmem) IncCacheHit() {
	m.mu.Lock()
	m.cacheHits++
	m.mu.Unlock()
}

func (m *Inmem) IncCacheMiss() {
	m.mu.Lock()
	m.cacheMisses++
	m.mu.Unlock()
}

// CacheCounters returns the running hit/miss totals.
func (m *Inmem) CacheCounters() (hits, misses int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cacheHits, m.cacheMisses
}

// Last returns a copy of the retained observations, oldest first.
func (m *Inmem) Last() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]any, len(m.last))
	copy(out, m.last)
	return out
}
