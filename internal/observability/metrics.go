package observability

// Metrics is the sink for service-level measurements. Implementations must be
// safe for concurrent use.
type Metrics interface {
	ObserveLookup(kind, source string, durMs float64)
	ObserveMutation(kind, op string, durMs float64)
	ObserveHTTP(method, route string, status int, durMs float64)
	ObserveEnrichment(durMs float64, ok bool)
	ObserveIngest(durMs float64, ok bool)
	IncCacheHit()
	IncCacheMiss()
}

// Lookup sources.
const (
	SourceCache = "cache"
	SourceStore = "store"
)

type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) ObserveLookup(string, string, float64)      {}
func (Noop) ObserveMutation(string, string, float64)    {}
func (Noop) ObserveHTTP(string, string, int, float64)   {}
func (Noop) ObserveEnrichment(float64, bool)            {}
func (Noop) ObserveIngest(float64, bool)                {}
func (Noop) IncCacheHit()                               {}
func (Noop) IncCacheMiss()                              {}
