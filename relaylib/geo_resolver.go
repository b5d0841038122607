package relaylib

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultGeoLookupTimeout is a time given to each provider to answer.
const DefaultGeoLookupTimeout = 2 * time.Second

const (
	GeoCountryPrivate = "Private IP"
	GeoCountryUnknown = "Unknown"
	GeoCityUnknown    = "Unknown"
	GeoPlaceholder    = "-"
)

// Sources of resolved geolocation, these values are passed to
// Logger.LookupResolved. Otherwise it is a name of the provider.
const (
	GeoSourceCache    = "cache"
	GeoSourcePrivate  = "private"
	GeoSourceFallback = "fallback"
)

var (
	GeoInfoPrivate = GeoInfo{
		Country:   GeoCountryPrivate,
		City:      GeoPlaceholder,
		LocalTime: TimeUnavailable,
	}
	GeoInfoUnknown = GeoInfo{
		Country:   GeoCountryUnknown,
		City:      GeoPlaceholder,
		LocalTime: TimeUnavailable,
	}

	errNoCountry = errors.New("provider has returned no country")
)

// GeoResolver resolves IP addresses into GeoInfo with a chain of
// providers. Providers are tried in order until one of them gives a
// usable result. Each address is looked up at most once: results and
// failures both are cached for the lifetime of resolver.
type GeoResolver struct {
	providers  []GeoProvider
	stats      []*UsageStats
	classifier *NetworkClassifier
	logger     Logger
	clock      Clock
	timeout    time.Duration

	mutex sync.RWMutex
	cache map[string]GeoInfo
	group singleflight.Group
}

// Resolve never fails. If something goes wrong, it returns one of
// sentinel values: GeoInfoPrivate or GeoInfoUnknown.
//
// Cancellation of ctx is not propagated to providers, each of them is
// limited by a lookup timeout only.
func (g *GeoResolver) Resolve(ctx context.Context, ip string) GeoInfo {
	if info, ok := g.cached(ip); ok {
		g.logger.LookupResolved(ip, GeoSourceCache, info)

		return info
	}

	value, _, _ := g.group.Do(ip, func() (interface{}, error) {
		if info, ok := g.cached(ip); ok {
			return info, nil
		}

		info, source := g.lookup(context.WithoutCancel(ctx), ip)
		info = g.store(ip, info)

		g.logger.LookupResolved(ip, source, info)

		return info, nil
	})

	return value.(GeoInfo)
}

func (g *GeoResolver) ProviderStats() []*UsageStats {
	rv := make([]*UsageStats, len(g.stats))
	copy(rv, g.stats)

	return rv
}

// CacheSize returns a number of addresses resolver knows about.
func (g *GeoResolver) CacheSize() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	return len(g.cache)
}

// Reset forgets everything resolver has cached and collected.
func (g *GeoResolver) Reset() {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.cache = map[string]GeoInfo{}

	for _, v := range g.stats {
		v.Reset()
	}
}

func (g *GeoResolver) cached(ip string) (GeoInfo, bool) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	info, ok := g.cache[ip]

	return info, ok
}

// store puts info into the cache unless there is a value already.
// Stored value is returned.
func (g *GeoResolver) store(ip string, info GeoInfo) GeoInfo {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if existing, ok := g.cache[ip]; ok {
		return existing
	}

	g.cache[ip] = info

	return info
}

func (g *GeoResolver) lookup(ctx context.Context, ip string) (GeoInfo, string) {
	parsed := net.ParseIP(ip)
	if parsed == nil || !g.classifier.IsPublic(parsed) {
		return GeoInfoPrivate, GeoSourcePrivate
	}

	for i, provider := range g.providers {
		result, err := g.lookupProvider(ctx, provider, parsed)

		g.stats[i].Used(err)

		if err != nil {
			g.logger.LookupError(ip, provider.Name(), err)

			continue
		}

		return g.makeGeoInfo(result), provider.Name()
	}

	return GeoInfoUnknown, GeoSourceFallback
}

func (g *GeoResolver) lookupProvider(ctx context.Context,
	provider GeoProvider,
	ip net.IP) (GeoLookupResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	result, err := provider.Lookup(ctx, ip)

	switch {
	case err != nil:
		return result, fmt.Errorf("cannot lookup: %w", err)
	case result.Country == "":
		return result, errNoCountry
	}

	return result, nil
}

func (g *GeoResolver) makeGeoInfo(result GeoLookupResult) GeoInfo {
	city := result.City
	if city == "" {
		city = GeoCityUnknown
	}

	timezone := result.Timezone
	if timezone == "" {
		timezone = DefaultTimezone
	}

	return GeoInfo{
		Country:   result.Country,
		City:      city,
		LocalTime: g.clock.LocalTime(timezone),
		Flag:      CountryFlag(result.CountryCode),
	}
}

// NewGeoResolver creates a resolver with a given chain of providers.
// Non-positive timeout means DefaultGeoLookupTimeout. An empty chain
// is allowed: then every public address resolves to GeoInfoUnknown.
func NewGeoResolver(providers []GeoProvider,
	classifier *NetworkClassifier,
	logger Logger,
	clock Clock,
	timeout time.Duration) *GeoResolver {
	if timeout <= 0 {
		timeout = DefaultGeoLookupTimeout
	}

	rv := &GeoResolver{
		providers:  providers,
		stats:      make([]*UsageStats, 0, len(providers)),
		classifier: classifier,
		logger:     logger,
		clock:      clock,
		timeout:    timeout,
		cache:      map[string]GeoInfo{},
	}

	for _, v := range providers {
		rv.stats = append(rv.stats, &UsageStats{
			Name: v.Name(),
			Kind: UsageKindGeo,
		})
	}

	return rv
}
