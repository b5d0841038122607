package relaylib

import (
	"context"
	"net"
	"net/http"
)

// GeoProvider is an online or offline source of geolocation data.
//
// Lookup has to return an error if provider has no usable answer:
// network failure, bad response, absent country. GeoResolver treats
// any error as a signal to try the next provider in a chain.
type GeoProvider interface {
	Name() string
	Lookup(context.Context, net.IP) (GeoLookupResult, error)
}

// LLMClient is an upstream large language model provider.
type LLMClient interface {
	Name() string
	Complete(context.Context, CompletionRequest) (Completion, error)
}

// HTTPClient is a client which is used by providers and upstream
// clients to access remote services.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

type Logger interface {
	LookupError(ip, providerName string, err error)
	LookupResolved(ip, source string, info GeoInfo)
	CompletionError(ip string, err error)
	CompletionRecorded(record UsageRecord)
}
