package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/9seconds/promptrelay/llm"
	"github.com/9seconds/promptrelay/providers"
	"github.com/9seconds/promptrelay/relaylib"
)

const (
	circuitBreakerOpenThreshold = 5
	circuitBreakerOpenTimeout   = 30 * time.Second
)

func makeRootContext() (context.Context, context.CancelFunc) {
	rootCtx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)

	go func() {
		for range sigChan {
			cancel()
		}
	}()

	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	return rootCtx, cancel
}

func makeGeoProviders(conf *config) ([]relaylib.GeoProvider, error) {
	rv := make([]relaylib.GeoProvider, 0, len(conf.GetGeoProviders()))

	for _, v := range conf.GetGeoProviders() {
		params := v.GetSpecificParameters()
		httpClient := makeNewHTTPClient(v.GetHTTPTimeout(),
			v.GetRateLimitInterval(),
			v.GetRateLimitBurst())

		switch v.GetName() {
		case providers.NameIPAPI:
			rv = append(rv, providers.NewIPAPI(httpClient, params))
		case providers.NameIPAPICom:
			rv = append(rv, providers.NewIPAPICom(httpClient, params))
		case providers.NameIPInfo:
			rv = append(rv, providers.NewIPInfo(httpClient, params))
		case providers.NameKeyCDN:
			rv = append(rv, providers.NewKeyCDN(httpClient))
		case providers.NameMaxmindLocal:
			prov, err := providers.NewMaxmindLocal(params)
			if err != nil {
				return nil, fmt.Errorf("cannot create maxmind provider: %w", err)
			}

			rv = append(rv, prov)
		default:
			return nil, fmt.Errorf("unsupported provider name: %s", v.GetName())
		}
	}

	return rv, nil
}

func closeGeoProviders(provs []relaylib.GeoProvider) {
	for _, v := range provs {
		if closer, ok := v.(io.Closer); ok {
			closer.Close() // nolint: errcheck
		}
	}
}

func makeLLMClient(ctx context.Context, conf configLLM) (relaylib.LLMClient, error) {
	switch conf.GetProvider() {
	case llm.NameOpenAI:
		httpClient := makeNewHTTPClient(conf.GetHTTPTimeout(),
			conf.GetRateLimitInterval(),
			conf.GetRateLimitBurst())

		return llm.NewOpenAI(httpClient, conf.GetBaseURL(), conf.GetAPIKey(), conf.GetModel())
	case llm.NameGemini:
		httpClient := &http.Client{
			Timeout: conf.GetHTTPTimeout(),
		}

		return llm.NewGemini(ctx, httpClient, conf.GetAPIKey(), conf.GetModel())
	}

	return nil, fmt.Errorf("unsupported llm provider: %s", conf.GetProvider())
}

func makeNewHTTPClient(timeout, rateLimitInterval time.Duration, rateLimitBurst int) relaylib.HTTPClient {
	jar, err := cookiejar.New(nil)
	if err != nil {
		panic(err)
	}

	httpClient := &http.Client{
		Timeout: timeout,
		Jar:     jar,
	}

	return relaylib.NewHTTPClient(httpClient,
		"promptrelay/"+version,
		rateLimitInterval,
		rateLimitBurst,
		circuitBreakerOpenThreshold,
		circuitBreakerOpenTimeout)
}
