package relaylib

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// httpStatusErrorBodyLimit is a maximal size of body excerpt which is
// attached to HTTPStatusError.
const httpStatusErrorBodyLimit = 4096

type httpClient struct {
	userAgent      string
	client         *http.Client
	rateLimiter    *rate.Limiter
	circuitBreaker *gobreaker.CircuitBreaker
}

func (h httpClient) Do(req *http.Request) (*http.Response, error) {
	if err := h.rateLimiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("cannot wait for rate limiter: %w", err)
	}

	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.circuitBreaker.Execute(func() (interface{}, error) {
		resp, err := h.client.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode >= http.StatusBadRequest {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, httpStatusErrorBodyLimit))

			io.Copy(io.Discard, resp.Body) // nolint: errcheck
			resp.Body.Close()

			return nil, &HTTPStatusError{
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
				Body:       body,
			}
		}

		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	return resp.(*http.Response), nil
}

// httpClientIsSuccessful tells circuit breaker which errors are
// failures of a remote side. 4xx responses are failures of the caller.
func httpClientIsSuccessful(err error) bool {
	statusErr := &HTTPStatusError{}

	if errors.As(err, &statusErr) {
		return statusErr.StatusCode < http.StatusInternalServerError
	}

	return err == nil
}

// NewHTTPClient prepares a new HTTP client, wraps it with rate limiter,
// circuit breaker, sets a user agent etc.
//
// Please see https://pkg.go.dev/golang.org/x/time/rate to get a meaning
// of rate limiter parameters.
//
// Circuit breaker opens after circuitBreakerOpenThreshold consecutive
// failures and stays open for circuitBreakerOpenTimeout. After that it
// goes into half-open state and lets 1 request through: success closes
// it, failure opens again. Transport errors and 5xx are failures, 4xx
// are not.
func NewHTTPClient(client *http.Client,
	userAgent string,
	rateLimiterInterval time.Duration,
	rateLimitBurst int,
	circuitBreakerOpenThreshold uint32,
	circuitBreakerOpenTimeout time.Duration) HTTPClient {
	settings := gobreaker.Settings{
		Name:        userAgent,
		MaxRequests: 1,
		Timeout:     circuitBreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= circuitBreakerOpenThreshold
		},
		IsSuccessful: httpClientIsSuccessful,
	}

	return httpClient{
		userAgent:      userAgent,
		client:         client,
		rateLimiter:    rate.NewLimiter(rate.Every(rateLimiterInterval), rateLimitBurst),
		circuitBreaker: gobreaker.NewCircuitBreaker(settings),
	}
}
