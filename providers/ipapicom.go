package providers

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/9seconds/promptrelay/relaylib"
)

type ipapiComResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	Country     string `json:"country"`
	CountryCode string `json:"countryCode"`
	City        string `json:"city"`
	Timezone    string `json:"timezone"`
}

type ipapiComProvider struct {
	client  relaylib.HTTPClient
	baseURL string
}

func (i ipapiComProvider) Name() string {
	return NameIPAPICom
}

func (i ipapiComProvider) Lookup(ctx context.Context, ip net.IP) (relaylib.GeoLookupResult, error) {
	result := relaylib.GeoLookupResult{}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.buildURL(ip), nil)
	if err != nil {
		return result, fmt.Errorf("cannot build a request: %w", err)
	}

	jsonResponse := ipapiComResponse{}
	if err := doJSON(i.client, req, &jsonResponse); err != nil {
		return result, err
	}

	if jsonResponse.Status != "success" {
		return result, fmt.Errorf("failed to geolocate: %s %s",
			jsonResponse.Status, jsonResponse.Message)
	}

	result.Country = jsonResponse.Country
	if result.Country == "" {
		result.Country = relaylib.GeoCountryUnknown
	}

	result.City = jsonResponse.City
	result.CountryCode = jsonResponse.CountryCode
	result.Timezone = jsonResponse.Timezone

	return result, nil
}

func (i ipapiComProvider) buildURL(ip net.IP) string {
	getQuery := url.Values{}

	getQuery.Set("fields", "status,message,country,city,countryCode,timezone")

	return i.baseURL + "/json/" + url.PathEscape(ip.String()) + "?" + getQuery.Encode()
}

// NewIPAPICom creates a provider of http://ip-api.com. Free tier is
// available only via plain HTTP.
func NewIPAPICom(client relaylib.HTTPClient, parameters map[string]string) relaylib.GeoProvider {
	baseURL := parameters["base_url"]
	if baseURL == "" {
		baseURL = "http://ip-api.com"
	}

	return ipapiComProvider{
		client:  client,
		baseURL: baseURL,
	}
}
