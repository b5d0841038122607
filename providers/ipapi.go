package providers

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/9seconds/promptrelay/relaylib"
)

type ipapiResponse struct {
	Error       bool   `json:"error"`
	Reason      string `json:"reason"`
	City        string `json:"city"`
	CountryCode string `json:"country"`
	CountryName string `json:"country_name"`
	Timezone    string `json:"timezone"`
}

type ipapiProvider struct {
	client  relaylib.HTTPClient
	baseURL string
}

func (i ipapiProvider) Name() string {
	return NameIPAPI
}

func (i ipapiProvider) Lookup(ctx context.Context, ip net.IP) (relaylib.GeoLookupResult, error) {
	result := relaylib.GeoLookupResult{}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		i.baseURL+"/"+ip.String()+"/json/", nil)
	if err != nil {
		return result, fmt.Errorf("cannot build a request: %w", err)
	}

	jsonResponse := ipapiResponse{}
	if err := doJSON(i.client, req, &jsonResponse); err != nil {
		return result, err
	}

	switch {
	case jsonResponse.Error:
		return result, fmt.Errorf("failed to geolocate: %s", jsonResponse.Reason)
	case jsonResponse.CountryName == "":
		return result, ErrUnknownCountry
	}

	result.Country = jsonResponse.CountryName
	result.City = jsonResponse.City
	result.CountryCode = jsonResponse.CountryCode
	result.Timezone = jsonResponse.Timezone

	return result, nil
}

// NewIPAPI creates a provider of https://ipapi.co. It works without a
// key but it is possible to pass it in parameters as auth_token.
func NewIPAPI(client relaylib.HTTPClient, parameters map[string]string) relaylib.GeoProvider {
	baseURL := parameters["base_url"]
	if baseURL == "" {
		baseURL = "https://ipapi.co"
	}

	if token := parameters["auth_token"]; token != "" {
		client = keyedClient{
			client: client,
			param:  "key",
			value:  token,
		}
	}

	return ipapiProvider{
		client:  client,
		baseURL: baseURL,
	}
}
