package providers

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/9seconds/promptrelay/relaylib"
)

type ipinfoResponse struct {
	City     string `json:"city"`
	Country  string `json:"country"`
	Timezone string `json:"timezone"`
	Bogon    bool   `json:"bogon"`
}

type ipinfoProvider struct {
	authToken string
	client    relaylib.HTTPClient
}

func (i ipinfoProvider) Name() string {
	return NameIPInfo
}

func (i ipinfoProvider) Lookup(ctx context.Context, ip net.IP) (relaylib.GeoLookupResult, error) {
	result := relaylib.GeoLookupResult{}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://ipinfo.io/"+ip.String(), nil)
	if err != nil {
		return result, fmt.Errorf("cannot build a request: %w", err)
	}

	if i.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+i.authToken)
	}

	jsonResponse := ipinfoResponse{}
	if err := doJSON(i.client, req, &jsonResponse); err != nil {
		return result, err
	}

	if jsonResponse.Bogon {
		return result, fmt.Errorf("bogon address %v", ip)
	}

	// ipinfo gives codes only
	result.Country = relaylib.CountryName(jsonResponse.Country)
	if result.Country == "" {
		return result, fmt.Errorf("%w: %s", ErrUnknownCountry, jsonResponse.Country)
	}

	result.City = jsonResponse.City
	result.CountryCode = jsonResponse.Country
	result.Timezone = jsonResponse.Timezone

	return result, nil
}

func NewIPInfo(client relaylib.HTTPClient, parameters map[string]string) relaylib.GeoProvider {
	return ipinfoProvider{
		authToken: parameters["auth_token"],
		client:    client,
	}
}
