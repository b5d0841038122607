package providers

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/9seconds/promptrelay/relaylib"
)

type keycdnResponse struct {
	Status string `json:"status"`
	Data   struct {
		Geo struct {
			CountryName string `json:"country_name"`
			CountryCode string `json:"country_code"`
			City        string `json:"city"`
			Timezone    string `json:"timezone"`
		} `json:"geo"`
	} `json:"data"`
}

type keycdnProvider struct {
	client relaylib.HTTPClient
}

func (k keycdnProvider) Name() string {
	return NameKeyCDN
}

func (k keycdnProvider) Lookup(ctx context.Context, ip net.IP) (relaylib.GeoLookupResult, error) {
	result := relaylib.GeoLookupResult{}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://tools.keycdn.com/geo.json?host="+ip.String(), nil)
	if err != nil {
		return result, fmt.Errorf("cannot build a request: %w", err)
	}

	// keycdn rejects requests without this header
	req.Header.Set("Referer", "https://tools.keycdn.com")

	jsonResponse := keycdnResponse{}
	if err := doJSON(k.client, req, &jsonResponse); err != nil {
		return result, err
	}

	if jsonResponse.Status != "success" {
		return result, fmt.Errorf("failed to geolocate: %s", jsonResponse.Status)
	}

	geo := jsonResponse.Data.Geo

	result.Country = geo.CountryName
	if result.Country == "" {
		result.Country = relaylib.CountryName(geo.CountryCode)
	}

	if result.Country == "" {
		return result, ErrUnknownCountry
	}

	result.City = geo.City
	result.CountryCode = geo.CountryCode
	result.Timezone = geo.Timezone

	return result, nil
}

func NewKeyCDN(client relaylib.HTTPClient) relaylib.GeoProvider {
	return keycdnProvider{
		client: client,
	}
}
