package providers_test

import (
	"context"
	"net"
	"net/http"
	"testing"

	"github.com/9seconds/promptrelay/providers"
	"github.com/9seconds/promptrelay/relaylib"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/suite"
)

const ipapiComURL = `=~^http://ip-api\.com/json/23\.22\.13\.113`

type MockedIPAPIComTestSuite struct {
	MockedProviderTestSuite

	prov relaylib.GeoProvider
}

func (suite *MockedIPAPIComTestSuite) SetupTest() {
	suite.MockedProviderTestSuite.SetupTest()

	suite.prov = providers.NewIPAPICom(suite.http, map[string]string{})
}

func (suite *MockedIPAPIComTestSuite) TestName() {
	suite.Equal(providers.NameIPAPICom, suite.prov.Name())
}

func (suite *MockedIPAPIComTestSuite) TestLookupClosedContext() {
	ctx, cancel := context.WithCancel(context.Background())

	cancel()

	_, err := suite.prov.Lookup(ctx, net.ParseIP(testIP))

	suite.Error(err)
}

func (suite *MockedIPAPIComTestSuite) TestLookupFailed() {
	httpmock.RegisterResponder("GET", ipapiComURL,
		httpmock.NewStringResponder(http.StatusInternalServerError, ""))

	_, err := suite.prov.Lookup(context.Background(), net.ParseIP(testIP))

	suite.Error(err)
}

func (suite *MockedIPAPIComTestSuite) TestLookupBadJSON() {
	httpmock.RegisterResponder("GET", ipapiComURL,
		httpmock.NewStringResponder(http.StatusOK, `{[`))

	_, err := suite.prov.Lookup(context.Background(), net.ParseIP(testIP))

	suite.Error(err)
}

func (suite *MockedIPAPIComTestSuite) TestLookupFailStatus() {
	httpmock.RegisterResponder("GET", ipapiComURL,
		httpmock.NewStringResponder(http.StatusOK,
			`{"status": "fail", "message": "reserved range"}`))

	_, err := suite.prov.Lookup(context.Background(), net.ParseIP(testIP))

	suite.ErrorContains(err, "reserved range")
}

func (suite *MockedIPAPIComTestSuite) TestLookupNoCountry() {
	httpmock.RegisterResponder("GET", ipapiComURL,
		httpmock.NewStringResponder(http.StatusOK, `{"status": "success"}`))

	result, err := suite.prov.Lookup(context.Background(), net.ParseIP(testIP))

	suite.NoError(err)
	suite.Equal(relaylib.GeoCountryUnknown, result.Country)
}

func (suite *MockedIPAPIComTestSuite) TestLookupOk() {
	httpmock.RegisterResponder("GET", ipapiComURL,
		func(req *http.Request) (*http.Response, error) {
			suite.Equal("status,message,country,city,countryCode,timezone",
				req.URL.Query().Get("fields"))

			return httpmock.NewStringResponse(http.StatusOK, `{
  "status": "success",
  "country": "United States",
  "countryCode": "US",
  "city": "Ashburn",
  "timezone": "America/New_York"
}`), nil
		})

	result, err := suite.prov.Lookup(context.Background(), net.ParseIP(testIP))

	suite.NoError(err)
	suite.Equal("United States", result.Country)
	suite.Equal("US", result.CountryCode)
	suite.Equal("Ashburn", result.City)
	suite.Equal("America/New_York", result.Timezone)
}

func TestIPAPICom(t *testing.T) {
	suite.Run(t, &MockedIPAPIComTestSuite{})
}
