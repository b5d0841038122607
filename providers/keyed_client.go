package providers

import (
	"net/http"

	"github.com/9seconds/promptrelay/relaylib"
)

// keyedClient adds a query parameter with API key to each request.
type keyedClient struct {
	client relaylib.HTTPClient
	param  string
	value  string
}

func (k keyedClient) Do(req *http.Request) (*http.Response, error) {
	query := req.URL.Query()

	query.Set(k.param, k.value)
	req.URL.RawQuery = query.Encode()

	return k.client.Do(req)
}
