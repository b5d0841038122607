package providers

const (
	// Identifier for ipapi.co.
	NameIPAPI = "ipapi"

	// Identifier for ip-api.com.
	NameIPAPICom = "ip-api"

	// Identifier for ipinfo.io.
	NameIPInfo = "ipinfo"

	// Identifier for tools.keycdn.com.
	NameKeyCDN = "keycdn"

	// Identifier for a local MaxMind GeoLite2/GeoIP2 City database.
	NameMaxmindLocal = "maxmind_local"
)
