package providers

import (
	"context"
	"fmt"
	"net"

	"github.com/9seconds/promptrelay/relaylib"
	"github.com/oschwald/geoip2-golang"
)

type maxmindLocalProvider struct {
	db *geoip2.Reader
}

func (m *maxmindLocalProvider) Name() string {
	return NameMaxmindLocal
}

func (m *maxmindLocalProvider) Lookup(ctx context.Context, ip net.IP) (relaylib.GeoLookupResult, error) {
	result := relaylib.GeoLookupResult{}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	record, err := m.db.City(ip)
	if err != nil {
		return result, fmt.Errorf("cannot lookup in database: %w", err)
	}

	result.CountryCode = record.Country.IsoCode
	result.Country = record.Country.Names["en"]

	if result.Country == "" {
		result.Country = relaylib.CountryName(result.CountryCode)
	}

	if result.Country == "" {
		return result, ErrUnknownCountry
	}

	result.City = record.City.Names["en"]
	result.Timezone = record.Location.TimeZone

	return result, nil
}

func (m *maxmindLocalProvider) Close() error {
	return m.db.Close()
}

// NewMaxmindLocal opens a City database from db_path parameter. It is
// never updated by relay, use geoipupdate for that.
func NewMaxmindLocal(parameters map[string]string) (relaylib.GeoProvider, error) {
	path := parameters["db_path"]
	if path == "" {
		return nil, ErrDatabasePathIsRequired
	}

	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open database %s: %w", path, err)
	}

	return &maxmindLocalProvider{
		db: db,
	}, nil
}
