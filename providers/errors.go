package providers

import "errors"

var (
	// ErrDatabasePathIsRequired is returned if offline provider is
	// initialized without a path to the database.
	ErrDatabasePathIsRequired = errors.New("database path is required")

	// ErrUnknownCountry is returned if provider has responded with
	// something which is not a country.
	ErrUnknownCountry = errors.New("unknown country")
)
