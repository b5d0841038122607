package relaylib

import (
	"strings"

	"github.com/pariz/gountries"
)

// regionalIndicatorOffset is a distance between 'A' and REGIONAL
// INDICATOR SYMBOL LETTER A.
const regionalIndicatorOffset = 127397

var countryCodeQuery = gountries.New()

// CountryFlag converts 2-letter country code into a flag glyph made of
// 2 regional indicator symbols. Anything which is not 2 latin letters
// gives an empty string.
func CountryFlag(alpha2 string) string {
	alpha2 = strings.ToUpper(alpha2)

	if len(alpha2) != 2 {
		return ""
	}

	buf := strings.Builder{}

	for _, c := range alpha2 {
		if c < 'A' || c > 'Z' {
			return ""
		}

		buf.WriteRune(c + regionalIndicatorOffset)
	}

	return buf.String()
}

// NormalizeAlpha2Code returns a normalized 2-letter code of ISO3166. If
// you get this code from unknown source, it is recommended to normalize
// it with this function.
func NormalizeAlpha2Code(alpha2 string) string {
	alpha2 = strings.ToUpper(alpha2)

	if len(alpha2) != 2 {
		return ""
	}

	switch alpha2 {
	case "ZZ", "AP", "EU":
		return ""
	case "YU":
		return "CS"
	case "FX":
		return "FR"
	case "UK":
		return "GB"
	default:
		return alpha2
	}
}

// CountryName returns a common english name of the country by its
// 2-letter code. Empty string is returned for unknown codes.
func CountryName(alpha2 string) string {
	alpha2 = NormalizeAlpha2Code(alpha2)
	if alpha2 == "" {
		return ""
	}

	country, err := countryCodeQuery.FindCountryByAlpha(alpha2)
	if err != nil {
		return ""
	}

	return country.Name.BaseLang.Common
}
