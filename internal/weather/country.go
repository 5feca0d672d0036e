package weather

var alpha3Codes = map[string]string{
	"US": "USA",
	"IN": "IND",
	"GB": "GBR",
	"FR": "FRA",
	"DE": "DEU",
	"IT": "ITA",
	"ES": "ESP",
	"CN": "CHN",
	"JP": "JPN",
	"CA": "CAN",
	"AU": "AUS",
	"BR": "BRA",
	"RU": "RUS",
	"MX": "MEX",
	"ZA": "ZAF",
	"KR": "KOR",
	"AE": "ARE",
	"SA": "SAU",
	"AR": "ARG",
}

// Alpha3 converts a two-letter country code to its three-letter form.
// Unknown and empty codes are returned unchanged.
func Alpha3(alpha2 string) string {
	if code, ok := alpha3Codes[alpha2]; ok {
		return code
	}
	return alpha2
}
