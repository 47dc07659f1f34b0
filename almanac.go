package datetime

import "sync"

// almanacPlaces is the curated almanac of well-known cities and their
// timezones, checked before any gazetteer or remote lookup. It mirrors the
// city set a solar almanac ships with: capitals and major metros only.
var almanacPlaces = map[string]string{
	"abu dhabi":        "Asia/Dubai",
	"accra":            "Africa/Accra",
	"addis ababa":      "Africa/Addis_Ababa",
	"amsterdam":        "Europe/Amsterdam",
	"anchorage":        "America/Anchorage",
	"ankara":           "Europe/Istanbul",
	"athens":           "Europe/Athens",
	"atlanta":          "America/New_York",
	"auckland":         "Pacific/Auckland",
	"baghdad":          "Asia/Baghdad",
	"bangkok":          "Asia/Bangkok",
	"barcelona":        "Europe/Madrid",
	"beijing":          "Asia/Shanghai",
	"berlin":           "Europe/Berlin",
	"bogota":           "America/Bogota",
	"boston":           "America/New_York",
	"brasilia":         "America/Sao_Paulo",
	"brussels":         "Europe/Brussels",
	"bucharest":        "Europe/Bucharest",
	"budapest":         "Europe/Budapest",
	"buenos aires":     "America/Argentina/Buenos_Aires",
	"cairo":            "Africa/Cairo",
	"calgary":          "America/Edmonton",
	"cape town":        "Africa/Johannesburg",
	"caracas":          "America/Caracas",
	"chicago":          "America/Chicago",
	"copenhagen":       "Europe/Copenhagen",
	"dallas":           "America/Chicago",
	"delhi":            "Asia/Kolkata",
	"denver":           "America/Denver",
	"detroit":          "America/Detroit",
	"dubai":            "Asia/Dubai",
	"dublin":           "Europe/Dublin",
	"edinburgh":        "Europe/London",
	"frankfurt":        "Europe/Berlin",
	"geneva":           "Europe/Zurich",
	"hanoi":            "Asia/Ho_Chi_Minh",
	"havana":           "America/Havana",
	"helsinki":         "Europe/Helsinki",
	"hong kong":        "Asia/Hong_Kong",
	"honolulu":         "Pacific/Honolulu",
	"houston":          "America/Chicago",
	"istanbul":         "Europe/Istanbul",
	"jakarta":          "Asia/Jakarta",
	"jerusalem":        "Asia/Jerusalem",
	"johannesburg":     "Africa/Johannesburg",
	"kiev":             "Europe/Kyiv",
	"kyiv":             "Europe/Kyiv",
	"kuala lumpur":     "Asia/Kuala_Lumpur",
	"lagos":            "Africa/Lagos",
	"lima":             "America/Lima",
	"lisbon":           "Europe/Lisbon",
	"london":           "Europe/London",
	"los angeles":      "America/Los_Angeles",
	"madrid":           "Europe/Madrid",
	"manila":           "Asia/Manila",
	"melbourne":        "Australia/Melbourne",
	"mexico city":      "America/Mexico_City",
	"miami":            "America/New_York",
	"milan":            "Europe/Rome",
	"montreal":         "America/Toronto",
	"moscow":           "Europe/Moscow",
	"mumbai":           "Asia/Kolkata",
	"munich":           "Europe/Berlin",
	"nairobi":          "Africa/Nairobi",
	"new delhi":        "Asia/Kolkata",
	"new york":         "America/New_York",
	"new york city":    "America/New_York",
	"oslo":             "Europe/Oslo",
	"ottawa":           "America/Toronto",
	"paris":            "Europe/Paris",
	"perth":            "Australia/Perth",
	"philadelphia":     "America/New_York",
	"phoenix":          "America/Phoenix",
	"prague":           "Europe/Prague",
	"reykjavik":        "Atlantic/Reykjavik",
	"rio de janeiro":   "America/Sao_Paulo",
	"riyadh":           "Asia/Riyadh",
	"rome":             "Europe/Rome",
	"san francisco":    "America/Los_Angeles",
	"santiago":         "America/Santiago",
	"sao paulo":        "America/Sao_Paulo",
	"seattle":          "America/Los_Angeles",
	"seoul":            "Asia/Seoul",
	"shanghai":         "Asia/Shanghai",
	"singapore":        "Asia/Singapore",
	"stockholm":        "Europe/Stockholm",
	"sydney":           "Australia/Sydney",
	"taipei":           "Asia/Taipei",
	"tehran":           "Asia/Tehran",
	"tel aviv":         "Asia/Tel_Aviv",
	"tokyo":            "Asia/Tokyo",
	"toronto":          "America/Toronto",
	"vancouver":        "America/Vancouver",
	"vienna":           "Europe/Vienna",
	"warsaw":           "Europe/Warsaw",
	"washington":       "America/New_York",
	"washington dc":    "America/New_York",
	"wellington":       "Pacific/Auckland",
	"zurich":           "Europe/Zurich",
}

var almanacIdx map[string]string
var almanacOnce sync.Once

// almanacZone looks up a place in the curated almanac table.
func almanacZone(name string) (string, bool) {
	almanacOnce.Do(func() {
		almanacIdx = make(map[string]string, len(almanacPlaces))
		for place, zone := range almanacPlaces {
			almanacIdx[normalizeKey(place)] = zone
		}
	})
	zone, ok := almanacIdx[normalizeKey(name)]
	return zone, ok
}
