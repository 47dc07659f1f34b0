package datetime

import "sync"

// zoneAliases maps colloquial timezone names to IANA identifiers. This is
// the localized alias layer: entries here are spoken forms that neither the
// zone database nor the gazetteer would match directly.
var zoneAliases = map[string]string{
	"china":           "Asia/Shanghai",
	"hawaii":          "Pacific/Honolulu",
	"alaska":          "America/Anchorage",
	"utc":             "UTC",
	"gmt":             "Etc/GMT",
	"zulu":            "Etc/UTC",
	"eastern time":    "America/New_York",
	"eastern":         "America/New_York",
	"central time":    "America/Chicago",
	"central":         "America/Chicago",
	"mountain time":   "America/Denver",
	"mountain":        "America/Denver",
	"pacific time":    "America/Los_Angeles",
	"pacific":         "America/Los_Angeles",
	"est":             "America/New_York",
	"edt":             "America/New_York",
	"cst":             "America/Chicago",
	"cdt":             "America/Chicago",
	"mst":             "America/Denver",
	"mdt":             "America/Denver",
	"pst":             "America/Los_Angeles",
	"pdt":             "America/Los_Angeles",
	"bst":             "Europe/London",
	"cet":             "Europe/Paris",
	"silicon valley":  "America/Los_Angeles",
	"bay area":        "America/Los_Angeles",
	"new england":     "America/New_York",
	"the west coast":  "America/Los_Angeles",
	"the east coast":  "America/New_York",
	"west coast":      "America/Los_Angeles",
	"east coast":      "America/New_York",
}

var zoneAliasIdx map[string]string
var zoneAliasOnce sync.Once

// aliasZone looks up a colloquial name in the alias table. Matching is a
// case-insensitive exact match on the normalized form.
func aliasZone(name string) (string, bool) {
	zoneAliasOnce.Do(func() {
		zoneAliasIdx = make(map[string]string, len(zoneAliases))
		for alias, zone := range zoneAliases {
			zoneAliasIdx[normalizeKey(alias)] = zone
		}
	})
	zone, ok := zoneAliasIdx[normalizeKey(name)]
	return zone, ok
}
