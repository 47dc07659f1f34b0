package datetime

import (
	"math"

	"github.com/bradfitz/latlong"
	"github.com/golang/geo/s2"
)

// maxNearestCityDistance is ~100km in radians on the unit sphere. Beyond it
// the nearest gazetteer city says nothing useful about the local timezone.
const maxNearestCityDistance = 0.0157

// TimezoneLookup derives an IANA timezone from coordinates: the timezone
// boundary table first, then the nearest gazetteer city's zone for points
// the table doesn't cover (coastal waters, sparse polygons).
type TimezoneLookup struct {
	store *GazetteerStore
}

// NewTimezoneLookup binds a lookup to a gazetteer store.
func NewTimezoneLookup(store *GazetteerStore) *TimezoneLookup {
	return &TimezoneLookup{store: store}
}

// ZoneAt returns the timezone identifier at the given point, or empty string
// when neither the boundary table nor the gazetteer can place it.
func (t *TimezoneLookup) ZoneAt(lat, lng float64) string {
	if math.IsNaN(lat) || math.IsNaN(lng) ||
		math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return ""
	}

	if zone := latlong.LookupZoneName(lat, lng); zone != "" {
		return zone
	}
	return t.nearestCityZone(lat, lng)
}

// nearestCityZone scans the S2 cell containing the point plus its neighbors
// and returns the closest city's timezone.
func (t *TimezoneLookup) nearestCityZone(lat, lng float64) string {
	if t.store == nil {
		return ""
	}

	queryLL := s2.LatLngFromDegrees(lat, lng)
	queryCell := s2.CellIDFromLatLng(queryLL).Parent(s2CellLevel)

	bestDist := math.MaxFloat64
	bestIdx := -1

	for _, cell := range t.store.cellAndNeighbors(queryCell) {
		indices, ok := t.store.cellIndex[cell]
		if !ok {
			continue
		}
		for _, idx := range indices {
			city := t.store.cities[idx]
			cityLL := s2.LatLngFromDegrees(float64(city.Latitude), float64(city.Longitude))
			dist := float64(queryLL.Distance(cityLL))
			if dist < bestDist {
				bestDist = dist
				bestIdx = idx
			}
		}
	}

	if bestIdx < 0 || bestDist > maxNearestCityDistance {
		return ""
	}
	return t.store.cities[bestIdx].Timezone()
}
