package models

import (
	"fmt"
	"math"
)

// RegionKey bins coordinates into a 0.5°x0.5° cell (roughly 55 km at the
// equator). The cell size matches the native resolution of gridded weather
// providers, so validations aggregate across a meaningful area instead of
// over-fitting single points.
func RegionKey(lat, lon float64) string {
	cellLat := math.Floor(lat*2) / 2
	cellLon := math.Floor(lon*2) / 2
	return fmt.Sprintf("%.1f_%.1f", cellLat, cellLon)
}
