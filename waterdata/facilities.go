package waterdata

import (
	"math"
	"strconv"

	"github.com/clearwaterlab/microplastics/dataframe"
	"github.com/clearwaterlab/microplastics/pkg/errors"
)

// Facility is a wastewater reclamation facility location.
type Facility struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// LoadFacilities reads the facility coordinate CSV (name, latitude,
// longitude).
func LoadFacilities(path string) ([]Facility, error) {
	frame, err := dataframe.ReadCSVFile(path, dataframe.ReadCSVOptions{
		StringColumns: []string{"name"},
	})
	if err != nil {
		return nil, err
	}

	names, err := frame.Strings("name")
	if err != nil {
		return nil, err
	}
	lats, err := frame.Numeric("latitude")
	if err != nil {
		return nil, err
	}
	lons, err := frame.Numeric("longitude")
	if err != nil {
		return nil, err
	}

	facilities := make([]Facility, len(names))
	for i := range names {
		if math.IsNaN(lats[i]) || math.IsNaN(lons[i]) {
			return nil, errors.NewValueError("LoadFacilities",
				"facility "+strconv.Itoa(i)+" has missing coordinates")
		}
		facilities[i] = Facility{
			Name:      names[i],
			Latitude:  lats[i],
			Longitude: lons[i],
		}
	}
	return facilities, nil
}

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometers between two
// latitude/longitude points.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	rLat1 := lat1 * math.Pi / 180
	rLat2 := lat2 * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// NearestFacilityKm returns the distance from a point to the closest
// facility.
func NearestFacilityKm(lat, lon float64, facilities []Facility) (float64, error) {
	if len(facilities) == 0 {
		return 0, errors.Wrap(errors.ErrEmptyData, "NearestFacilityKm")
	}

	best := math.Inf(1)
	for _, fac := range facilities {
		d := HaversineKm(lat, lon, fac.Latitude, fac.Longitude)
		if d < best {
			best = d
		}
	}
	return best, nil
}

// AddFacilityDistance computes each sample's distance to the nearest
// facility from its coordinates and appends it as a numeric column.
// Samples with missing coordinates get NaN.
func AddFacilityDistance(frame *dataframe.Frame, facilities []Facility) error {
	if len(facilities) == 0 {
		return errors.Wrap(errors.ErrEmptyData, "AddFacilityDistance")
	}

	lats, err := frame.Numeric(ColLatitude)
	if err != nil {
		return err
	}
	lons, err := frame.Numeric(ColLongitude)
	if err != nil {
		return err
	}

	distances := make([]float64, frame.NumRows())
	for i := range distances {
		if math.IsNaN(lats[i]) || math.IsNaN(lons[i]) {
			distances[i] = math.NaN()
			continue
		}
		d, err := NearestFacilityKm(lats[i], lons[i], facilities)
		if err != nil {
			return err
		}
		distances[i] = d
	}

	return frame.AddNumeric(ColFacilityDist, distances)
}
