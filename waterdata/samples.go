// Package waterdata loads and assembles the water-sample dataset: field
// samples, auxiliary population and land-use tables, wastewater facility
// locations, and the hydrography reference metadata.
package waterdata

import (
	"github.com/clearwaterlab/microplastics/dataframe"
	"github.com/clearwaterlab/microplastics/pkg/log"
)

// Column names of the sample table. Identifier columns are dropped before
// modeling; everything else is a candidate predictor or the outcome.
const (
	ColSiteID        = "site_id"
	ColLatitude      = "latitude"
	ColLongitude     = "longitude"
	ColSampleDate    = "sample_date"
	ColZip           = "zip"
	ColTract         = "tract_fips"
	ColConcentration = "particles_per_liter"
	ColVisualScore   = "visual_score"
	ColTurbidity     = "turbidity_ntu"
	ColTemperature   = "temperature_c"
	ColEColi         = "ecoli_cfu"
	ColFacilityDist  = "facility_distance_km"
	ColTractPop      = "tract_population"
	ColZipPop        = "zip_population"
)

// identifierColumns are dropped from the modeling frame. They identify
// rows and drive joins but carry no predictive meaning.
var identifierColumns = []string{
	ColSiteID, ColLatitude, ColLongitude, ColSampleDate, ColZip, ColTract,
}

// LoadSamples reads the field-sample CSV. Site, date, ZIP and tract load
// as strings; everything else as numeric with missing cells as NaN.
func LoadSamples(path string) (*dataframe.Frame, error) {
	frame, err := dataframe.ReadCSVFile(path, dataframe.ReadCSVOptions{
		StringColumns: []string{ColSiteID, ColSampleDate, ColZip, ColTract},
	})
	if err != nil {
		return nil, err
	}

	log.GetLoggerWithName("waterdata").Info("loaded samples",
		log.SamplesKey, frame.NumRows(),
	)
	return frame, nil
}

// LoadTractPopulation reads the census-tract population table keyed by
// tract FIPS code.
func LoadTractPopulation(path string) (*dataframe.Frame, error) {
	return dataframe.ReadCSVFile(path, dataframe.ReadCSVOptions{
		StringColumns: []string{ColTract},
	})
}

// LoadLandUse reads the land-use proportion table keyed by tract FIPS
// code. Columns other than the key are proportions in [0, 1].
func LoadLandUse(path string) (*dataframe.Frame, error) {
	return dataframe.ReadCSVFile(path, dataframe.ReadCSVOptions{
		StringColumns: []string{ColTract},
	})
}
