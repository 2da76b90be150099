package waterdata

import (
	"github.com/clearwaterlab/microplastics/dataframe"
	"github.com/clearwaterlab/microplastics/pkg/errors"
	"github.com/clearwaterlab/microplastics/pkg/log"
)

// AuxTables holds the auxiliary reference tables joined onto samples.
type AuxTables struct {
	Facilities []Facility

	// TractPopulation is keyed by tract FIPS code.
	TractPopulation *dataframe.Frame

	// LandUse is keyed by tract FIPS code.
	LandUse *dataframe.Frame

	// ZipPopulation is keyed by ZIP code, read from the census workbook.
	ZipPopulation *dataframe.Frame
}

// PrepareModelingFrame assembles the modeling table: computes facility
// distances from coordinates, joins the population and land-use tables,
// drops identifier columns, and removes rows with missing values. The
// returned frame has the outcome plus numeric and categorical predictors
// only.
func PrepareModelingFrame(samples *dataframe.Frame, aux AuxTables) (*dataframe.Frame, error) {
	if samples == nil || samples.NumRows() == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "PrepareModelingFrame")
	}

	logger := log.GetLoggerWithName("waterdata")

	frame := samples
	var err error

	if len(aux.Facilities) > 0 {
		if err = AddFacilityDistance(frame, aux.Facilities); err != nil {
			return nil, errors.Wrap(err, "computing facility distances")
		}
	}

	if aux.TractPopulation != nil {
		frame, err = frame.LeftJoin(aux.TractPopulation, ColTract)
		if err != nil {
			return nil, errors.Wrap(err, "joining tract population")
		}
	}

	if aux.LandUse != nil {
		frame, err = frame.LeftJoin(aux.LandUse, ColTract)
		if err != nil {
			return nil, errors.Wrap(err, "joining land use")
		}
	}

	if aux.ZipPopulation != nil {
		frame, err = frame.LeftJoin(aux.ZipPopulation, ColZip)
		if err != nil {
			return nil, errors.Wrap(err, "joining zip population")
		}
	}

	var drop []string
	for _, col := range identifierColumns {
		if frame.HasColumn(col) {
			drop = append(drop, col)
		}
	}
	if len(drop) > 0 {
		frame, err = frame.Drop(drop...)
		if err != nil {
			return nil, errors.Wrap(err, "dropping identifier columns")
		}
	}

	frame, dropped, err := frame.DropNA()
	if err != nil {
		return nil, errors.Wrap(err, "removing incomplete rows")
	}
	if dropped > 0 {
		logger.Warn("dropped rows with missing values",
			log.SamplesKey, dropped,
		)
	}

	if !frame.HasColumn(ColConcentration) {
		return nil, errors.Wrap(errors.ErrMissingColumn, ColConcentration)
	}

	logger.Info("modeling frame ready",
		log.SamplesKey, frame.NumRows(),
		log.FeaturesKey, len(frame.NumericColumns())+len(frame.StringColumns())-1,
	)

	return frame, nil
}
