package waterdata

import (
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/clearwaterlab/microplastics/dataframe"
	"github.com/clearwaterlab/microplastics/pkg/errors"
)

// ReadZipPopulation reads the ZIP-code population workbook. The sheet is
// expected to have a header row with "zip" and "population" columns;
// unparseable population cells become NaN with a conversion warning so
// the usual missing-value handling applies downstream.
func ReadZipPopulation(path, sheet string) (*dataframe.Frame, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening workbook %s", path)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "reading sheet %s", sheet)
	}
	if len(rows) < 2 {
		return nil, errors.Wrapf(errors.ErrEmptyData, "sheet %s", sheet)
	}

	zipCol, popCol := -1, -1
	for i, name := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "zip", "zipcode", "zip_code":
			zipCol = i
		case "population", "pop":
			popCol = i
		}
	}
	if zipCol < 0 || popCol < 0 {
		return nil, errors.NewValueError("ReadZipPopulation",
			"sheet must have zip and population columns")
	}

	zips := make([]string, 0, len(rows)-1)
	pops := make([]float64, 0, len(rows)-1)
	for rowIdx, row := range rows[1:] {
		if zipCol >= len(row) || strings.TrimSpace(row[zipCol]) == "" {
			continue
		}
		zips = append(zips, strings.TrimSpace(row[zipCol]))

		var pop float64 = math.NaN()
		if popCol < len(row) {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[popCol]), 64)
			if err == nil {
				pop = v
			} else {
				errors.Warn(errors.NewDataConversionWarning(
					"string", "float64",
					"population cell in row "+strconv.Itoa(rowIdx+2)+" is not numeric"))
			}
		}
		pops = append(pops, pop)
	}

	frame := dataframe.New()
	if err := frame.AddString(ColZip, zips); err != nil {
		return nil, err
	}
	if err := frame.AddNumeric(ColZipPop, pops); err != nil {
		return nil, err
	}
	return frame, nil
}
