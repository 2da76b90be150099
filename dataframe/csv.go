package dataframe

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/clearwaterlab/microplastics/pkg/errors"
)

// ReadCSVOptions controls how a CSV file is mapped onto a frame.
type ReadCSVOptions struct {
	// StringColumns names header columns to load as string (categorical or
	// join-key) columns. Everything else is parsed as float64.
	StringColumns []string

	// Comma overrides the field delimiter. Zero means ','.
	Comma rune
}

// ReadCSV loads a header-first CSV stream into a frame. Numeric cells that
// are empty or fail to parse become NaN and raise a DataConversionWarning.
func ReadCSV(r io.Reader, opts ReadCSVOptions) (*Frame, error) {
	reader := csv.NewReader(r)
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV header")
	}

	stringSet := make(map[string]bool, len(opts.StringColumns))
	for _, name := range opts.StringColumns {
		stringSet[name] = true
	}

	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	numericData := make(map[int][]float64)
	stringData := make(map[int][]string)
	for i, name := range header {
		if stringSet[name] {
			stringData[i] = nil
		} else {
			numericData[i] = nil
		}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to read CSV record")
		}

		for i, cell := range record {
			cell = strings.TrimSpace(cell)
			if _, ok := stringData[i]; ok {
				stringData[i] = append(stringData[i], cell)
				continue
			}

			if cell == "" || strings.EqualFold(cell, "na") || strings.EqualFold(cell, "nan") {
				numericData[i] = append(numericData[i], math.NaN())
				continue
			}

			v, perr := strconv.ParseFloat(cell, 64)
			if perr != nil {
				errors.Warn(errors.NewDataConversionWarning(
					"string", "float64",
					"unparseable cell "+strconv.Quote(cell)+" in column "+header[i]+" coerced to NaN"))
				v = math.NaN()
			}
			numericData[i] = append(numericData[i], v)
		}
	}

	frame := New()
	for i, name := range header {
		if col, ok := stringData[i]; ok {
			if err := frame.AddString(name, col); err != nil {
				return nil, err
			}
		} else {
			if err := frame.AddNumeric(name, numericData[i]); err != nil {
				return nil, err
			}
		}
	}

	return frame, nil
}

// ReadCSVFile opens path and loads it with ReadCSV.
func ReadCSVFile(path string, opts ReadCSVOptions) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open CSV file %s", path)
	}
	defer file.Close()

	return ReadCSV(file, opts)
}
