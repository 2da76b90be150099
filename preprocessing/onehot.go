package preprocessing

import (
	"sort"

	"github.com/clearwaterlab/microplastics/core/model"
	"github.com/clearwaterlab/microplastics/dataframe"
	"github.com/clearwaterlab/microplastics/pkg/errors"
)

// OneHotEncoder dummy-encodes the string columns of a frame into 0/1 numeric
// columns. With DropFirst the lexicographically first level of each column
// is omitted, which keeps the design matrix full-rank for linear models.
//
// The encoder is fitted on the training split only; transforming a frame
// that contains a level unseen at fit time is an error.
type OneHotEncoder struct {
	model.BaseEstimator

	// DropFirst omits the first level of every encoded column.
	DropFirst bool

	// columns maps each encoded column to its sorted levels.
	columns map[string][]string

	// order preserves the fit-time column order for deterministic output.
	order []string
}

// NewOneHotEncoder creates an encoder. dropFirst should be true for linear
// and LASSO designs and is harmless for trees.
func NewOneHotEncoder(dropFirst bool) *OneHotEncoder {
	return &OneHotEncoder{
		DropFirst: dropFirst,
		columns:   make(map[string][]string),
	}
}

// Fit learns the category levels of every string column in the frame.
func (e *OneHotEncoder) Fit(f *dataframe.Frame) error {
	cols := f.StringColumns()
	if len(cols) == 0 {
		// Nothing categorical to encode; Transform becomes the identity.
		e.order = nil
		e.columns = make(map[string][]string)
		e.SetFitted()
		return nil
	}

	e.order = cols
	e.columns = make(map[string][]string, len(cols))

	for _, name := range cols {
		values, err := f.Strings(name)
		if err != nil {
			return err
		}

		seen := make(map[string]bool)
		for _, v := range values {
			seen[v] = true
		}

		levels := make([]string, 0, len(seen))
		for v := range seen {
			levels = append(levels, v)
		}
		sort.Strings(levels)

		if len(levels) < 2 {
			return errors.NewValueError("OneHotEncoder.Fit",
				"column "+name+" has fewer than 2 levels")
		}
		e.columns[name] = levels
	}

	e.SetFitted()
	return nil
}

// Transform returns a new frame where every fitted string column is replaced
// by its dummy columns, named column_level.
func (e *OneHotEncoder) Transform(f *dataframe.Frame) (*dataframe.Frame, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("OneHotEncoder", "Transform")
	}

	out, err := f.Drop(e.order...)
	if err != nil {
		return nil, errors.Wrap(err, "OneHotEncoder.Transform")
	}

	for _, name := range e.order {
		values, err := f.Strings(name)
		if err != nil {
			return nil, err
		}

		levels := e.columns[name]
		levelIdx := make(map[string]int, len(levels))
		for i, l := range levels {
			levelIdx[l] = i
		}

		for _, v := range values {
			if _, ok := levelIdx[v]; !ok {
				return nil, errors.NewValueError("OneHotEncoder.Transform",
					"unseen level "+v+" in column "+name)
			}
		}

		start := 0
		if e.DropFirst {
			start = 1
		}

		for li := start; li < len(levels); li++ {
			level := levels[li]
			dummy := make([]float64, len(values))
			for i, v := range values {
				if v == level {
					dummy[i] = 1.0
				}
			}
			if err := out.AddNumeric(name+"_"+level, dummy); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

// FitTransform fits on f and returns the encoded frame.
func (e *OneHotEncoder) FitTransform(f *dataframe.Frame) (*dataframe.Frame, error) {
	if err := e.Fit(f); err != nil {
		return nil, err
	}
	return e.Transform(f)
}

// EncodedColumns returns the dummy column names produced for the fitted
// frame, in output order.
func (e *OneHotEncoder) EncodedColumns() []string {
	var out []string
	for _, name := range e.order {
		start := 0
		if e.DropFirst {
			start = 1
		}
		for _, level := range e.columns[name][start:] {
			out = append(out, name+"_"+level)
		}
	}
	return out
}
