// Package dataframe implements the column-named tabular data structure the
// pipeline runs on. A Frame holds float64 columns for measurements and
// string columns for categorical variables and join keys; missing numeric
// cells are represented as NaN.
package dataframe

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/clearwaterlab/microplastics/pkg/errors"
)

// Frame is a column-oriented table. Column order is preserved from
// construction so matrix conversion is deterministic.
type Frame struct {
	numericOrder []string
	numeric      map[string][]float64
	stringOrder  []string
	strings      map[string][]string
	nrows        int
}

// New creates an empty frame with zero rows.
func New() *Frame {
	return &Frame{
		numeric: make(map[string][]float64),
		strings: make(map[string][]string),
	}
}

// NumRows returns the number of rows.
func (f *Frame) NumRows() int {
	return f.nrows
}

// NumericColumns returns the numeric column names in order.
func (f *Frame) NumericColumns() []string {
	out := make([]string, len(f.numericOrder))
	copy(out, f.numericOrder)
	return out
}

// StringColumns returns the string column names in order.
func (f *Frame) StringColumns() []string {
	out := make([]string, len(f.stringOrder))
	copy(out, f.stringOrder)
	return out
}

// HasColumn reports whether the frame has a column of either kind.
func (f *Frame) HasColumn(name string) bool {
	_, numOK := f.numeric[name]
	_, strOK := f.strings[name]
	return numOK || strOK
}

// AddNumeric appends a numeric column. The first column added fixes the row
// count; later columns must match it.
func (f *Frame) AddNumeric(name string, values []float64) error {
	if f.HasColumn(name) {
		return errors.NewValueError("Frame.AddNumeric", "duplicate column "+name)
	}
	if len(f.numericOrder)+len(f.stringOrder) == 0 {
		f.nrows = len(values)
	} else if len(values) != f.nrows {
		return errors.NewDimensionError("Frame.AddNumeric", f.nrows, len(values), 0)
	}

	col := make([]float64, len(values))
	copy(col, values)
	f.numeric[name] = col
	f.numericOrder = append(f.numericOrder, name)
	return nil
}

// AddString appends a string column.
func (f *Frame) AddString(name string, values []string) error {
	if f.HasColumn(name) {
		return errors.NewValueError("Frame.AddString", "duplicate column "+name)
	}
	if len(f.numericOrder)+len(f.stringOrder) == 0 {
		f.nrows = len(values)
	} else if len(values) != f.nrows {
		return errors.NewDimensionError("Frame.AddString", f.nrows, len(values), 0)
	}

	col := make([]string, len(values))
	copy(col, values)
	f.strings[name] = col
	f.stringOrder = append(f.stringOrder, name)
	return nil
}

// Numeric returns the values of a numeric column.
func (f *Frame) Numeric(name string) ([]float64, error) {
	col, ok := f.numeric[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrMissingColumn, "numeric column %q", name)
	}
	out := make([]float64, len(col))
	copy(out, col)
	return out, nil
}

// Strings returns the values of a string column.
func (f *Frame) Strings(name string) ([]string, error) {
	col, ok := f.strings[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrMissingColumn, "string column %q", name)
	}
	out := make([]string, len(col))
	copy(out, col)
	return out, nil
}

// Drop returns a new frame without the named columns. Identifier columns
// (site, coordinates, date) are removed this way before modeling. Naming a
// column the frame does not have is an error.
func (f *Frame) Drop(names ...string) (*Frame, error) {
	dropSet := make(map[string]bool, len(names))
	for _, n := range names {
		if !f.HasColumn(n) {
			return nil, errors.Wrapf(errors.ErrMissingColumn, "cannot drop %q", n)
		}
		dropSet[n] = true
	}

	out := New()
	for _, name := range f.numericOrder {
		if dropSet[name] {
			continue
		}
		if err := out.AddNumeric(name, f.numeric[name]); err != nil {
			return nil, err
		}
	}
	for _, name := range f.stringOrder {
		if dropSet[name] {
			continue
		}
		if err := out.AddString(name, f.strings[name]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// RowsWithNA returns the indices of rows holding at least one NaN numeric
// cell or empty string cell, in ascending order.
func (f *Frame) RowsWithNA() []int {
	bad := make(map[int]bool)
	for _, name := range f.numericOrder {
		for i, v := range f.numeric[name] {
			if math.IsNaN(v) {
				bad[i] = true
			}
		}
	}
	for _, name := range f.stringOrder {
		for i, v := range f.strings[name] {
			if v == "" {
				bad[i] = true
			}
		}
	}

	out := make([]int, 0, len(bad))
	for i := range bad {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// DropNA returns a new frame with all incomplete rows removed, along with
// the number of rows dropped.
func (f *Frame) DropNA() (*Frame, int, error) {
	bad := f.RowsWithNA()
	if len(bad) == 0 {
		return f, 0, nil
	}

	badSet := make(map[int]bool, len(bad))
	for _, i := range bad {
		badSet[i] = true
	}

	keep := make([]int, 0, f.nrows-len(bad))
	for i := 0; i < f.nrows; i++ {
		if !badSet[i] {
			keep = append(keep, i)
		}
	}

	out, err := f.Subset(keep)
	if err != nil {
		return nil, 0, err
	}
	return out, len(bad), nil
}

// Subset returns a new frame holding the given rows in the given order.
// Out-of-range indices are reported as stale-fold errors: the usual cause is
// a fold object built before rows were dropped for missing values.
func (f *Frame) Subset(indices []int) (*Frame, error) {
	for _, idx := range indices {
		if idx < 0 || idx >= f.nrows {
			return nil, errors.Wrapf(errors.ErrStaleFolds,
				"row index %d out of range [0, %d)", idx, f.nrows)
		}
	}

	out := New()
	for _, name := range f.numericOrder {
		src := f.numeric[name]
		col := make([]float64, len(indices))
		for i, idx := range indices {
			col[i] = src[idx]
		}
		if err := out.AddNumeric(name, col); err != nil {
			return nil, err
		}
	}
	for _, name := range f.stringOrder {
		src := f.strings[name]
		col := make([]string, len(indices))
		for i, idx := range indices {
			col[i] = src[idx]
		}
		if err := out.AddString(name, col); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// LeftJoin joins other onto f by matching the key column (a string column in
// both frames). Rows of f without a match keep NaN / empty cells for the
// joined columns. Duplicate keys in other are an error; join keys are
// expected to be unique in the auxiliary tables.
func (f *Frame) LeftJoin(other *Frame, key string) (*Frame, error) {
	leftKeys, err := f.Strings(key)
	if err != nil {
		return nil, errors.Wrap(err, "left join key")
	}
	rightKeys, err := other.Strings(key)
	if err != nil {
		return nil, errors.Wrap(err, "right join key")
	}

	lookup := make(map[string]int, len(rightKeys))
	for i, k := range rightKeys {
		if _, dup := lookup[k]; dup {
			return nil, errors.NewValueError("Frame.LeftJoin", "duplicate join key "+k)
		}
		lookup[k] = i
	}

	out := New()
	for _, name := range f.numericOrder {
		if err := out.AddNumeric(name, f.numeric[name]); err != nil {
			return nil, err
		}
	}
	for _, name := range f.stringOrder {
		if err := out.AddString(name, f.strings[name]); err != nil {
			return nil, err
		}
	}

	for _, name := range other.numericOrder {
		if out.HasColumn(name) {
			continue // key column or overlapping name stays from the left side
		}
		src := other.numeric[name]
		col := make([]float64, f.nrows)
		for i, k := range leftKeys {
			if j, ok := lookup[k]; ok {
				col[i] = src[j]
			} else {
				col[i] = math.NaN()
			}
		}
		if err := out.AddNumeric(name, col); err != nil {
			return nil, err
		}
	}
	for _, name := range other.stringOrder {
		if out.HasColumn(name) {
			continue
		}
		src := other.strings[name]
		col := make([]string, f.nrows)
		for i, k := range leftKeys {
			if j, ok := lookup[k]; ok {
				col[i] = src[j]
			}
		}
		if err := out.AddString(name, col); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// Matrix converts the frame into the (X, y) pair the estimators consume.
// The target column becomes y; every other numeric column becomes a feature
// column of X in frame order. String columns must already be dummy-encoded.
func (f *Frame) Matrix(target string) (*mat.Dense, *mat.VecDense, []string, error) {
	yCol, ok := f.numeric[target]
	if !ok {
		return nil, nil, nil, errors.Wrapf(errors.ErrMissingColumn, "target %q", target)
	}
	if len(f.stringOrder) > 0 {
		return nil, nil, nil, errors.NewValueError("Frame.Matrix",
			"string columns remain; dummy-encode categorical variables first")
	}

	features := make([]string, 0, len(f.numericOrder)-1)
	for _, name := range f.numericOrder {
		if name != target {
			features = append(features, name)
		}
	}
	if len(features) == 0 {
		return nil, nil, nil, errors.NewValueError("Frame.Matrix", "no feature columns")
	}

	X := mat.NewDense(f.nrows, len(features), nil)
	for j, name := range features {
		col := f.numeric[name]
		for i := 0; i < f.nrows; i++ {
			X.Set(i, j, col[i])
		}
	}

	y := mat.NewVecDense(f.nrows, nil)
	for i, v := range yCol {
		y.SetVec(i, v)
	}

	return X, y, features, nil
}
