package dataframe

import (
	"encoding/gob"
	"os"
	"path/filepath"

	"github.com/clearwaterlab/microplastics/pkg/errors"
)

// frameGob is the serialized form of a Frame. Prepared frames are cached on
// disk between runs so the join and cleanup work is done once per dataset.
type frameGob struct {
	NumericOrder []string
	Numeric      map[string][]float64
	StringOrder  []string
	Strings      map[string][]string
	NRows        int
}

// SaveCache writes the frame to path, creating parent directories as needed.
func (f *Frame) SaveCache(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create cache directory for %s", path)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create cache file %s", path)
	}
	defer file.Close()

	snapshot := frameGob{
		NumericOrder: f.numericOrder,
		Numeric:      f.numeric,
		StringOrder:  f.stringOrder,
		Strings:      f.strings,
		NRows:        f.nrows,
	}

	if err := gob.NewEncoder(file).Encode(&snapshot); err != nil {
		return errors.Wrapf(err, "failed to encode frame cache %s", path)
	}
	return nil
}

// LoadCache reads a frame previously written by SaveCache.
func LoadCache(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open cache file %s", path)
	}
	defer file.Close()

	var snapshot frameGob
	if err := gob.NewDecoder(file).Decode(&snapshot); err != nil {
		return nil, errors.Wrapf(err, "failed to decode frame cache %s", path)
	}

	frame := &Frame{
		numericOrder: snapshot.NumericOrder,
		numeric:      snapshot.Numeric,
		stringOrder:  snapshot.StringOrder,
		strings:      snapshot.Strings,
		nrows:        snapshot.NRows,
	}
	if frame.numeric == nil {
		frame.numeric = make(map[string][]float64)
	}
	if frame.strings == nil {
		frame.strings = make(map[string][]string)
	}
	return frame, nil
}
