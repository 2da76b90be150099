// Package crossval provides train/test splitting, repeated k-fold
// cross-validation, and grid search for the concentration models.
package crossval

import (
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/clearwaterlab/microplastics/pkg/errors"
)

// Splitter defines the interface for cross-validation splitters.
type Splitter interface {
	Split(X, y mat.Matrix) []CVFold
	GetNSplits() int
}

// CVFold represents a single fold in cross-validation.
type CVFold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold implements a k-fold cross-validation splitter.
type KFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int
}

// NewKFold creates a new k-fold splitter.
func NewKFold(nSplits int, shuffle bool, randomSeed int) *KFold {
	if nSplits < 2 {
		nSplits = 10
	}
	return &KFold{
		NSplits:    nSplits,
		Shuffle:    shuffle,
		RandomSeed: randomSeed,
	}
}

// GetNSplits returns the number of splits.
func (kf *KFold) GetNSplits() int {
	return kf.NSplits
}

// Split generates train/test indices for each fold.
func (kf *KFold) Split(X, _ mat.Matrix) []CVFold {
	nSamples, _ := X.Dims()

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}

	if kf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(kf.RandomSeed), uint64(kf.RandomSeed)))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]CVFold, kf.NSplits)
	foldSize := nSamples / kf.NSplits
	remainder := nSamples % kf.NSplits

	currentIdx := 0
	for i := 0; i < kf.NSplits; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}

		testIndices := make([]int, testSize)
		copy(testIndices, indices[currentIdx:currentIdx+testSize])

		trainIndices := make([]int, 0, nSamples-testSize)
		trainIndices = append(trainIndices, indices[:currentIdx]...)
		trainIndices = append(trainIndices, indices[currentIdx+testSize:]...)

		folds[i] = CVFold{
			TrainIndices: trainIndices,
			TestIndices:  testIndices,
		}

		currentIdx += testSize
	}

	return folds
}

// RepeatedKFold repeats k-fold splitting with a different shuffle each
// repeat, giving NSplits*NRepeats folds total.
type RepeatedKFold struct {
	NSplits    int
	NRepeats   int
	RandomSeed int
}

// NewRepeatedKFold creates a repeated k-fold splitter.
func NewRepeatedKFold(nSplits, nRepeats, randomSeed int) *RepeatedKFold {
	if nSplits < 2 {
		nSplits = 10
	}
	if nRepeats < 1 {
		nRepeats = 1
	}
	return &RepeatedKFold{
		NSplits:    nSplits,
		NRepeats:   nRepeats,
		RandomSeed: randomSeed,
	}
}

// GetNSplits returns the total number of folds across all repeats.
func (rkf *RepeatedKFold) GetNSplits() int {
	return rkf.NSplits * rkf.NRepeats
}

// Split generates NSplits folds per repeat. Each repeat reshuffles with
// a seed derived from the base seed, so the full set of folds is
// reproducible.
func (rkf *RepeatedKFold) Split(X, y mat.Matrix) []CVFold {
	folds := make([]CVFold, 0, rkf.GetNSplits())
	for rep := 0; rep < rkf.NRepeats; rep++ {
		kf := NewKFold(rkf.NSplits, true, rkf.RandomSeed+rep)
		folds = append(folds, kf.Split(X, y)...)
	}
	return folds
}

// TrainTestSplit splits row indices into train and test sets, stratified
// on a continuous outcome. Rows are ranked by outcome and divided into
// quantile bins; each bin is split at testSize independently so the two
// sets cover the outcome's range evenly.
func TrainTestSplit(y []float64, testSize float64, nBins, randomSeed int) (trainIdx, testIdx []int, err error) {
	n := len(y)
	if n == 0 {
		return nil, nil, errors.Wrap(errors.ErrEmptyData, "TrainTestSplit")
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, errors.NewValidationError("test_size", "must be in (0, 1)", testSize)
	}
	if nBins < 1 {
		nBins = 4
	}
	if nBins > n {
		nBins = n
	}

	// Rank rows by outcome, then cut the ranking into quantile bins.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return y[order[a]] < y[order[b]]
	})

	r := rand.New(rand.NewPCG(uint64(randomSeed), uint64(randomSeed)))

	binSize := n / nBins
	remainder := n % nBins

	start := 0
	for b := 0; b < nBins; b++ {
		size := binSize
		if b < remainder {
			size++
		}

		bin := make([]int, size)
		copy(bin, order[start:start+size])
		start += size

		r.Shuffle(len(bin), func(i, j int) {
			bin[i], bin[j] = bin[j], bin[i]
		})

		nTest := int(float64(size)*testSize + 0.5)
		if nTest >= size {
			nTest = size - 1
		}

		testIdx = append(testIdx, bin[:nTest]...)
		trainIdx = append(trainIdx, bin[nTest:]...)
	}

	sort.Ints(trainIdx)
	sort.Ints(testIdx)
	return trainIdx, testIdx, nil
}
