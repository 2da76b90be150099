// Package ensemble implements a random forest regressor built from
// bootstrap-sampled CART trees.
package ensemble

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/clearwaterlab/microplastics/core/model"
	"github.com/clearwaterlab/microplastics/core/parallel"
	"github.com/clearwaterlab/microplastics/pkg/errors"
	"github.com/clearwaterlab/microplastics/tree"
)

// RandomForestRegressor averages predictions from trees fit on bootstrap
// samples with random per-split feature subsets.
type RandomForestRegressor struct {
	model.BaseEstimator

	// NEstimators is the number of trees.
	NEstimators int

	// MaxDepth limits each tree's depth. Zero or negative means no limit.
	MaxDepth int

	// MinSamplesLeaf is the minimum number of samples per leaf.
	MinSamplesLeaf int

	// MaxFeatures is the number of features considered per split. Zero
	// means features/3, the usual regression default.
	MaxFeatures int

	// RandomState seeds bootstrap sampling and per-tree feature
	// subsampling. Identical seeds give identical forests.
	RandomState int

	Trees     []*tree.DecisionTreeRegressor
	NFeatures int

	importances []float64
}

// NewRandomForestRegressor creates a forest with the given options applied
// over the defaults (500 trees, leaf size 5).
func NewRandomForestRegressor(opts ...Option) *RandomForestRegressor {
	rf := &RandomForestRegressor{
		NEstimators:    500,
		MinSamplesLeaf: 5,
		RandomState:    42,
	}
	for _, opt := range opts {
		opt(rf)
	}
	return rf
}

// Fit trains the forest on X (samples × features) and y (samples × 1).
// Trees are independent, so they are fit in parallel; the bootstrap and
// feature-subset seeds are derived per tree so results do not depend on
// goroutine scheduling.
func (rf *RandomForestRegressor) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("RandomForestRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("RandomForestRegressor.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("RandomForestRegressor.Fit", "y must be a column vector")
	}
	if rf.NEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be at least 1", rf.NEstimators)
	}

	maxFeatures := rf.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = c / 3
		if maxFeatures < 1 {
			maxFeatures = 1
		}
	}

	rf.NFeatures = c
	rf.Trees = make([]*tree.DecisionTreeRegressor, rf.NEstimators)

	errs := make([]error, rf.NEstimators)
	parallel.Parallelize(rf.NEstimators, func(start, end int) {
		for t := start; t < end; t++ {
			seed := rf.RandomState + t
			rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))

			bootX, bootY := bootstrapSample(X, y, rng)

			dt := tree.NewDecisionTreeRegressor(
				tree.WithMaxDepth(rf.MaxDepth),
				tree.WithMinSamplesLeaf(rf.MinSamplesLeaf),
				tree.WithMaxFeatures(maxFeatures),
				tree.WithRandomState(seed),
			)
			if err := dt.Fit(bootX, bootY); err != nil {
				errs[t] = errors.Wrapf(err, "tree %d", t)
				continue
			}
			rf.Trees[t] = dt
		}
	})

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	// Forest importance is the mean of per-tree importances.
	rf.importances = make([]float64, c)
	for _, dt := range rf.Trees {
		for j, v := range dt.FeatureImportances() {
			rf.importances[j] += v
		}
	}
	for j := range rf.importances {
		rf.importances[j] /= float64(rf.NEstimators)
	}

	rf.SetFitted()
	return nil
}

// bootstrapSample draws n rows with replacement from X and y.
func bootstrapSample(X, y mat.Matrix, rng *rand.Rand) (mat.Matrix, mat.Matrix) {
	r, c := X.Dims()
	bootX := mat.NewDense(r, c, nil)
	bootY := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		src := rng.IntN(r)
		for j := 0; j < c; j++ {
			bootX.Set(i, j, X.At(src, j))
		}
		bootY.Set(i, 0, y.At(src, 0))
	}
	return bootX, bootY
}

// Predict returns the mean of the individual tree predictions.
func (rf *RandomForestRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !rf.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestRegressor", "Predict")
	}

	r, c := X.Dims()
	if c != rf.NFeatures {
		return nil, errors.NewDimensionError("RandomForestRegressor.Predict", rf.NFeatures, c, 1)
	}

	sum := make([]float64, r)
	for _, dt := range rf.Trees {
		pred, err := dt.Predict(X)
		if err != nil {
			return nil, err
		}
		for i := 0; i < r; i++ {
			sum[i] += pred.At(i, 0)
		}
	}

	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, sum[i]/float64(len(rf.Trees)))
	}
	return out, nil
}

// FeatureImportances returns mean per-tree importances. The per-tree
// values are each normalized to sum to 1, so the forest's sum to 1 as
// well (up to trees that never split).
func (rf *RandomForestRegressor) FeatureImportances() []float64 {
	out := make([]float64, len(rf.importances))
	copy(out, rf.importances)
	return out
}

// Score computes the coefficient of determination R² on (X, y).
func (rf *RandomForestRegressor) Score(X, y mat.Matrix) (float64, error) {
	if !rf.IsFitted() {
		return 0, errors.NewNotFittedError("RandomForestRegressor", "Score")
	}

	yPred, err := rf.Predict(X)
	if err != nil {
		return 0, err
	}

	r, _ := y.Dims()
	var yMean float64
	for i := 0; i < r; i++ {
		yMean += y.At(i, 0)
	}
	yMean /= float64(r)

	var tss, rss float64
	for i := 0; i < r; i++ {
		yTrue := y.At(i, 0)
		diff := yTrue - yPred.At(i, 0)
		tss += (yTrue - yMean) * (yTrue - yMean)
		rss += diff * diff
	}
	if tss == 0 {
		return 0, errors.Newf("total sum of squares is zero")
	}
	return 1 - rss/tss, nil
}
