package crossval

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/clearwaterlab/microplastics/core/model"
	"github.com/clearwaterlab/microplastics/metrics"
	"github.com/clearwaterlab/microplastics/pkg/errors"
	"github.com/clearwaterlab/microplastics/pkg/log"
)

// RegressorFactory builds a fresh, unfitted estimator. Each fold fits
// its own instance so folds can run in parallel.
type RegressorFactory func() model.Regressor

// CVResult stores per-fold RMSE from cross-validation.
type CVResult struct {
	FoldRMSE []float64
}

// MeanRMSE returns the mean fold RMSE.
func (cv *CVResult) MeanRMSE() float64 {
	if len(cv.FoldRMSE) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range cv.FoldRMSE {
		sum += v
	}
	return sum / float64(len(cv.FoldRMSE))
}

// StdRMSE returns the sample standard deviation of fold RMSE.
func (cv *CVResult) StdRMSE() float64 {
	if len(cv.FoldRMSE) <= 1 {
		return 0.0
	}
	mean := cv.MeanRMSE()
	sumSq := 0.0
	for _, v := range cv.FoldRMSE {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(cv.FoldRMSE)-1))
}

// CrossValidate fits a fresh estimator per fold and scores it by RMSE on
// the held-out samples. Folds run in parallel.
func CrossValidate(factory RegressorFactory, X, y mat.Matrix, splitter Splitter) (*CVResult, error) {
	folds := splitter.Split(X, y)
	nFolds := len(folds)
	if nFolds == 0 {
		return nil, errors.Newf("splitter produced no folds")
	}

	result := &CVResult{
		FoldRMSE: make([]float64, nFolds),
	}

	var wg sync.WaitGroup
	errs := make([]error, nFolds)

	for foldIdx := 0; foldIdx < nFolds; foldIdx++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			fold := folds[idx]

			trainX, trainY := extractSubset(X, y, fold.TrainIndices)
			testX, testY := extractSubset(X, y, fold.TestIndices)

			est := factory()
			if err := est.Fit(trainX, trainY); err != nil {
				errs[idx] = errors.Wrapf(err, "fold %d training failed", idx)
				return
			}

			testPred, err := est.Predict(testX)
			if err != nil {
				errs[idx] = errors.Wrapf(err, "fold %d prediction failed", idx)
				return
			}

			rmse, err := metrics.RMSEMatrix(testY, testPred)
			if err != nil {
				errs[idx] = errors.Wrapf(err, "fold %d scoring failed", idx)
				return
			}
			result.FoldRMSE[idx] = rmse
		}(foldIdx)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	log.GetLoggerWithName("crossval").Debug("cross-validation complete",
		log.FoldsKey, nFolds,
		log.RMSEKey, result.MeanRMSE(),
	)

	return result, nil
}

// extractSubset extracts a subset of X and y based on row indices.
func extractSubset(X, y mat.Matrix, indices []int) (mat.Matrix, mat.Matrix) {
	rows := len(indices)
	_, xCols := X.Dims()
	_, yCols := y.Dims()

	xSubset := mat.NewDense(rows, xCols, nil)
	ySubset := mat.NewDense(rows, yCols, nil)

	for i, idx := range indices {
		for j := 0; j < xCols; j++ {
			xSubset.Set(i, j, X.At(idx, j))
		}
		for j := 0; j < yCols; j++ {
			ySubset.Set(i, j, y.At(idx, j))
		}
	}

	return xSubset, ySubset
}
