// Package metrics implements the regression metrics used to evaluate and
// compare the candidate models. Root-mean-squared error is the primary
// selection metric throughout the pipeline.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/clearwaterlab/microplastics/pkg/errors"
)

// MSE computes the mean squared error.
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("MSE", "empty vector")
	}

	if yPred.Len() != n {
		return 0, errors.NewDimensionError("MSE", n, yPred.Len(), 0)
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}

	return sum / float64(n), nil
}

// RMSE computes the root mean squared error.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// RMSEMatrix computes RMSE for column-vector matrix inputs, the shape the
// model Predict methods return.
func RMSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 || cTrue == 0 {
		return 0, errors.NewValueError("RMSEMatrix", "empty matrix")
	}

	if rTrue != rPred || cTrue != cPred {
		return 0, errors.NewDimensionError("RMSEMatrix", rTrue, rPred, 0)
	}

	if cTrue != 1 {
		return 0, errors.NewValueError("RMSEMatrix", "must be a column vector (n×1 matrix)")
	}

	yTrueVec := mat.NewVecDense(rTrue, nil)
	yPredVec := mat.NewVecDense(rPred, nil)

	for i := 0; i < rTrue; i++ {
		yTrueVec.SetVec(i, yTrue.At(i, 0))
		yPredVec.SetVec(i, yPred.At(i, 0))
	}

	return RMSE(yTrueVec, yPredVec)
}

// MAE computes the mean absolute error.
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("MAE", "empty vector")
	}

	if yPred.Len() != n {
		return 0, errors.NewDimensionError("MAE", n, yPred.Len(), 0)
	}

	// MAE = (1/n) * Σ|yTrue - yPred|
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += math.Abs(diff)
	}

	return sum / float64(n), nil
}

// R2Score computes the coefficient of determination (R²).
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("R2Score", "empty vector")
	}

	if yPred.Len() != n {
		return 0, errors.NewDimensionError("R2Score", n, yPred.Len(), 0)
	}

	var yMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.AtVec(i)
	}
	yMean /= float64(n)

	var tss, rss float64
	for i := 0; i < n; i++ {
		yTrueVal := yTrue.AtVec(i)
		yPredVal := yPred.AtVec(i)

		tss += (yTrueVal - yMean) * (yTrueVal - yMean)
		rss += (yTrueVal - yPredVal) * (yTrueVal - yPredVal)
	}

	// All yTrue identical; R² is undefined.
	if tss == 0 {
		return 0, errors.Newf("R2Score: total sum of squares is zero (no variance in yTrue)")
	}

	// R² = 1 - RSS/TSS
	return 1 - rss/tss, nil
}

// NullRMSE computes the RMSE of the mean-only baseline: predict the mean of
// yTrain for every element of yTest. Every candidate model has to beat this
// number to justify itself.
func NullRMSE(yTrain, yTest *mat.VecDense) (float64, error) {
	if yTrain.Len() == 0 {
		return 0, errors.NewValueError("NullRMSE", "empty training vector")
	}
	if yTest.Len() == 0 {
		return 0, errors.NewValueError("NullRMSE", "empty test vector")
	}

	var mean float64
	for i := 0; i < yTrain.Len(); i++ {
		mean += yTrain.AtVec(i)
	}
	mean /= float64(yTrain.Len())

	var sum float64
	for i := 0; i < yTest.Len(); i++ {
		diff := yTest.AtVec(i) - mean
		sum += diff * diff
	}

	return math.Sqrt(sum / float64(yTest.Len())), nil
}

// Residuals returns observed minus predicted, the vector plotted in the
// residual diagnostics.
func Residuals(yTrue, yPred *mat.VecDense) (*mat.VecDense, error) {
	n := yTrue.Len()
	if n == 0 {
		return nil, errors.NewValueError("Residuals", "empty vector")
	}
	if yPred.Len() != n {
		return nil, errors.NewDimensionError("Residuals", n, yPred.Len(), 0)
	}

	res := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		res.SetVec(i, yTrue.AtVec(i)-yPred.AtVec(i))
	}
	return res, nil
}
