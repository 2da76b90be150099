package linear

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/clearwaterlab/microplastics/core/model"
	"github.com/clearwaterlab/microplastics/pkg/errors"
)

// Lasso is an L1-regularized linear regression fitted by cyclic coordinate
// descent with soft thresholding. The penalty drives small coefficients to
// exactly zero, which is what the analysis uses it for: automatic selection
// among the candidate predictors.
//
// Features are standardized internally before the solver runs, so Alpha is
// on the standardized scale regardless of the units of the inputs.
type Lasso struct {
	model.BaseEstimator

	// Alpha is the L1 penalty strength. Zero reduces to least squares.
	Alpha float64

	// MaxIter caps the number of full coordinate sweeps.
	MaxIter int

	// Tol stops the sweep loop once the largest coefficient update in a
	// sweep falls below it.
	Tol float64

	Weights   *mat.VecDense // coefficients on the original feature scale
	Intercept float64
	NFeatures int

	// NIter is the number of sweeps the last Fit performed.
	NIter int
}

// NewLasso creates a Lasso with the given options applied over the
// defaults (alpha=1.0, 1000 sweeps, tolerance 1e-4).
func NewLasso(opts ...LassoOption) *Lasso {
	l := &Lasso{
		Alpha:   1.0,
		MaxIter: 1000,
		Tol:     1e-4,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Fit runs coordinate descent on standardized features. If the sweep cap is
// reached before the tolerance, a ConvergenceWarning is emitted and the
// partial solution is kept.
func (l *Lasso) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("Lasso.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("Lasso.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("Lasso.Fit", "y must be a column vector")
	}
	if l.Alpha < 0 {
		return errors.NewValidationError("alpha", "must be non-negative", l.Alpha)
	}

	l.NFeatures = c

	// Standardize columns and center the target. Coordinate updates assume
	// unit-variance features.
	mean := make([]float64, c)
	scale := make([]float64, c)
	for j := 0; j < c; j++ {
		var sum float64
		for i := 0; i < r; i++ {
			sum += X.At(i, j)
		}
		mean[j] = sum / float64(r)

		var sumSq float64
		for i := 0; i < r; i++ {
			d := X.At(i, j) - mean[j]
			sumSq += d * d
		}
		scale[j] = math.Sqrt(sumSq / float64(r))
		if scale[j] < 1e-8 {
			scale[j] = 1.0
		}
	}

	var yMean float64
	for i := 0; i < r; i++ {
		yMean += y.At(i, 0)
	}
	yMean /= float64(r)

	xs := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			xs.Set(i, j, (X.At(i, j)-mean[j])/scale[j])
		}
	}

	// Residual starts at the centered target since all weights start at 0.
	residual := make([]float64, r)
	for i := 0; i < r; i++ {
		residual[i] = y.At(i, 0) - yMean
	}

	w := make([]float64, c)
	n := float64(r)

	converged := false
	iter := 0
	for ; iter < l.MaxIter; iter++ {
		maxDelta := 0.0

		for j := 0; j < c; j++ {
			// rho_j = (1/n) Σ x_ij (residual_i + w_j x_ij)
			var rho float64
			for i := 0; i < r; i++ {
				rho += xs.At(i, j) * (residual[i] + w[j]*xs.At(i, j))
			}
			rho /= n

			newW := softThreshold(rho, l.Alpha)

			if delta := newW - w[j]; delta != 0 {
				for i := 0; i < r; i++ {
					residual[i] -= delta * xs.At(i, j)
				}
				if abs := math.Abs(delta); abs > maxDelta {
					maxDelta = abs
				}
				w[j] = newW
			}
		}

		if maxDelta < l.Tol {
			converged = true
			iter++
			break
		}
	}
	l.NIter = iter

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("Lasso", l.MaxIter, ""))
	}

	// Map coefficients back to the original feature scale.
	l.Weights = mat.NewVecDense(c, nil)
	l.Intercept = yMean
	for j := 0; j < c; j++ {
		orig := w[j] / scale[j]
		l.Weights.SetVec(j, orig)
		l.Intercept -= orig * mean[j]
	}

	l.SetFitted()
	return nil
}

// softThreshold is the proximal operator of the L1 penalty.
func softThreshold(rho, alpha float64) float64 {
	switch {
	case rho > alpha:
		return rho - alpha
	case rho < -alpha:
		return rho + alpha
	default:
		return 0
	}
}

// Predict returns ŷ = X·w + intercept as a column matrix.
func (l *Lasso) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !l.IsFitted() {
		return nil, errors.NewNotFittedError("Lasso", "Predict")
	}

	r, c := X.Dims()
	if c != l.NFeatures {
		return nil, errors.NewDimensionError("Lasso.Predict", l.NFeatures, c, 1)
	}

	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		pred := l.Intercept
		for j := 0; j < c; j++ {
			pred += X.At(i, j) * l.Weights.AtVec(j)
		}
		predictions.Set(i, 0, pred)
	}

	return predictions, nil
}

// GetWeights returns the fitted coefficients.
func (l *Lasso) GetWeights() []float64 {
	if l.Weights == nil {
		return nil
	}
	weights := make([]float64, l.Weights.Len())
	for i := 0; i < l.Weights.Len(); i++ {
		weights[i] = l.Weights.AtVec(i)
	}
	return weights
}

// GetIntercept returns the fitted intercept.
func (l *Lasso) GetIntercept() float64 {
	if !l.IsFitted() {
		return 0
	}
	return l.Intercept
}

// SelectedFeatures returns the indices of features with non-zero
// coefficients.
func (l *Lasso) SelectedFeatures() []int {
	if l.Weights == nil {
		return nil
	}
	var selected []int
	for i := 0; i < l.Weights.Len(); i++ {
		if l.Weights.AtVec(i) != 0 {
			selected = append(selected, i)
		}
	}
	return selected
}

// Score computes the coefficient of determination R² on (X, y).
func (l *Lasso) Score(X, y mat.Matrix) (float64, error) {
	if !l.IsFitted() {
		return 0, errors.NewNotFittedError("Lasso", "Score")
	}

	yPred, err := l.Predict(X)
	if err != nil {
		return 0, err
	}

	return r2(y, yPred)
}
