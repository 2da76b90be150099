package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter is the interface for trainable models.
type Fitter interface {
	// Fit trains the model on X (samples × features) and y (samples × 1).
	Fit(X, y mat.Matrix) error
}

// Predictor is the interface for models that produce predictions.
type Predictor interface {
	// Predict returns predictions for X as a samples × 1 matrix.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer is the interface for models that can compute a score.
type Scorer interface {
	// Score returns the coefficient of determination R² of the prediction.
	Score(X, y mat.Matrix) (float64, error)
}

// Regressor combines the interfaces every regression model here satisfies.
type Regressor interface {
	Fitter
	Predictor
	Scorer
}

// Transformer is the interface for preprocessing steps.
type Transformer interface {
	// Fit learns the transform parameters from X.
	Fit(X mat.Matrix) error

	// Transform applies the learned transform to X.
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform fits on X and returns the transformed X.
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// FeatureRanker is implemented by models exposing per-feature importance.
type FeatureRanker interface {
	// FeatureImportances returns normalized importance scores, one per
	// feature column, summing to 1 (or all zero if no split was made).
	FeatureImportances() []float64
}
