// Package model provides the shared estimator plumbing used by every model
// in this repository: the fitted-state tracking embedded in each estimator
// and the small interfaces the cross-validation and tuning code program
// against.
package model

// EstimatorState represents the training state of a model.
type EstimatorState int

const (
	// NotFitted means the model has not been trained yet.
	NotFitted EstimatorState = iota
	// Fitted means the model has been trained.
	Fitted
)

// BaseEstimator is embedded by every estimator to track fitted state.
type BaseEstimator struct {
	state EstimatorState
}

// IsFitted reports whether the model has been fitted.
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted marks the model as fitted.
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset returns the model to the unfitted state.
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}
