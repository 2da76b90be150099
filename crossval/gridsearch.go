package crossval

import (
	"gonum.org/v1/gonum/mat"

	"github.com/clearwaterlab/microplastics/core/model"
	"github.com/clearwaterlab/microplastics/pkg/errors"
	"github.com/clearwaterlab/microplastics/pkg/log"
)

// Candidate is one hyperparameter setting in a grid. Params records the
// setting for reporting; New builds an estimator configured with it.
type Candidate struct {
	Params map[string]float64
	New    RegressorFactory
}

// GridResult is the cross-validated score of one candidate.
type GridResult struct {
	Params   map[string]float64
	MeanRMSE float64
	StdRMSE  float64
}

// GridSearch evaluates each candidate with cross-validation, selects the
// one with the lowest mean RMSE, and refits it on the full data. Ties
// keep the earlier candidate, so grid order decides between equals.
type GridSearch struct {
	Candidates []Candidate
	Splitter   Splitter

	BestIndex  int
	BestParams map[string]float64
	BestScore  float64
	BestModel  model.Regressor
	Results    []GridResult

	fitted bool
}

// NewGridSearch creates a grid search over the given candidates.
func NewGridSearch(candidates []Candidate, splitter Splitter) *GridSearch {
	return &GridSearch{
		Candidates: candidates,
		Splitter:   splitter,
	}
}

// Fit cross-validates every candidate on (X, y) and refits the best.
func (gs *GridSearch) Fit(X, y mat.Matrix) error {
	if len(gs.Candidates) == 0 {
		return errors.NewValueError("GridSearch.Fit", "no candidates to evaluate")
	}

	logger := log.GetLoggerWithName("gridsearch")

	gs.Results = make([]GridResult, len(gs.Candidates))
	gs.BestIndex = -1

	for i, cand := range gs.Candidates {
		cv, err := CrossValidate(cand.New, X, y, gs.Splitter)
		if err != nil {
			return errors.Wrapf(err, "candidate %d", i)
		}

		mean := cv.MeanRMSE()
		gs.Results[i] = GridResult{
			Params:   cand.Params,
			MeanRMSE: mean,
			StdRMSE:  cv.StdRMSE(),
		}

		logger.Debug("candidate scored",
			log.RMSEKey, mean,
		)

		// Strict less-than keeps the earlier candidate on ties.
		if gs.BestIndex < 0 || mean < gs.BestScore {
			gs.BestIndex = i
			gs.BestScore = mean
		}
	}

	gs.BestParams = gs.Candidates[gs.BestIndex].Params

	best := gs.Candidates[gs.BestIndex].New()
	if err := best.Fit(X, y); err != nil {
		return errors.Wrap(err, "refitting best candidate")
	}
	gs.BestModel = best
	gs.fitted = true

	logger.Info("grid search complete",
		log.RMSEKey, gs.BestScore,
	)

	return nil
}

// Predict delegates to the refit best model.
func (gs *GridSearch) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !gs.fitted {
		return nil, errors.NewNotFittedError("GridSearch", "Predict")
	}
	return gs.BestModel.Predict(X)
}
