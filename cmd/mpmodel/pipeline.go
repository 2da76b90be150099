package main

import (
	"database/sql"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/clearwaterlab/microplastics/core/model"
	"github.com/clearwaterlab/microplastics/crossval"
	"github.com/clearwaterlab/microplastics/dataframe"
	"github.com/clearwaterlab/microplastics/diagnostics"
	"github.com/clearwaterlab/microplastics/ensemble"
	"github.com/clearwaterlab/microplastics/linear"
	"github.com/clearwaterlab/microplastics/metrics"
	"github.com/clearwaterlab/microplastics/pkg/errors"
	"github.com/clearwaterlab/microplastics/pkg/log"
	"github.com/clearwaterlab/microplastics/preprocessing"
	"github.com/clearwaterlab/microplastics/store"
	"github.com/clearwaterlab/microplastics/tree"
	"github.com/clearwaterlab/microplastics/waterdata"
)

// familyResult is one model family's tuning outcome.
type familyResult struct {
	Family string
	Params map[string]float64
	CVRMSE float64
	CVStd  float64
	Model  model.Regressor
}

// runPipeline executes the full analysis: prepare the frame, tune each
// model family by repeated k-fold RMSE, compare against the null
// baseline, evaluate the winner once on the held-out test split, render
// diagnostics, and archive everything.
func runPipeline(cfg Config) error {
	logger := log.GetLoggerWithName("pipeline")

	repo, err := store.NewSQLiteRepository(cfg.DBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	plotter, err := diagnostics.NewPlotter(cfg.ResultsDir)
	if err != nil {
		return err
	}

	if cfg.MetadataPath != "" {
		meta, err := waterdata.ReadFGDCFile(cfg.MetadataPath)
		if err != nil {
			return err
		}
		logger.Info("hydrography reference layer",
			log.OperationKey, "metadata",
			"title", meta.Title(),
		)
	}

	frame, err := loadFrame(cfg, repo)
	if err != nil {
		return err
	}

	// Stratified split on the outcome. The test split is held out until
	// the single final evaluation.
	y, err := frame.Numeric(waterdata.ColConcentration)
	if err != nil {
		return err
	}
	trainIdx, testIdx, err := crossval.TrainTestSplit(y, cfg.TestSize, cfg.Strata, cfg.Seed)
	if err != nil {
		return err
	}

	trainFrame, err := frame.Subset(trainIdx)
	if err != nil {
		return err
	}
	testFrame, err := frame.Subset(testIdx)
	if err != nil {
		return err
	}

	// Dummy-encode categorical columns. The encoder is fit on the
	// training split only and applied unchanged to test.
	if len(trainFrame.StringColumns()) > 0 {
		encoder := preprocessing.NewOneHotEncoder(true)
		trainFrame, err = encoder.FitTransform(trainFrame)
		if err != nil {
			return err
		}
		testFrame, err = encoder.Transform(testFrame)
		if err != nil {
			return err
		}
	}

	XTrain, yTrain, features, err := trainFrame.Matrix(waterdata.ColConcentration)
	if err != nil {
		return err
	}
	XTest, yTest, _, err := testFrame.Matrix(waterdata.ColConcentration)
	if err != nil {
		return err
	}

	logger.Info("split complete",
		log.SamplesKey, len(trainIdx),
		log.FeaturesKey, len(features),
		"test_samples", len(testIdx),
	)

	splitter := crossval.NewRepeatedKFold(cfg.Folds, cfg.Repeats, cfg.Seed)

	results, err := tuneFamilies(cfg, XTrain, yTrain, splitter)
	if err != nil {
		return err
	}

	// The mean-only baseline every family must beat.
	nullCV, err := crossval.CrossValidate(
		func() model.Regressor { return &meanModel{} },
		XTrain, yTrain, splitter)
	if err != nil {
		return err
	}
	results = append([]familyResult{{
		Family: "null",
		Params: map[string]float64{},
		CVRMSE: nullCV.MeanRMSE(),
		CVStd:  nullCV.StdRMSE(),
	}}, results...)

	// Winner: lowest mean CV RMSE among the fitted families; ties keep
	// the earlier (simpler) family.
	best := -1
	for i, res := range results {
		if res.Model == nil {
			continue
		}
		if best < 0 || res.CVRMSE < results[best].CVRMSE {
			best = i
		}
	}
	if best < 0 {
		return errors.Newf("no model family was fitted")
	}
	winner := results[best]

	// Single test-set evaluation of the selected model.
	testPred, err := winner.Model.Predict(XTest)
	if err != nil {
		return err
	}
	testRMSE, err := metrics.RMSEMatrix(yTest, testPred)
	if err != nil {
		return err
	}

	logger.Info("selected model evaluated",
		log.ModelNameKey, winner.Family,
		log.RMSEKey, testRMSE,
	)

	if err := renderDiagnostics(plotter, winner, results, features, yTest, testPred); err != nil {
		return err
	}

	printResults(results, winner.Family, testRMSE)

	for _, res := range results {
		run := store.Run{
			Family: res.Family,
			Params: res.Params,
			CVRMSE: res.CVRMSE,
			CVStd:  res.CVStd,
		}
		if res.Family == winner.Family {
			run.Selected = true
			run.TestRMSE = sql.NullFloat64{Float64: testRMSE, Valid: true}
		}
		if _, err := repo.SaveRun(run); err != nil {
			return err
		}
	}

	return nil
}

// loadFrame prepares the modeling frame, going through the gob cache
// when one is configured, and archives the raw samples.
func loadFrame(cfg Config, repo store.Repository) (*dataframe.Frame, error) {
	if cfg.CachePath != "" {
		if _, err := os.Stat(cfg.CachePath); err == nil {
			return dataframe.LoadCache(cfg.CachePath)
		}
	}

	samples, err := waterdata.LoadSamples(cfg.SamplesPath)
	if err != nil {
		return nil, err
	}

	if err := archiveSamples(repo, samples); err != nil {
		return nil, err
	}

	aux := waterdata.AuxTables{}
	if cfg.FacilitiesPath != "" {
		if aux.Facilities, err = waterdata.LoadFacilities(cfg.FacilitiesPath); err != nil {
			return nil, err
		}
	}
	if cfg.TractPopPath != "" {
		if aux.TractPopulation, err = waterdata.LoadTractPopulation(cfg.TractPopPath); err != nil {
			return nil, err
		}
	}
	if cfg.LandUsePath != "" {
		if aux.LandUse, err = waterdata.LoadLandUse(cfg.LandUsePath); err != nil {
			return nil, err
		}
	}
	if cfg.ZipPopPath != "" {
		if aux.ZipPopulation, err = waterdata.ReadZipPopulation(cfg.ZipPopPath, cfg.ZipPopSheet); err != nil {
			return nil, err
		}
	}

	frame, err := waterdata.PrepareModelingFrame(samples, aux)
	if err != nil {
		return nil, err
	}

	if cfg.CachePath != "" {
		if err := frame.SaveCache(cfg.CachePath); err != nil {
			return nil, err
		}
	}
	return frame, nil
}

func archiveSamples(repo store.Repository, samples *dataframe.Frame) error {
	sites, err := samples.Strings(waterdata.ColSiteID)
	if err != nil {
		return err
	}
	dates, err := samples.Strings(waterdata.ColSampleDate)
	if err != nil {
		return err
	}
	lats, err := samples.Numeric(waterdata.ColLatitude)
	if err != nil {
		return err
	}
	lons, err := samples.Numeric(waterdata.ColLongitude)
	if err != nil {
		return err
	}
	conc, err := samples.Numeric(waterdata.ColConcentration)
	if err != nil {
		return err
	}

	records := make([]store.SampleRecord, len(sites))
	for i := range sites {
		records[i] = store.SampleRecord{
			SiteID:        sites[i],
			SampleDate:    dates[i],
			Latitude:      lats[i],
			Longitude:     lons[i],
			Concentration: conc[i],
		}
	}
	return repo.SaveSamples(records)
}

// tuneFamilies runs grid search for each model family over the training
// split. Linear regression has no grid and is cross-validated directly.
func tuneFamilies(cfg Config, X mat.Matrix, y mat.Matrix, splitter crossval.Splitter) ([]familyResult, error) {
	_, p := X.Dims()

	var results []familyResult

	linearCV, err := crossval.CrossValidate(
		func() model.Regressor { return linear.NewLinearRegression() },
		X, y, splitter)
	if err != nil {
		return nil, err
	}
	lr := linear.NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		return nil, err
	}
	results = append(results, familyResult{
		Family: "linear",
		Params: map[string]float64{},
		CVRMSE: linearCV.MeanRMSE(),
		CVStd:  linearCV.StdRMSE(),
		Model:  lr,
	})

	var lassoGrid []crossval.Candidate
	for _, alpha := range []float64{0.001, 0.01, 0.1, 1, 10} {
		alpha := alpha
		lassoGrid = append(lassoGrid, crossval.Candidate{
			Params: map[string]float64{"alpha": alpha},
			New: func() model.Regressor {
				return linear.NewLasso(linear.WithAlpha(alpha))
			},
		})
	}
	lassoRes, err := runGrid("lasso", lassoGrid, X, y, splitter)
	if err != nil {
		return nil, err
	}
	results = append(results, lassoRes)

	var treeGrid []crossval.Candidate
	for _, depth := range []int{3, 5, 8} {
		for _, minLeaf := range []int{2, 5, 10} {
			depth, minLeaf := depth, minLeaf
			treeGrid = append(treeGrid, crossval.Candidate{
				Params: map[string]float64{
					"max_depth":        float64(depth),
					"min_samples_leaf": float64(minLeaf),
				},
				New: func() model.Regressor {
					return tree.NewDecisionTreeRegressor(
						tree.WithMaxDepth(depth),
						tree.WithMinSamplesLeaf(minLeaf),
						tree.WithRandomState(cfg.Seed),
					)
				},
			})
		}
	}
	treeRes, err := runGrid("tree", treeGrid, X, y, splitter)
	if err != nil {
		return nil, err
	}
	results = append(results, treeRes)

	maxFeatOptions := []int{0, (p + 1) / 2}
	var forestGrid []crossval.Candidate
	for _, nTrees := range []int{100, 300} {
		for _, maxFeat := range maxFeatOptions {
			nTrees, maxFeat := nTrees, maxFeat
			forestGrid = append(forestGrid, crossval.Candidate{
				Params: map[string]float64{
					"n_estimators": float64(nTrees),
					"max_features": float64(maxFeat),
				},
				New: func() model.Regressor {
					return ensemble.NewRandomForestRegressor(
						ensemble.WithNEstimators(nTrees),
						ensemble.WithMaxFeatures(maxFeat),
						ensemble.WithRandomState(cfg.Seed),
					)
				},
			})
		}
	}
	forestRes, err := runGrid("random_forest", forestGrid, X, y, splitter)
	if err != nil {
		return nil, err
	}
	results = append(results, forestRes)

	return results, nil
}

func runGrid(family string, candidates []crossval.Candidate, X, y mat.Matrix, splitter crossval.Splitter) (familyResult, error) {
	gs := crossval.NewGridSearch(candidates, splitter)
	if err := gs.Fit(X, y); err != nil {
		return familyResult{}, errors.Wrapf(err, "tuning %s", family)
	}
	return familyResult{
		Family: family,
		Params: gs.BestParams,
		CVRMSE: gs.BestScore,
		CVStd:  gs.Results[gs.BestIndex].StdRMSE,
		Model:  gs.BestModel,
	}, nil
}

// meanModel is the null baseline: it always predicts the training mean.
type meanModel struct {
	mean   float64
	fitted bool
}

func (m *meanModel) Fit(_, y mat.Matrix) error {
	r, _ := y.Dims()
	if r == 0 {
		return errors.Wrap(errors.ErrEmptyData, "meanModel.Fit")
	}
	var sum float64
	for i := 0; i < r; i++ {
		sum += y.At(i, 0)
	}
	m.mean = sum / float64(r)
	m.fitted = true
	return nil
}

func (m *meanModel) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !m.fitted {
		return nil, errors.NewNotFittedError("meanModel", "Predict")
	}
	r, _ := X.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, m.mean)
	}
	return out, nil
}

func (m *meanModel) Score(X, y mat.Matrix) (float64, error) {
	if !m.fitted {
		return 0, errors.NewNotFittedError("meanModel", "Score")
	}
	return 0, nil
}

func renderDiagnostics(plotter *diagnostics.Plotter, winner familyResult, results []familyResult, features []string, yTest *mat.VecDense, testPred mat.Matrix) error {
	n := yTest.Len()
	observed := make([]float64, n)
	predicted := make([]float64, n)
	residuals := make([]float64, n)
	for i := 0; i < n; i++ {
		observed[i] = yTest.AtVec(i)
		predicted[i] = testPred.At(i, 0)
		residuals[i] = observed[i] - predicted[i]
	}

	if _, err := plotter.PredictedVsObserved(observed, predicted, winner.Family); err != nil {
		return err
	}
	if _, err := plotter.ResidualsVsPredicted(predicted, residuals, winner.Family); err != nil {
		return err
	}

	if ranker, ok := winner.Model.(model.FeatureRanker); ok {
		if _, err := plotter.FeatureImportances(features, ranker.FeatureImportances(), winner.Family); err != nil {
			return err
		}
	}

	families := make([]string, len(results))
	rmses := make([]float64, len(results))
	for i, res := range results {
		families[i] = res.Family
		rmses[i] = res.CVRMSE
	}
	_, err := plotter.ModelComparison(families, rmses)
	return err
}

func printResults(results []familyResult, winner string, testRMSE float64) {
	fmt.Printf("%-15s %12s %10s\n", "family", "cv_rmse", "cv_std")
	for _, res := range results {
		marker := " "
		if res.Family == winner {
			marker = "*"
		}
		fmt.Printf("%-15s %12.4f %10.4f %s\n", res.Family, res.CVRMSE, res.CVStd, marker)
	}
	fmt.Printf("\nselected: %s  test RMSE: %.4f\n", winner, testRMSE)
}
