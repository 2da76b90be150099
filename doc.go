// Package microplastics is a modeling toolkit for predicting microplastic
// particle concentration in water samples from auxiliary variables:
// distance to the nearest wastewater reclamation facility, land use,
// population, turbidity, E. coli counts, and visual score.
//
// The repository is organized as a small estimator library plus a domain
// data layer and a pipeline command:
//
//   - dataframe: column-named tabular data with CSV loading, joins,
//     missing-value handling, and a gob cache for prepared frames
//   - preprocessing: standard scaling and one-hot encoding
//   - linear, tree, ensemble: the candidate model families (ordinary
//     least squares, LASSO, CART, random forest)
//   - crossval: stratified train/test splitting, repeated k-fold
//     cross-validation, and RMSE-minimizing grid search
//   - metrics, diagnostics: regression metrics and evaluation plots
//   - waterdata, geocode, store: the sample dataset and its auxiliary
//     tables, reverse geocoding, and the SQLite results archive
//   - cmd/mpmodel: the end-to-end analysis pipeline
//
// All estimators share the Fit/Predict shape defined in core/model,
// validate inputs with the structured errors in pkg/errors, and seed
// their randomness so identical configurations reproduce identical
// splits, folds, and forests.
package microplastics
