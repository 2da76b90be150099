package log

// Standard attribute keys. Using these consistently keeps pipeline logs
// filterable by model, operation, and data shape.

// Model and operation context.
const (
	// ModelNameKey identifies the model family.
	// Examples: "LinearRegression", "Lasso", "DecisionTreeRegressor",
	// "RandomForestRegressor"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "tune", "evaluate"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "linear", "ensemble", "crossval", "waterdata"
	ComponentKey = "ml.component"
)

// Data shape and characteristics.
const (
	// SamplesKey is the number of rows in the dataset being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of feature columns.
	FeaturesKey = "data.features"

	// FoldsKey is the number of cross-validation folds in use.
	FoldsKey = "cv.folds"

	// RepeatsKey is the number of cross-validation repeats in use.
	RepeatsKey = "cv.repeats"
)

// Metric values.
const (
	// RMSEKey carries a root-mean-squared-error value.
	RMSEKey = "metric.rmse"

	// R2Key carries a coefficient-of-determination value.
	R2Key = "metric.r2"

	// DurationMsKey carries an operation duration in milliseconds.
	DurationMsKey = "duration_ms"
)
