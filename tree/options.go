package tree

// Option configures a DecisionTreeRegressor.
type Option func(*DecisionTreeRegressor)

// WithMaxDepth limits tree depth. Zero or negative means no limit.
func WithMaxDepth(depth int) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.MaxDepth = depth
	}
}

// WithMinSamplesLeaf sets the minimum number of samples per leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.MinSamplesLeaf = n
	}
}

// WithMinImpurityDecrease sets the minimum squared-error reduction a
// split must achieve.
func WithMinImpurityDecrease(v float64) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.MinImpurityDecrease = v
	}
}

// WithMaxFeatures sets the number of features considered per split.
func WithMaxFeatures(n int) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.MaxFeatures = n
	}
}

// WithRandomState seeds per-split feature subsampling.
func WithRandomState(seed int) Option {
	return func(dt *DecisionTreeRegressor) {
		dt.RandomState = seed
	}
}
