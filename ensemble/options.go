package ensemble

// Option configures a RandomForestRegressor.
type Option func(*RandomForestRegressor)

// WithNEstimators sets the number of trees.
func WithNEstimators(n int) Option {
	return func(rf *RandomForestRegressor) {
		rf.NEstimators = n
	}
}

// WithMaxDepth limits each tree's depth. Zero or negative means no limit.
func WithMaxDepth(depth int) Option {
	return func(rf *RandomForestRegressor) {
		rf.MaxDepth = depth
	}
}

// WithMinSamplesLeaf sets the minimum number of samples per leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(rf *RandomForestRegressor) {
		rf.MinSamplesLeaf = n
	}
}

// WithMaxFeatures sets the number of features considered per split.
// Zero means features/3.
func WithMaxFeatures(n int) Option {
	return func(rf *RandomForestRegressor) {
		rf.MaxFeatures = n
	}
}

// WithRandomState seeds bootstrap and feature subsampling.
func WithRandomState(seed int) Option {
	return func(rf *RandomForestRegressor) {
		rf.RandomState = seed
	}
}
