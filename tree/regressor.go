// Package tree implements a CART regression tree with squared-error splits.
// The tree is one of the candidate model families in the analysis and the
// base learner for the random forest in the ensemble package.
package tree

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/clearwaterlab/microplastics/core/model"
	"github.com/clearwaterlab/microplastics/pkg/errors"
)

// Node is a single tree node. Nodes are stored in a flat slice with child
// links by index; leaves have both children set to -1.
type Node struct {
	NodeID       int
	LeftChild    int
	RightChild   int
	SplitFeature int
	Threshold    float64
	LeafValue    float64
	NSamples     int
	Gain         float64
	IsLeaf       bool
}

// splitInfo describes the best split found for a node.
type splitInfo struct {
	Feature    int
	Threshold  float64
	Gain       float64
	LeftCount  int
	RightCount int
}

// DecisionTreeRegressor is a CART regression tree. Splits minimize the sum
// of squared errors of the two children; leaves predict the mean target of
// their samples.
type DecisionTreeRegressor struct {
	model.BaseEstimator

	// MaxDepth limits tree depth. Zero or negative means no limit.
	MaxDepth int

	// MinSamplesLeaf is the minimum number of samples in each child.
	MinSamplesLeaf int

	// MinImpurityDecrease is the minimum squared-error reduction a split
	// must achieve to be kept.
	MinImpurityDecrease float64

	// MaxFeatures is the number of features considered per split. Zero
	// means all features; the random forest sets this below the feature
	// count for decorrelation.
	MaxFeatures int

	// RandomState seeds the per-split feature subsampling.
	RandomState int

	Nodes     []Node
	NFeatures int

	importances []float64
	rng         *rand.Rand
}

// NewDecisionTreeRegressor creates a regressor with the given options
// applied over the defaults (unbounded depth, 5 samples per leaf).
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	dt := &DecisionTreeRegressor{
		MaxDepth:       0,
		MinSamplesLeaf: 5,
		RandomState:    42,
	}
	for _, opt := range opts {
		opt(dt)
	}
	return dt
}

// Fit grows the tree on X (samples × features) and y (samples × 1).
func (dt *DecisionTreeRegressor) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("DecisionTreeRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("DecisionTreeRegressor.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("DecisionTreeRegressor.Fit", "y must be a column vector")
	}
	if dt.MinSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be at least 1", dt.MinSamplesLeaf)
	}

	dt.NFeatures = c
	dt.Nodes = nil
	dt.importances = make([]float64, c)
	dt.rng = rand.New(rand.NewPCG(uint64(dt.RandomState), uint64(dt.RandomState)))

	targets := make([]float64, r)
	for i := 0; i < r; i++ {
		targets[i] = y.At(i, 0)
	}

	rootIndices := make([]int, r)
	for i := range rootIndices {
		rootIndices[i] = i
	}

	dt.buildNode(X, targets, rootIndices, 0)

	// Normalize accumulated split gains into importances.
	var total float64
	for _, v := range dt.importances {
		total += v
	}
	if total > 0 {
		for j := range dt.importances {
			dt.importances[j] /= total
		}
	}

	dt.SetFitted()
	return nil
}

// buildNode recursively grows the tree and returns the new node's index.
func (dt *DecisionTreeRegressor) buildNode(X mat.Matrix, targets []float64, indices []int, depth int) int {
	nodeIdx := len(dt.Nodes)

	leafValue := meanOf(targets, indices)

	// Stopping conditions: depth cap or too few samples to split.
	if (dt.MaxDepth > 0 && depth >= dt.MaxDepth) || len(indices) < 2*dt.MinSamplesLeaf {
		dt.Nodes = append(dt.Nodes, Node{
			NodeID:     nodeIdx,
			LeafValue:  leafValue,
			NSamples:   len(indices),
			LeftChild:  -1,
			RightChild: -1,
			IsLeaf:     true,
		})
		return nodeIdx
	}

	bestSplit := dt.findBestSplit(X, targets, indices)

	if bestSplit.Gain <= dt.MinImpurityDecrease || bestSplit.LeftCount == 0 || bestSplit.RightCount == 0 {
		dt.Nodes = append(dt.Nodes, Node{
			NodeID:     nodeIdx,
			LeafValue:  leafValue,
			NSamples:   len(indices),
			LeftChild:  -1,
			RightChild: -1,
			IsLeaf:     true,
		})
		return nodeIdx
	}

	dt.Nodes = append(dt.Nodes, Node{
		NodeID:       nodeIdx,
		SplitFeature: bestSplit.Feature,
		Threshold:    bestSplit.Threshold,
		NSamples:     len(indices),
		Gain:         bestSplit.Gain,
	})
	dt.importances[bestSplit.Feature] += bestSplit.Gain

	var leftIndices, rightIndices []int
	for _, idx := range indices {
		if X.At(idx, bestSplit.Feature) <= bestSplit.Threshold {
			leftIndices = append(leftIndices, idx)
		} else {
			rightIndices = append(rightIndices, idx)
		}
	}

	leftChild := dt.buildNode(X, targets, leftIndices, depth+1)
	rightChild := dt.buildNode(X, targets, rightIndices, depth+1)

	dt.Nodes[nodeIdx].LeftChild = leftChild
	dt.Nodes[nodeIdx].RightChild = rightChild

	return nodeIdx
}

// findBestSplit scans candidate features and thresholds for the split with
// the largest squared-error reduction.
func (dt *DecisionTreeRegressor) findBestSplit(X mat.Matrix, targets []float64, indices []int) splitInfo {
	_, cols := X.Dims()

	features := dt.candidateFeatures(cols)

	bestSplit := splitInfo{Gain: -math.MaxFloat64}
	for _, j := range features {
		split := dt.findBestSplitForFeature(X, targets, indices, j)
		if split.Gain > bestSplit.Gain {
			bestSplit = split
		}
	}
	return bestSplit
}

// candidateFeatures returns the feature indices to scan, a random subset
// when MaxFeatures is set below the feature count.
func (dt *DecisionTreeRegressor) candidateFeatures(cols int) []int {
	all := make([]int, cols)
	for j := range all {
		all[j] = j
	}

	if dt.MaxFeatures <= 0 || dt.MaxFeatures >= cols {
		return all
	}

	dt.rng.Shuffle(cols, func(a, b int) {
		all[a], all[b] = all[b], all[a]
	})
	subset := all[:dt.MaxFeatures]
	sort.Ints(subset)
	return subset
}

// findBestSplitForFeature scans split thresholds at midpoints between
// consecutive distinct values of one feature.
func (dt *DecisionTreeRegressor) findBestSplitForFeature(X mat.Matrix, targets []float64, indices []int, feature int) splitInfo {
	type valueIdx struct {
		value  float64
		target float64
	}

	values := make([]valueIdx, len(indices))
	for i, idx := range indices {
		values[i] = valueIdx{value: X.At(idx, feature), target: targets[idx]}
	}
	sort.Slice(values, func(i, j int) bool {
		return values[i].value < values[j].value
	})

	var totalSum, totalSumSq float64
	for _, v := range values {
		totalSum += v.target
		totalSumSq += v.target * v.target
	}
	n := float64(len(values))

	// Parent impurity as total squared error around the mean.
	parentSSE := totalSumSq - totalSum*totalSum/n

	bestSplit := splitInfo{
		Feature: feature,
		Gain:    -math.MaxFloat64,
	}

	var leftSum, leftSumSq float64
	for i := 0; i < len(values)-1; i++ {
		leftSum += values[i].target
		leftSumSq += values[i].target * values[i].target

		// No threshold between equal values.
		if values[i].value == values[i+1].value {
			continue
		}

		leftCount := i + 1
		rightCount := len(values) - leftCount

		if leftCount < dt.MinSamplesLeaf || rightCount < dt.MinSamplesLeaf {
			continue
		}

		rightSum := totalSum - leftSum
		rightSumSq := totalSumSq - leftSumSq

		leftSSE := leftSumSq - leftSum*leftSum/float64(leftCount)
		rightSSE := rightSumSq - rightSum*rightSum/float64(rightCount)

		gain := parentSSE - leftSSE - rightSSE

		if gain > bestSplit.Gain {
			bestSplit.Gain = gain
			bestSplit.Threshold = (values[i].value + values[i+1].value) / 2
			bestSplit.LeftCount = leftCount
			bestSplit.RightCount = rightCount
		}
	}

	return bestSplit
}

func meanOf(targets []float64, indices []int) float64 {
	var sum float64
	for _, idx := range indices {
		sum += targets[idx]
	}
	return sum / float64(len(indices))
}

// Predict walks each row down the tree and returns the leaf means.
func (dt *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !dt.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeRegressor", "Predict")
	}

	r, c := X.Dims()
	if c != dt.NFeatures {
		return nil, errors.NewDimensionError("DecisionTreeRegressor.Predict", dt.NFeatures, c, 1)
	}

	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		predictions.Set(i, 0, dt.predictRow(X, i))
	}
	return predictions, nil
}

func (dt *DecisionTreeRegressor) predictRow(X mat.Matrix, row int) float64 {
	nodeIdx := 0
	for nodeIdx >= 0 && nodeIdx < len(dt.Nodes) {
		node := dt.Nodes[nodeIdx]
		if node.IsLeaf {
			return node.LeafValue
		}
		if X.At(row, node.SplitFeature) <= node.Threshold {
			nodeIdx = node.LeftChild
		} else {
			nodeIdx = node.RightChild
		}
	}
	return 0
}

// FeatureImportances returns normalized squared-error reductions per
// feature.
func (dt *DecisionTreeRegressor) FeatureImportances() []float64 {
	out := make([]float64, len(dt.importances))
	copy(out, dt.importances)
	return out
}

// NumLeaves returns the number of leaf nodes.
func (dt *DecisionTreeRegressor) NumLeaves() int {
	count := 0
	for _, node := range dt.Nodes {
		if node.IsLeaf {
			count++
		}
	}
	return count
}

// Depth returns the depth of the fitted tree, 0 for a single leaf.
func (dt *DecisionTreeRegressor) Depth() int {
	if len(dt.Nodes) == 0 {
		return 0
	}
	return dt.nodeDepth(0)
}

func (dt *DecisionTreeRegressor) nodeDepth(idx int) int {
	node := dt.Nodes[idx]
	if node.IsLeaf {
		return 0
	}
	left := dt.nodeDepth(node.LeftChild)
	right := dt.nodeDepth(node.RightChild)
	if left > right {
		return left + 1
	}
	return right + 1
}

// Score computes the coefficient of determination R² on (X, y).
func (dt *DecisionTreeRegressor) Score(X, y mat.Matrix) (float64, error) {
	if !dt.IsFitted() {
		return 0, errors.NewNotFittedError("DecisionTreeRegressor", "Score")
	}

	yPred, err := dt.Predict(X)
	if err != nil {
		return 0, err
	}

	r, _ := y.Dims()
	var yMean float64
	for i := 0; i < r; i++ {
		yMean += y.At(i, 0)
	}
	yMean /= float64(r)

	var tss, rss float64
	for i := 0; i < r; i++ {
		yTrue := y.At(i, 0)
		diff := yTrue - yPred.At(i, 0)
		tss += (yTrue - yMean) * (yTrue - yMean)
		rss += diff * diff
	}
	if tss == 0 {
		return 0, errors.Newf("total sum of squares is zero")
	}
	return 1 - rss/tss, nil
}
