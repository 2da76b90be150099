package tree

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestDecisionTreeRegressorStepFunction(t *testing.T) {
	// Step function: y = 1 for x < 5, y = 10 for x >= 5. A single split
	// at the midpoint fits this exactly.
	X := mat.NewDense(10, 1, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	y := mat.NewDense(10, 1, []float64{1, 1, 1, 1, 1, 10, 10, 10, 10, 10})

	dt := NewDecisionTreeRegressor(WithMinSamplesLeaf(1))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	root := dt.Nodes[0]
	if root.IsLeaf {
		t.Fatal("root should be a split node")
	}
	if root.Threshold != 4.5 {
		t.Errorf("root threshold = %v, want 4.5", root.Threshold)
	}

	pred, err := dt.Predict(X)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		if math.Abs(pred.At(i, 0)-y.At(i, 0)) > 1e-10 {
			t.Errorf("prediction[%d] = %v, want %v", i, pred.At(i, 0), y.At(i, 0))
		}
	}
}

func TestDecisionTreeRegressorPicksInformativeFeature(t *testing.T) {
	// Feature 0 is constant noise, feature 1 determines the target.
	X := mat.NewDense(8, 2, []float64{
		3, 0,
		3, 1,
		3, 2,
		3, 3,
		3, 10,
		3, 11,
		3, 12,
		3, 13,
	})
	y := mat.NewDense(8, 1, []float64{2, 2, 2, 2, 20, 20, 20, 20})

	dt := NewDecisionTreeRegressor(WithMinSamplesLeaf(2))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if dt.Nodes[0].SplitFeature != 1 {
		t.Errorf("root split feature = %d, want 1", dt.Nodes[0].SplitFeature)
	}

	imp := dt.FeatureImportances()
	if imp[0] != 0 {
		t.Errorf("importance of constant feature = %v, want 0", imp[0])
	}
	if math.Abs(imp[1]-1.0) > 1e-10 {
		t.Errorf("importance of informative feature = %v, want 1", imp[1])
	}
}

func TestDecisionTreeRegressorMaxDepth(t *testing.T) {
	X := mat.NewDense(16, 1, []float64{
		0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
	})
	y := mat.NewDense(16, 1, []float64{
		0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
	})

	dt := NewDecisionTreeRegressor(WithMaxDepth(2), WithMinSamplesLeaf(1))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if depth := dt.Depth(); depth > 2 {
		t.Errorf("tree depth = %d, want <= 2", depth)
	}
	if leaves := dt.NumLeaves(); leaves > 4 {
		t.Errorf("leaves = %d, want <= 4 at depth 2", leaves)
	}
}

func TestDecisionTreeRegressorMinSamplesLeaf(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{0, 1, 2, 3, 4, 5})
	y := mat.NewDense(6, 1, []float64{0, 1, 2, 3, 4, 5})

	dt := NewDecisionTreeRegressor(WithMinSamplesLeaf(3))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	for _, node := range dt.Nodes {
		if node.IsLeaf && node.NSamples < 3 {
			t.Errorf("leaf %d has %d samples, want >= 3", node.NodeID, node.NSamples)
		}
	}
}

func TestDecisionTreeRegressorConstantTarget(t *testing.T) {
	X := mat.NewDense(5, 1, []float64{0, 1, 2, 3, 4})
	y := mat.NewDense(5, 1, []float64{7, 7, 7, 7, 7})

	dt := NewDecisionTreeRegressor(WithMinSamplesLeaf(1))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	// No split can reduce zero impurity; the tree is a single leaf.
	if len(dt.Nodes) != 1 || !dt.Nodes[0].IsLeaf {
		t.Fatalf("expected single leaf, got %d nodes", len(dt.Nodes))
	}
	if dt.Nodes[0].LeafValue != 7 {
		t.Errorf("leaf value = %v, want 7", dt.Nodes[0].LeafValue)
	}
}

func TestDecisionTreeRegressorNotFitted(t *testing.T) {
	dt := NewDecisionTreeRegressor()
	X := mat.NewDense(2, 1, []float64{1, 2})
	if _, err := dt.Predict(X); err == nil {
		t.Error("Predict on unfitted tree should return an error")
	}
}

func TestDecisionTreeRegressorDimensionMismatch(t *testing.T) {
	X := mat.NewDense(10, 2, nil)
	y := mat.NewDense(10, 1, nil)
	for i := 0; i < 10; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(i%3))
		y.Set(i, 0, float64(i))
	}

	dt := NewDecisionTreeRegressor(WithMinSamplesLeaf(1))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	bad := mat.NewDense(3, 5, nil)
	if _, err := dt.Predict(bad); err == nil {
		t.Error("Predict with wrong feature count should return an error")
	}
}

func TestDecisionTreeRegressorScore(t *testing.T) {
	X := mat.NewDense(10, 1, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	y := mat.NewDense(10, 1, []float64{1, 1, 1, 1, 1, 10, 10, 10, 10, 10})

	dt := NewDecisionTreeRegressor(WithMinSamplesLeaf(1))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	score, err := dt.Score(X, y)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if math.Abs(score-1.0) > 1e-10 {
		t.Errorf("Score = %v, want 1.0 on perfectly separable data", score)
	}
}

func TestDecisionTreeRegressorMaxFeaturesDeterministic(t *testing.T) {
	X := mat.NewDense(20, 4, nil)
	y := mat.NewDense(20, 1, nil)
	for i := 0; i < 20; i++ {
		for j := 0; j < 4; j++ {
			X.Set(i, j, float64((i*7+j*3)%13))
		}
		y.Set(i, 0, X.At(i, 0)*2+X.At(i, 2))
	}

	fit := func() []Node {
		dt := NewDecisionTreeRegressor(
			WithMaxFeatures(2),
			WithRandomState(7),
			WithMinSamplesLeaf(2),
		)
		if err := dt.Fit(X, y); err != nil {
			t.Fatalf("Fit failed: %v", err)
		}
		return dt.Nodes
	}

	first := fit()
	second := fit()
	if len(first) != len(second) {
		t.Fatalf("node counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("node %d differs between identically seeded fits", i)
		}
	}
}
