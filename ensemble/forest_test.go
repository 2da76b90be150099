package ensemble

import (
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// makeFriedmanish builds a deterministic nonlinear regression problem.
func makeFriedmanish(n int, seed uint64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(seed, seed))
	X := mat.NewDense(n, 4, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < 4; j++ {
			X.Set(i, j, rng.Float64()*10)
		}
		target := 3*X.At(i, 0) + X.At(i, 1)*X.At(i, 1)*0.2
		y.Set(i, 0, target)
	}
	return X, y
}

func TestRandomForestRegressorFitPredict(t *testing.T) {
	X, y := makeFriedmanish(200, 1)

	rf := NewRandomForestRegressor(
		WithNEstimators(50),
		WithMinSamplesLeaf(2),
		WithRandomState(42),
	)
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	score, err := rf.Score(X, y)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if score < 0.8 {
		t.Errorf("training R² = %v, want >= 0.8", score)
	}
}

func TestRandomForestRegressorDeterministic(t *testing.T) {
	X, y := makeFriedmanish(100, 3)

	fit := func() []float64 {
		rf := NewRandomForestRegressor(
			WithNEstimators(20),
			WithMinSamplesLeaf(2),
			WithRandomState(7),
		)
		if err := rf.Fit(X, y); err != nil {
			t.Fatalf("Fit failed: %v", err)
		}
		pred, err := rf.Predict(X)
		if err != nil {
			t.Fatalf("Predict failed: %v", err)
		}
		out := make([]float64, 100)
		for i := range out {
			out[i] = pred.At(i, 0)
		}
		return out
	}

	first := fit()
	second := fit()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("prediction %d differs between identically seeded fits: %v vs %v",
				i, first[i], second[i])
		}
	}
}

func TestRandomForestRegressorSeedChangesForest(t *testing.T) {
	X, y := makeFriedmanish(100, 3)

	fit := func(seed int) float64 {
		rf := NewRandomForestRegressor(
			WithNEstimators(10),
			WithMinSamplesLeaf(2),
			WithRandomState(seed),
		)
		if err := rf.Fit(X, y); err != nil {
			t.Fatalf("Fit failed: %v", err)
		}
		pred, err := rf.Predict(X)
		if err != nil {
			t.Fatalf("Predict failed: %v", err)
		}
		var sum float64
		for i := 0; i < 100; i++ {
			sum += pred.At(i, 0)
		}
		return sum
	}

	if fit(1) == fit(2) {
		t.Error("different seeds produced identical prediction sums")
	}
}

func TestRandomForestRegressorImportances(t *testing.T) {
	// Only feature 0 carries signal.
	rng := rand.New(rand.NewPCG(5, 5))
	X := mat.NewDense(150, 3, nil)
	y := mat.NewDense(150, 1, nil)
	for i := 0; i < 150; i++ {
		for j := 0; j < 3; j++ {
			X.Set(i, j, rng.Float64()*10)
		}
		y.Set(i, 0, 5*X.At(i, 0))
	}

	rf := NewRandomForestRegressor(
		WithNEstimators(30),
		WithMinSamplesLeaf(2),
		WithMaxFeatures(3),
		WithRandomState(11),
	)
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	imp := rf.FeatureImportances()
	if len(imp) != 3 {
		t.Fatalf("importances length = %d, want 3", len(imp))
	}
	if imp[0] < imp[1] || imp[0] < imp[2] {
		t.Errorf("informative feature should dominate: got %v", imp)
	}
	total := imp[0] + imp[1] + imp[2]
	if math.Abs(total-1.0) > 1e-6 {
		t.Errorf("importances sum = %v, want 1", total)
	}
}

func TestRandomForestRegressorDefaultMaxFeatures(t *testing.T) {
	X, y := makeFriedmanish(60, 9)

	rf := NewRandomForestRegressor(WithNEstimators(5), WithMinSamplesLeaf(2))
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	// 4 features / 3 = 1 feature per split.
	for _, dt := range rf.Trees {
		if dt.MaxFeatures != 1 {
			t.Fatalf("tree MaxFeatures = %d, want 1", dt.MaxFeatures)
		}
	}
}

func TestRandomForestRegressorValidation(t *testing.T) {
	X := mat.NewDense(10, 2, nil)
	y := mat.NewDense(10, 1, nil)

	rf := NewRandomForestRegressor(WithNEstimators(0))
	if err := rf.Fit(X, y); err == nil {
		t.Error("Fit with zero estimators should return an error")
	}

	rf = NewRandomForestRegressor(WithNEstimators(3))
	yBad := mat.NewDense(5, 1, nil)
	if err := rf.Fit(X, yBad); err == nil {
		t.Error("Fit with mismatched rows should return an error")
	}
}

func TestRandomForestRegressorNotFitted(t *testing.T) {
	rf := NewRandomForestRegressor()
	X := mat.NewDense(2, 2, nil)
	if _, err := rf.Predict(X); err == nil {
		t.Error("Predict on unfitted forest should return an error")
	}
}

func TestRandomForestRegressorPredictDimensionMismatch(t *testing.T) {
	X, y := makeFriedmanish(50, 2)

	rf := NewRandomForestRegressor(WithNEstimators(3), WithMinSamplesLeaf(2))
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	bad := mat.NewDense(5, 9, nil)
	if _, err := rf.Predict(bad); err == nil {
		t.Error("Predict with wrong feature count should return an error")
	}
}
