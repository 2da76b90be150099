package crossval

import (
	"math"
	"sort"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestKFoldSplit(t *testing.T) {
	X := mat.NewDense(10, 1, nil)
	kf := NewKFold(3, false, 0)

	folds := kf.Split(X, nil)
	if len(folds) != 3 {
		t.Fatalf("got %d folds, want 3", len(folds))
	}

	// Every sample appears in exactly one test set.
	seen := make(map[int]int)
	for _, fold := range folds {
		for _, idx := range fold.TestIndices {
			seen[idx]++
		}
		if len(fold.TrainIndices)+len(fold.TestIndices) != 10 {
			t.Errorf("fold covers %d samples, want 10",
				len(fold.TrainIndices)+len(fold.TestIndices))
		}
	}
	if len(seen) != 10 {
		t.Errorf("test sets cover %d samples, want 10", len(seen))
	}
	for idx, count := range seen {
		if count != 1 {
			t.Errorf("sample %d appears in %d test sets, want 1", idx, count)
		}
	}
}

func TestKFoldShuffleDeterministic(t *testing.T) {
	X := mat.NewDense(20, 1, nil)

	first := NewKFold(4, true, 42).Split(X, nil)
	second := NewKFold(4, true, 42).Split(X, nil)

	for i := range first {
		if len(first[i].TestIndices) != len(second[i].TestIndices) {
			t.Fatalf("fold %d sizes differ", i)
		}
		for j := range first[i].TestIndices {
			if first[i].TestIndices[j] != second[i].TestIndices[j] {
				t.Fatalf("fold %d differs between identically seeded splits", i)
			}
		}
	}
}

func TestRepeatedKFold(t *testing.T) {
	X := mat.NewDense(12, 1, nil)
	rkf := NewRepeatedKFold(3, 4, 1)

	if rkf.GetNSplits() != 12 {
		t.Errorf("GetNSplits = %d, want 12", rkf.GetNSplits())
	}

	folds := rkf.Split(X, nil)
	if len(folds) != 12 {
		t.Fatalf("got %d folds, want 12", len(folds))
	}

	// Each repeat covers all samples.
	for rep := 0; rep < 4; rep++ {
		seen := make(map[int]bool)
		for f := 0; f < 3; f++ {
			for _, idx := range folds[rep*3+f].TestIndices {
				seen[idx] = true
			}
		}
		if len(seen) != 12 {
			t.Errorf("repeat %d test sets cover %d samples, want 12", rep, len(seen))
		}
	}

	// Repeats use different shuffles.
	same := true
	for f := 0; f < 3 && same; f++ {
		a, b := folds[f].TestIndices, folds[3+f].TestIndices
		if len(a) != len(b) {
			same = false
			break
		}
		as := append([]int(nil), a...)
		bs := append([]int(nil), b...)
		sort.Ints(as)
		sort.Ints(bs)
		for i := range as {
			if as[i] != bs[i] {
				same = false
				break
			}
		}
	}
	if same {
		t.Error("first two repeats produced identical folds")
	}
}

func TestTrainTestSplitStratified(t *testing.T) {
	// Outcome spans two well-separated groups; stratification should put
	// part of each group in the test set.
	y := make([]float64, 40)
	for i := 0; i < 20; i++ {
		y[i] = float64(i)
	}
	for i := 20; i < 40; i++ {
		y[i] = 1000 + float64(i)
	}

	trainIdx, testIdx, err := TrainTestSplit(y, 0.25, 4, 42)
	if err != nil {
		t.Fatalf("TrainTestSplit failed: %v", err)
	}

	if len(trainIdx)+len(testIdx) != 40 {
		t.Fatalf("split covers %d samples, want 40", len(trainIdx)+len(testIdx))
	}
	if len(testIdx) < 8 || len(testIdx) > 12 {
		t.Errorf("test size = %d, want about 10", len(testIdx))
	}

	var lowTest, highTest int
	for _, idx := range testIdx {
		if y[idx] < 500 {
			lowTest++
		} else {
			highTest++
		}
	}
	if lowTest == 0 || highTest == 0 {
		t.Errorf("stratified split missed a group: low=%d high=%d", lowTest, highTest)
	}

	// No overlap.
	inTest := make(map[int]bool)
	for _, idx := range testIdx {
		inTest[idx] = true
	}
	for _, idx := range trainIdx {
		if inTest[idx] {
			t.Fatalf("sample %d is in both train and test", idx)
		}
	}
}

func TestTrainTestSplitDeterministic(t *testing.T) {
	y := make([]float64, 30)
	for i := range y {
		y[i] = math.Sin(float64(i))
	}

	_, test1, err := TrainTestSplit(y, 0.3, 4, 7)
	if err != nil {
		t.Fatalf("TrainTestSplit failed: %v", err)
	}
	_, test2, err := TrainTestSplit(y, 0.3, 4, 7)
	if err != nil {
		t.Fatalf("TrainTestSplit failed: %v", err)
	}

	if len(test1) != len(test2) {
		t.Fatalf("test sizes differ: %d vs %d", len(test1), len(test2))
	}
	for i := range test1 {
		if test1[i] != test2[i] {
			t.Fatalf("identically seeded splits differ at %d", i)
		}
	}
}

func TestTrainTestSplitValidation(t *testing.T) {
	if _, _, err := TrainTestSplit(nil, 0.3, 4, 0); err == nil {
		t.Error("empty outcome should return an error")
	}
	if _, _, err := TrainTestSplit([]float64{1, 2, 3}, 1.5, 4, 0); err == nil {
		t.Error("test size above 1 should return an error")
	}
	if _, _, err := TrainTestSplit([]float64{1, 2, 3}, 0, 4, 0); err == nil {
		t.Error("zero test size should return an error")
	}
}
