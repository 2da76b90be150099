package errors

import (
	"strings"
	"testing"
)

func TestNotFittedError(t *testing.T) {
	err := NewNotFittedError("Lasso", "Predict")

	var nfe *NotFittedError
	if !As(err, &nfe) {
		t.Fatalf("expected NotFittedError in chain, got %T", err)
	}

	if nfe.ModelName != "Lasso" || nfe.Method != "Predict" {
		t.Errorf("unexpected fields: %+v", nfe)
	}

	if !strings.Contains(err.Error(), "not fitted yet") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestDimensionError(t *testing.T) {
	tests := []struct {
		name     string
		axis     int
		wantWord string
	}{
		{name: "row axis", axis: 0, wantWord: "rows"},
		{name: "feature axis", axis: 1, wantWord: "features"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDimensionError("RMSE", 10, 8, tt.axis)
			if !strings.Contains(err.Error(), tt.wantWord) {
				t.Errorf("message %q missing %q", err.Error(), tt.wantWord)
			}

			var de *DimensionError
			if !As(err, &de) {
				t.Fatalf("expected DimensionError in chain")
			}
			if de.Expected != 10 || de.Got != 8 {
				t.Errorf("unexpected fields: %+v", de)
			}
		})
	}
}

func TestModelErrorUnwrap(t *testing.T) {
	err := NewModelError("Lasso.Fit", "solver failure", ErrSingularMatrix)

	if !Is(err, ErrSingularMatrix) {
		t.Errorf("expected wrapped ErrSingularMatrix, got %v", err)
	}
}

func TestWarnHandler(t *testing.T) {
	var captured error
	SetWarningHandler(func(w error) { captured = w })
	defer SetWarningHandler(func(w error) {})

	warning := NewConvergenceWarning("Lasso", 1000, "duality gap above tolerance")
	Warn(warning)

	if captured == nil {
		t.Fatal("warning handler was not invoked")
	}
	if !strings.Contains(captured.Error(), "1000 iterations") {
		t.Errorf("unexpected warning message: %v", captured)
	}
}

func TestConvergenceWarningMessage(t *testing.T) {
	tests := []struct {
		name    string
		warning *ConvergenceWarning
		want    string
	}{
		{
			name:    "with message",
			warning: NewConvergenceWarning("Lasso", 500, "gap 0.01"),
			want:    "Lasso failed to converge after 500 iterations: gap 0.01",
		},
		{
			name:    "default message",
			warning: NewConvergenceWarning("Lasso", 500, ""),
			want:    "Consider increasing max_iter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.warning.Error(), tt.want) {
				t.Errorf("Error() = %q, want substring %q", tt.warning.Error(), tt.want)
			}
		})
	}
}
