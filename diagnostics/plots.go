// Package diagnostics renders the model evaluation plots: predicted vs
// observed, residuals, feature importances, and the cross-validated RMSE
// comparison across model families.
package diagnostics

import (
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/clearwaterlab/microplastics/pkg/errors"
)

var (
	pointColor = color.RGBA{R: 20, G: 80, B: 200, A: 220}
	lineColor  = color.RGBA{R: 200, G: 30, B: 30, A: 200}
)

// Plotter writes diagnostic PNGs into a results directory.
type Plotter struct {
	OutDir string
}

// NewPlotter creates the results directory if needed.
func NewPlotter(outDir string) (*Plotter, error) {
	if outDir == "" {
		return nil, errors.NewValidationError("diagnostics.out_dir", "must not be empty", outDir)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating results directory %s", outDir)
	}
	return &Plotter{OutDir: outDir}, nil
}

// PredictedVsObserved renders a scatter of predictions against observed
// values with a y=x reference line. Returns the written file path.
func (pl *Plotter) PredictedVsObserved(observed, predicted []float64, name string) (string, error) {
	if len(observed) != len(predicted) {
		return "", errors.NewDimensionError("PredictedVsObserved", len(observed), len(predicted), 0)
	}
	if len(observed) == 0 {
		return "", errors.Wrap(errors.ErrEmptyData, "PredictedVsObserved")
	}

	p := plot.New()
	p.Title.Text = "Predicted vs observed"
	p.X.Label.Text = "observed particles per liter"
	p.Y.Label.Text = "predicted particles per liter"

	pts := make(plotter.XYs, len(observed))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range observed {
		pts[i] = plotter.XY{X: observed[i], Y: predicted[i]}
		lo = math.Min(lo, math.Min(observed[i], predicted[i]))
		hi = math.Max(hi, math.Max(observed[i], predicted[i]))
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return "", errors.Wrap(err, "building scatter")
	}
	scatter.GlyphStyle.Color = pointColor
	scatter.GlyphStyle.Radius = vg.Points(2.2)
	p.Add(scatter)
	p.Legend.Add(name, scatter)

	// y = x reference.
	ref, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return "", errors.Wrap(err, "building reference line")
	}
	ref.Color = lineColor
	ref.Width = vg.Points(1)
	p.Add(ref)

	p.Add(plotter.NewGrid())

	return pl.save(p, name+"_pred_vs_obs.png")
}

// ResidualsVsPredicted renders residuals against predictions with a zero
// reference line.
func (pl *Plotter) ResidualsVsPredicted(predicted, residuals []float64, name string) (string, error) {
	if len(predicted) != len(residuals) {
		return "", errors.NewDimensionError("ResidualsVsPredicted", len(predicted), len(residuals), 0)
	}
	if len(predicted) == 0 {
		return "", errors.Wrap(errors.ErrEmptyData, "ResidualsVsPredicted")
	}

	p := plot.New()
	p.Title.Text = "Residuals vs predicted"
	p.X.Label.Text = "predicted particles per liter"
	p.Y.Label.Text = "residual"

	pts := make(plotter.XYs, len(predicted))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range predicted {
		pts[i] = plotter.XY{X: predicted[i], Y: residuals[i]}
		lo = math.Min(lo, predicted[i])
		hi = math.Max(hi, predicted[i])
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return "", errors.Wrap(err, "building scatter")
	}
	scatter.GlyphStyle.Color = pointColor
	scatter.GlyphStyle.Radius = vg.Points(2.2)
	p.Add(scatter)
	p.Legend.Add(name, scatter)

	zero, err := plotter.NewLine(plotter.XYs{{X: lo, Y: 0}, {X: hi, Y: 0}})
	if err != nil {
		return "", errors.Wrap(err, "building zero line")
	}
	zero.Color = lineColor
	zero.Width = vg.Points(1)
	p.Add(zero)

	p.Add(plotter.NewGrid())

	return pl.save(p, name+"_residuals.png")
}

// FeatureImportances renders a bar chart of importances labeled with
// feature names.
func (pl *Plotter) FeatureImportances(features []string, importances []float64, name string) (string, error) {
	if len(features) != len(importances) {
		return "", errors.NewDimensionError("FeatureImportances", len(features), len(importances), 0)
	}
	if len(features) == 0 {
		return "", errors.Wrap(errors.ErrEmptyData, "FeatureImportances")
	}

	p := plot.New()
	p.Title.Text = "Feature importance"
	p.Y.Label.Text = "importance"

	bars, err := plotter.NewBarChart(plotter.Values(importances), vg.Points(18))
	if err != nil {
		return "", errors.Wrap(err, "building bar chart")
	}
	bars.Color = pointColor
	p.Add(bars)
	p.NominalX(features...)

	return pl.save(p, name+"_importance.png")
}

// ModelComparison renders the cross-validated RMSE of each model family
// as a bar chart. The null baseline goes in alongside the fitted models.
func (pl *Plotter) ModelComparison(families []string, cvRMSE []float64) (string, error) {
	if len(families) != len(cvRMSE) {
		return "", errors.NewDimensionError("ModelComparison", len(families), len(cvRMSE), 0)
	}
	if len(families) == 0 {
		return "", errors.Wrap(errors.ErrEmptyData, "ModelComparison")
	}

	p := plot.New()
	p.Title.Text = "Cross-validated RMSE by model family"
	p.Y.Label.Text = "RMSE"

	bars, err := plotter.NewBarChart(plotter.Values(cvRMSE), vg.Points(24))
	if err != nil {
		return "", errors.Wrap(err, "building bar chart")
	}
	bars.Color = pointColor
	p.Add(bars)
	p.NominalX(families...)

	return pl.save(p, "model_comparison.png")
}

func (pl *Plotter) save(p *plot.Plot, filename string) (string, error) {
	outPath := filepath.Join(pl.OutDir, filename)
	if err := p.Save(8*vg.Inch, 6*vg.Inch, outPath); err != nil {
		return "", errors.Wrapf(err, "saving %s", outPath)
	}
	return outPath, nil
}
