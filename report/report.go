package report

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/cwbudde/algo-anomaly/internal/fault"
	"github.com/cwbudde/algo-anomaly/metrics"
	"github.com/cwbudde/algo-anomaly/nn"
)

// Default file names inside the output directory.
const (
	HistogramFile = "feature_histogram.png"
	ACFFile       = "autocorrelation.png"
	LossFile      = "loss_curves.png"
	ConfusionFile = "confusion_matrix.png"
)

// DefaultBins is the histogram resolution.
const DefaultBins = 30

const (
	width  = 8 * vg.Inch
	height = 4 * vg.Inch
)

// Histogram plots the distribution of values.
func Histogram(path, title string, values []float64, bins int) error {
	if len(values) == 0 {
		return fault.Input("report: histogram of no values")
	}
	if bins < 1 {
		return fault.Configuration("report: %d histogram bins", bins)
	}
	if err := checkFinite(values); err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "value"
	p.Y.Label.Text = "count"

	h, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return errors.Wrap(err, "report: histogram")
	}
	p.Add(h)
	return save(p, width, height, path)
}

// ACF plots one autocorrelation curve per series against the lag.
func ACF(path, title string, series [][]float64) error {
	if len(series) == 0 {
		return fault.Input("report: no autocorrelation series")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "lag"
	p.Y.Label.Text = "autocorrelation"
	p.Add(plotter.NewGrid())

	for i, acf := range series {
		if err := checkFinite(acf); err != nil {
			return err
		}
		line, err := plotter.NewLine(lagXYs(acf))
		if err != nil {
			return errors.Wrap(err, "report: autocorrelation")
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("sequence %d", i), line)
	}
	return save(p, width, height, path)
}

// LossCurves plots training and validation loss per epoch and marks the
// restored epoch.
func LossCurves(path string, h nn.History) error {
	if len(h.Epochs) == 0 {
		return fault.Input("report: empty history")
	}

	train := make(plotter.XYs, len(h.Epochs))
	valid := make(plotter.XYs, len(h.Epochs))
	for i, e := range h.Epochs {
		train[i] = plotter.XY{X: float64(e.Epoch), Y: e.Loss}
		valid[i] = plotter.XY{X: float64(e.Epoch), Y: e.ValLoss}
	}
	if err := checkFinite(append(ys(train), ys(valid)...)); err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = "Model loss"
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = "loss"
	p.Add(plotter.NewGrid())

	for i, s := range []struct {
		name string
		xys  plotter.XYs
	}{{"train", train}, {"validation", valid}} {
		line, err := plotter.NewLine(s.xys)
		if err != nil {
			return errors.Wrap(err, "report: loss curves")
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}

	best := h.Best()
	marker, err := plotter.NewScatter(plotter.XYs{{X: float64(best.Epoch), Y: best.ValLoss}})
	if err != nil {
		return errors.Wrap(err, "report: loss curves")
	}
	marker.Shape = plotutil.Shape(1)
	p.Add(marker)
	p.Legend.Add("restored", marker)

	return save(p, width, height, path)
}

// Confusion renders c as an annotated heatmap with actual labels on the
// vertical and predicted labels on the horizontal axis.
func Confusion(path string, c metrics.Confusion) error {
	if c.Total() == 0 {
		return fault.Input("report: empty confusion matrix")
	}

	g := confusionGrid(c.Matrix())
	hm := plotter.NewHeatMap(g, palette.Heat(12, 1))

	var cells plotter.XYLabels
	for r := 0; r < 2; r++ {
		for col := 0; col < 2; col++ {
			cells.XYs = append(cells.XYs, plotter.XY{X: float64(col), Y: float64(r)})
			cells.Labels = append(cells.Labels, fmt.Sprint(g[r][col]))
		}
	}
	labels, err := plotter.NewLabels(cells)
	if err != nil {
		return errors.Wrap(err, "report: confusion matrix")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Confusion matrix (F1 %.3f)", c.F1())
	p.X.Label.Text = "predicted"
	p.Y.Label.Text = "actual"
	p.Add(hm, labels)
	p.NominalX("healthy", "anomaly")
	p.NominalY("healthy", "anomaly")
	return save(p, 5*vg.Inch, 5*vg.Inch, path)
}

// confusionGrid is [actual][predicted].
type confusionGrid [2][2]int

func (g confusionGrid) Dims() (c, r int)   { return 2, 2 }
func (g confusionGrid) Z(c, r int) float64 { return float64(g[r][c]) }
func (g confusionGrid) X(c int) float64    { return float64(c) }
func (g confusionGrid) Y(r int) float64    { return float64(r) }

func lagXYs(acf []float64) plotter.XYs {
	out := make(plotter.XYs, len(acf))
	for k, v := range acf {
		out[k] = plotter.XY{X: float64(k), Y: v}
	}
	return out
}

func ys(xys plotter.XYs) []float64 {
	out := make([]float64, len(xys))
	for i, p := range xys {
		out[i] = p.Y
	}
	return out
}

func checkFinite(values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fault.Numeric("report: value %d is %v", i, v)
		}
	}
	return nil
}

func save(p *plot.Plot, w, h vg.Length, path string) error {
	return errors.Wrapf(p.Save(w, h, path), "report: save %s", path)
}
