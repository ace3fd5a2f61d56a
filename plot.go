package genevector

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Plot renders the per-epoch mean-loss trace as a line chart and writes
// it to path, with the image format taken from the extension
// ("loss.png" when path is empty). logX switches the epoch axis to a
// log scale; epochs are numbered from 1 so the scale stays defined.
func (t *Trainer) Plot(path string, logX bool) error {
	if path == "" {
		path = "loss.png"
	}
	p := plot.New()
	p.X.Label.Text = "Epoch"
	p.Y.Label.Text = "Loss"
	pts := make(plotter.XYs, len(t.MeanLossValues))
	for i, v := range t.MeanLossValues {
		pts[i].X = float64(i + 1)
		pts[i].Y = v
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = color.RGBA{R: 128, B: 128, A: 255}
	p.Add(line)
	if logX {
		p.X.Scale = plot.LogScale{}
		p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	}
	return p.Save(12*vg.Inch, 5*vg.Inch, path)
}
