// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package wave

import (
	"io"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// PlotOptions sets the size and format of a plot.
//
type PlotOptions struct {
	Title  string
	Width  vg.Length // 0 means 16cm
	Lane   vg.Length // height of each trace, 0 means 1.5cm
	Format string    // png, svg, pdf, eps, jpg or tiff. Empty means png.
}

// WritePlot draws traces as a timing diagram, one lane per trace with the
// first trace on top. Z and X levels are drawn half way between low and
// high.
//
func WritePlot(w io.Writer, ts []Trace, o PlotOptions) error {
	if err := checkTraces(ts); err != nil {
		return err
	}
	if o.Width <= 0 {
		o.Width = 16 * vg.Centimeter
	}
	if o.Lane <= 0 {
		o.Lane = 1.5 * vg.Centimeter
	}
	if o.Format == "" {
		o.Format = "png"
	}

	p := plot.New()
	p.Title.Text = o.Title
	p.X.Label.Text = "step"
	p.X.Min = 0
	var ticks []plot.Tick
	steps := 0
	for i, t := range ts {
		base := float64(len(ts)-1-i) * laneHeight
		// one extra point so that the last step gets its full width
		pts := make(plotter.XYs, len(t.Levels)+1)
		for j, l := range t.Levels {
			pts[j].X, pts[j].Y = float64(j), base+y(l)
		}
		if n := len(t.Levels); n > 0 {
			pts[n].X, pts[n].Y = float64(n), pts[n-1].Y
		} else {
			pts[0].Y = base + y(0)
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return errors.Wrapf(err, "trace %s", t.Name)
		}
		line.StepStyle = plotter.PostStep
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		p.Add(line)
		ticks = append(ticks, plot.Tick{Value: base + 0.5, Label: t.Name})
		if len(t.Levels) > steps {
			steps = len(t.Levels)
		}
	}
	p.X.Max = float64(steps)
	p.Y.Min = -0.25
	p.Y.Max = float64(len(ts)-1)*laneHeight + 1.25
	p.Y.Tick.Marker = plot.ConstantTicks(ticks)
	p.Add(plotter.NewGrid())

	wt, err := p.WriterTo(o.Width, o.Lane*vg.Length(len(ts))+2*vg.Centimeter, o.Format)
	if err != nil {
		return errors.Wrap(err, "plot")
	}
	_, err = wt.WriteTo(w)
	return errors.Wrap(err, "write plot")
}
