package chart

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var pngBarColor = color.RGBA{R: 0x4C, G: 0x78, B: 0xA8, A: 0xFF}

// RenderPNG draws the chart as a horizontal bar chart PNG on w. The canvas
// uses the same width and height as the SVG rendering, with one pixel mapped
// to one point.
func RenderPNG(w io.Writer, c Chart, opts Options) error {
	if err := c.validate(); err != nil {
		return err
	}
	opts = opts.withDefaults()

	// gonum stacks nominal rows bottom-up; reverse so row 0 is on top.
	n := len(c.Values)
	values := make(plotter.Values, n)
	labels := make([]string, n)
	for i := range c.Values {
		values[n-1-i] = c.Values[i]
		labels[n-1-i] = c.Labels[i]
	}

	p := plot.New()
	p.Title.Text = c.Title
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = fmt.Sprintf("%s (%s)", c.XLabel, c.Unit)

	bars, err := plotter.NewBarChart(values, vg.Points(opts.BarHeight))
	if err != nil {
		return fmt.Errorf("build bar chart: %w", err)
	}
	bars.Horizontal = true
	bars.Color = pngBarColor
	bars.LineStyle.Width = vg.Length(0)

	p.Add(plotter.NewGrid(), bars)
	p.NominalY(labels...)

	wt, err := p.WriterTo(vg.Points(opts.Width), vg.Points(opts.Height(n)), "png")
	if err != nil {
		return fmt.Errorf("prepare png canvas: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}
