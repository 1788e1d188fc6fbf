// Package chart renders horizontal bar charts.
//
// RenderSVG is the primary renderer: it writes the SVG document by hand so
// figures can be produced without any plotting runtime. RenderPNG draws the
// same data through gonum/plot for consumers that need a raster image.
package chart

import (
	"encoding/xml"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	barGap        = 6
	labelCharW    = 12
	maxLabelWidth = 240
	barColor      = "#4C78A8"
)

var (
	// ErrEmptyChart is returned when there is nothing to draw.
	ErrEmptyChart = errors.New("chart has no bars")
	// ErrLengthMismatch is returned when labels and values differ in length.
	ErrLengthMismatch = errors.New("chart labels and values differ in length")
)

// Chart is the data of one bar chart. Bars are drawn top to bottom in the
// order given; the renderer never sorts.
type Chart struct {
	Title  string
	Labels []string
	Values []float64
	XLabel string
	Unit   string
}

// Options controls the canvas geometry, in pixels.
type Options struct {
	Width      float64
	BarHeight  float64
	LabelWidth float64
	Margin     float64
}

// DefaultOptions returns the standard figure geometry.
func DefaultOptions() Options {
	return Options{Width: 1200, BarHeight: 18, LabelWidth: 140, Margin: 30}
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.BarHeight <= 0 {
		o.BarHeight = d.BarHeight
	}
	if o.LabelWidth <= 0 {
		o.LabelWidth = d.LabelWidth
	}
	if o.Margin <= 0 {
		o.Margin = d.Margin
	}
	return o
}

func (c Chart) validate() error {
	if len(c.Labels) != len(c.Values) {
		return fmt.Errorf("%w: %d labels, %d values", ErrLengthMismatch, len(c.Labels), len(c.Values))
	}
	if len(c.Values) == 0 {
		return ErrEmptyChart
	}
	return nil
}

// Height returns the canvas height for n bars: 2*margin + n*(bar+6) + 40.
func (o Options) Height(n int) float64 {
	o = o.withDefaults()
	return 2*o.Margin + float64(n)*(o.BarHeight+barGap) + 40
}

// labelColumn widens the label column to fit the longest label, capped at
// 240px, and never narrows it below the configured width.
func (o Options) labelColumn(labels []string) float64 {
	longest := 0
	for _, l := range labels {
		longest = max(longest, utf8.RuneCountInString(l))
	}
	return max(o.LabelWidth, min(maxLabelWidth, float64(longest*labelCharW)))
}

// RenderSVG returns a self-contained SVG document for the chart. The value
// axis spans [min, max] of the values (widened by ±1 when they are all equal)
// and a dashed line marks zero: positive bars grow right of it, negative bars
// left.
func RenderSVG(c Chart, opts Options) (string, error) {
	if err := c.validate(); err != nil {
		return "", err
	}
	opts = opts.withDefaults()

	width := opts.Width
	margin := opts.Margin
	labelWidth := opts.labelColumn(c.Labels)
	chartWidth := width - labelWidth - 2*margin
	height := opts.Height(len(c.Values))

	lo, hi := slices.Min(c.Values), slices.Max(c.Values)
	if lo == hi {
		lo--
		hi++
	}
	scale := func(v float64) float64 {
		return (v - lo) / (hi - lo) * chartWidth
	}

	plotLeft := labelWidth + margin
	zeroX := plotLeft + scale(0)
	axisY := height - margin - 30

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s">`+"\n", num(width), num(height))
	b.WriteString("<style>text{font-family:Arial,sans-serif;font-size:12px;}</style>\n")
	fmt.Fprintf(&b, `<text x="%s" y="%s" text-anchor="middle" font-size="16">%s</text>`+"\n",
		num(width/2), num(margin), escape(c.Title))
	fmt.Fprintf(&b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="#333"/>`+"\n",
		num(plotLeft), num(axisY), num(width-margin), num(axisY))
	fmt.Fprintf(&b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="#666" stroke-dasharray="4"/>`+"\n",
		num(zeroX), num(margin+20), num(zeroX), num(axisY))

	y := margin + 30
	textY := opts.BarHeight - 4
	for i, v := range c.Values {
		barLen := scale(v) - scale(0)
		barX := zeroX
		if barLen < 0 {
			barX = zeroX + barLen
		}
		barW := math.Abs(barLen)

		fmt.Fprintf(&b, `<text x="%s" y="%s" text-anchor="end">%s</text>`+"\n",
			num(plotLeft-6), num(y+textY), escape(c.Labels[i]))
		fmt.Fprintf(&b, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`+"\n",
			num(barX), num(y), num(barW), num(opts.BarHeight), barColor)
		fmt.Fprintf(&b, `<text x="%s" y="%s">%.2f</text>`+"\n",
			num(barX+barW+4), num(y+textY), v)
		y += opts.BarHeight + barGap
	}

	fmt.Fprintf(&b, `<text x="%s" y="%s" text-anchor="end">%s</text>`+"\n",
		num(width-margin), num(height-margin), escape(c.XLabel+" ("+c.Unit+")"))
	b.WriteString("</svg>")
	return b.String(), nil
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func escape(s string) string {
	var b strings.Builder
	xml.EscapeText(&b, []byte(s)) //nolint:errcheck // strings.Builder never fails
	return b.String()
}
