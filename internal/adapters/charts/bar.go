// Package charts renders ranked listings as standalone go-echarts pages.
package charts

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"airbnb_eda/internal/domain"
)

// Bar builds a horizontal bar chart. The first bar is drawn on top.
func Bar(c domain.Chart) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: c.Title,
			Width:     "100%",
			Height:    "420px",
		}),
		charts.WithTitleOpts(opts.Title{Title: c.Title}),
		charts.WithXAxisOpts(opts.XAxis{Name: c.Axis}),
	)

	// category axes grow upwards, so feed the bars in reverse
	labels := make([]string, len(c.Bars))
	data := make([]opts.BarData, len(c.Bars))
	for i, b := range c.Bars {
		j := len(c.Bars) - 1 - i
		labels[j] = b.Label
		data[j] = opts.BarData{Name: b.Label, Value: b.Value}
	}
	bar.SetXAxis(labels).AddSeries(c.Axis, data)
	bar.XYReversal()
	return bar
}

// Render writes the chart as a self-contained HTML page.
func Render(w io.Writer, c domain.Chart) error {
	return Bar(c).Render(w)
}
