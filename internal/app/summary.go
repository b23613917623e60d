package app

import (
	"math"

	"github.com/go-gota/gota/dataframe"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"airbnb_eda/internal/domain"
)

// Summarize computes the KPIs of a selection. Means over an empty selection are NaN.
func Summarize(sel dataframe.DataFrame) domain.Summary {
	n := sel.Nrow()
	if n == 0 {
		return domain.Summary{
			AveragePrice:        domain.Metric(math.NaN()),
			AverageAvailability: domain.Metric(math.NaN()),
		}
	}
	return domain.Summary{
		Count:               n,
		AveragePrice:        domain.Metric(round2(stat.Mean(present(sel.Col(domain.ColPrice).Float()), nil))),
		TotalReviews:        int(floats.Sum(present(sel.Col(domain.ColNumberOfReviews).Float()))),
		AverageAvailability: domain.Metric(round2(stat.Mean(present(sel.Col(domain.ColAvailability365).Float()), nil))),
	}
}

// present drops missing values, matching how dataframe aggregations skip NA.
func present(xs []float64) []float64 {
	out := xs[:0:0]
	for _, x := range xs {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

var printer = message.NewPrinter(language.English)

// FormatPrice renders a price as R$1,234.50; NaN renders as "NaN".
func FormatPrice(m domain.Metric) string {
	if !m.Valid() {
		return "NaN"
	}
	return printer.Sprintf("R$%.2f", float64(m))
}

func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}

func FormatMetric(m domain.Metric) string {
	if !m.Valid() {
		return "NaN"
	}
	return printer.Sprintf("%.2f", float64(m))
}
