package app

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"

	"airbnb_eda/internal/domain"
)

// Chart kinds.
const (
	ChartCheapest     = "cheapest"
	ChartMostReviewed = "most-reviewed"
)

const topN = 10

var ChartKinds = []string{ChartCheapest, ChartMostReviewed}

// Rank builds the top 10 chart of kind over a selection: lowest Price for
// "cheapest", highest NumberOfReviews for "most-reviewed". Ties keep selection order.
func Rank(sel dataframe.DataFrame, kind string) (domain.Chart, error) {
	var (
		c     domain.Chart
		order dataframe.Order
		col   string
	)
	switch kind {
	case ChartCheapest:
		c = domain.Chart{Kind: kind, Title: "Top 10 cheapest listings", Axis: domain.ColPrice}
		col, order = domain.ColPrice, dataframe.Sort(domain.ColPrice)
	case ChartMostReviewed:
		c = domain.Chart{Kind: kind, Title: "Top 10 most reviewed", Axis: domain.ColNumberOfReviews}
		col, order = domain.ColNumberOfReviews, dataframe.RevSort(domain.ColNumberOfReviews)
	default:
		return domain.Chart{}, fmt.Errorf("%w: chart %q", domain.ErrNotFound, kind)
	}

	c.Bars = []domain.Bar{}
	n := sel.Nrow()
	if n == 0 {
		return c, nil
	}
	if n > 1 {
		sel = sel.Arrange(order)
	}
	if n > topN {
		idx := make([]int, topN)
		for i := range idx {
			idx[i] = i
		}
		sel = sel.Subset(idx)
	}

	names := sel.Col(domain.ColName).Records()
	vals := sel.Col(col).Float()
	for i := range names {
		c.Bars = append(c.Bars, domain.Bar{Label: names[i], Value: orZero(vals[i])})
	}
	return c, nil
}
