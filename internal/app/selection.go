package app

import (
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"airbnb_eda/internal/domain"
)

// Select applies the filter state as one conjunctive predicate and returns the
// selection columns. Rows keep table order unless s names a column.
func Select(df dataframe.DataFrame, f domain.FilterState, s domain.SortOrder) dataframe.DataFrame {
	if df.Nrow() == 0 {
		return df.Select(domain.SelectionColumns)
	}

	filters := []dataframe.F{
		{Colname: domain.ColNeighbourhood, Comparator: series.CompFunc, Comparando: memberOf(f.Neighbourhoods)},
		{Colname: domain.ColRoomType, Comparator: series.CompFunc, Comparando: memberOf(f.RoomTypes)},
		{Colname: domain.ColMinimumNights, Comparator: series.GreaterEq, Comparando: f.MinNights},
		{Colname: domain.ColMinimumNights, Comparator: series.LessEq, Comparando: f.MaxNights},
		{Colname: domain.ColPrice, Comparator: series.LessEq, Comparando: float64(f.MaxPrice)},
	}
	if f.Name != "" {
		filters = append(filters, dataframe.F{
			Colname:    domain.ColName,
			Comparator: series.CompFunc,
			Comparando: func(el series.Element) bool {
				return !el.IsNA() && strings.Contains(el.String(), f.Name)
			},
		})
	}

	out := df.FilterAggregation(dataframe.And, filters...).Select(domain.SelectionColumns)
	if s.Column != "" && out.Nrow() > 1 {
		if s.Desc {
			out = out.Arrange(dataframe.RevSort(s.Column))
		} else {
			out = out.Arrange(dataframe.Sort(s.Column))
		}
	}
	return out
}

// memberOf matches elements whose value is in set. An empty set matches nothing.
func memberOf(set []string) func(series.Element) bool {
	in := make(map[string]bool, len(set))
	for _, v := range set {
		in[v] = true
	}
	return func(el series.Element) bool {
		return !el.IsNA() && in[el.String()]
	}
}

// Rows extracts the selection rows from a table with the selection columns.
func Rows(sel dataframe.DataFrame) []domain.Row {
	n := sel.Nrow()
	rows := make([]domain.Row, n)
	if n == 0 {
		return rows
	}
	names := sel.Col(domain.ColName).Records()
	hoods := sel.Col(domain.ColNeighbourhood).Records()
	rooms := sel.Col(domain.ColRoomType).Records()
	nights := sel.Col(domain.ColMinimumNights).Float()
	avail := sel.Col(domain.ColAvailability365).Float()
	reviews := sel.Col(domain.ColNumberOfReviews).Float()
	price := sel.Col(domain.ColPrice).Float()
	for i := range rows {
		rows[i] = domain.Row{
			Name:            names[i],
			Neighbourhood:   hoods[i],
			RoomType:        rooms[i],
			MinimumNights:   int(orZero(nights[i])),
			Availability365: int(orZero(avail[i])),
			NumberOfReviews: int(orZero(reviews[i])),
			Price:           price[i],
		}
	}
	return rows
}
