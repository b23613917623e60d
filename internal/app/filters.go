package app

import (
	"fmt"
	"math"
	"net/url"
	"strconv"

	"github.com/go-gota/gota/dataframe"

	"airbnb_eda/internal/domain"
)

// Default filter values offered on first render.
const (
	DefaultNeighbourhood = "Copacabana"
	DefaultRoomType      = "Entire home/apt"
	DefaultMinNights     = 1
	DefaultMaxNights     = 30
	DefaultMaxPrice      = 400
)

// Query parameter names of the filter controls.
const (
	ParamNeighbourhood = "neighbourhood"
	ParamRoomType      = "room_type"
	ParamMinNights     = "min_nights"
	ParamMaxNights     = "max_nights"
	ParamMaxPrice      = "max_price"
	ParamName          = "name"
	ParamFiltered      = "filtered"
	ParamSort          = "sort"
	ParamOrder         = "order"
)

// BuildOptions derives the control choices and defaults from a cleaned table.
func BuildOptions(df dataframe.DataFrame) domain.FilterOptions {
	opts := domain.FilterOptions{
		Neighbourhoods: []string{},
		RoomTypes:      []string{},
		NightsMin:      domain.NightsMin,
		NightsMax:      domain.NightsMax,
	}
	if df.Nrow() > 0 {
		opts.Neighbourhoods = unique(df.Col(domain.ColNeighbourhood).Records())
		opts.RoomTypes = unique(df.Col(domain.ColRoomType).Records())
		prices := df.Col(domain.ColPrice)
		opts.PriceMin = int(math.RoundToEven(prices.Min()))
		opts.PriceMax = int(math.RoundToEven(prices.Max()))
	}

	opts.Defaults = domain.FilterState{
		Neighbourhoods: pick(opts.Neighbourhoods, DefaultNeighbourhood),
		RoomTypes:      pick(opts.RoomTypes, DefaultRoomType),
		MinNights:      DefaultMinNights,
		MaxNights:      DefaultMaxNights,
		MaxPrice:       clamp(DefaultMaxPrice, opts.PriceMin, opts.PriceMax),
	}
	return opts
}

// unique keeps first-seen order.
func unique(vals []string) []string {
	seen := make(map[string]bool, len(vals))
	out := make([]string, 0)
	for _, v := range vals {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func pick(options []string, want string) []string {
	for _, o := range options {
		if o == want {
			return []string{want}
		}
	}
	return []string{}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ParseFilter reads the filter controls from query values. Absent keys take the
// defaults, except that once the form was submitted (filtered=1) an absent set
// key means the empty set.
func ParseFilter(q url.Values, opts domain.FilterOptions) (domain.FilterState, error) {
	f := opts.Defaults
	submitted := q.Get(ParamFiltered) != ""

	f.Neighbourhoods = parseSet(q, ParamNeighbourhood, submitted, opts.Defaults.Neighbourhoods)
	f.RoomTypes = parseSet(q, ParamRoomType, submitted, opts.Defaults.RoomTypes)

	var err error
	if f.MinNights, err = parseBounded(q, ParamMinNights, f.MinNights, opts.NightsMin, opts.NightsMax); err != nil {
		return f, err
	}
	if f.MaxNights, err = parseBounded(q, ParamMaxNights, f.MaxNights, opts.NightsMin, opts.NightsMax); err != nil {
		return f, err
	}
	if f.MaxPrice, err = parseBounded(q, ParamMaxPrice, f.MaxPrice, opts.PriceMin, opts.PriceMax); err != nil {
		return f, err
	}
	if q.Has(ParamName) {
		f.Name = q.Get(ParamName)
	}
	return f, nil
}

func parseSet(q url.Values, key string, submitted bool, def []string) []string {
	vals, ok := q[key]
	if !ok {
		if submitted {
			return []string{}
		}
		return append([]string{}, def...)
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseBounded(q url.Values, key string, def, lo, hi int) (int, error) {
	s := q.Get(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%w: %s must be between %d and %d", domain.ErrInvalidInput, key, lo, hi)
	}
	return n, nil
}

// ParseSort reads sort=<column>&order=asc|desc. No sort keeps the table order.
func ParseSort(q url.Values) (domain.SortOrder, error) {
	col := q.Get(ParamSort)
	if col == "" {
		return domain.SortOrder{}, nil
	}
	known := false
	for _, c := range domain.SelectionColumns {
		if c == col {
			known = true
			break
		}
	}
	if !known {
		return domain.SortOrder{}, fmt.Errorf("%w: cannot sort by %q", domain.ErrInvalidInput, col)
	}
	switch q.Get(ParamOrder) {
	case "", "asc":
		return domain.SortOrder{Column: col}, nil
	case "desc":
		return domain.SortOrder{Column: col, Desc: true}, nil
	default:
		return domain.SortOrder{}, fmt.Errorf("%w: order must be asc or desc", domain.ErrInvalidInput)
	}
}

// Encode writes a filter state and sort back to query values (used for links).
func Encode(f domain.FilterState, s domain.SortOrder) url.Values {
	q := url.Values{}
	q.Set(ParamFiltered, "1")
	for _, n := range f.Neighbourhoods {
		q.Add(ParamNeighbourhood, n)
	}
	for _, r := range f.RoomTypes {
		q.Add(ParamRoomType, r)
	}
	q.Set(ParamMinNights, strconv.Itoa(f.MinNights))
	q.Set(ParamMaxNights, strconv.Itoa(f.MaxNights))
	q.Set(ParamMaxPrice, strconv.Itoa(f.MaxPrice))
	if f.Name != "" {
		q.Set(ParamName, f.Name)
	}
	if s.Column != "" {
		q.Set(ParamSort, s.Column)
		if s.Desc {
			q.Set(ParamOrder, "desc")
		} else {
			q.Set(ParamOrder, "asc")
		}
	}
	return q
}
