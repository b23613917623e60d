package domain

import (
	"encoding/json"
	"math"
	"strconv"
)

// Column names of the cleaned listings table.
const (
	ColID              = "id"
	ColName            = "Name"
	ColHostID          = "host_id"
	ColHostName        = "HostName"
	ColNeighbourhood   = "Neighbourhood"
	ColLatitude        = "latitude"
	ColLongitude       = "longitude"
	ColRoomType        = "RoomType"
	ColPrice           = "Price"
	ColMinimumNights   = "MinimumNights"
	ColNumberOfReviews = "NumberOfReviews"
	ColAvailability365 = "Availability365"
)

// Price bounds kept by load-and-clean: MinPriceExclusive < price <= MaxPrice.
const (
	MinPriceExclusive = 0.0
	MaxPrice          = 6000.0
)

// SelectionColumns is the column order of a selection (the table shown to users).
var SelectionColumns = []string{
	ColName, ColNeighbourhood, ColRoomType, ColMinimumNights,
	ColAvailability365, ColNumberOfReviews, ColPrice,
}

// Listing is one cleaned listing row. Optional numbers are nil when the source
// value was missing; Price is always set after cleaning.
type Listing struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	HostID          string   `json:"host_id"`
	HostName        string   `json:"host_name"`
	Neighbourhood   string   `json:"neighbourhood"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	RoomType        string   `json:"room_type"`
	Price           float64  `json:"price"`
	MinimumNights   *int     `json:"minimum_nights"`
	NumberOfReviews *int     `json:"number_of_reviews"`
	Availability365 *int     `json:"availability_365"`
}

// Row is one line of a selection.
type Row struct {
	Name            string  `json:"name"`
	Neighbourhood   string  `json:"neighbourhood"`
	RoomType        string  `json:"room_type"`
	MinimumNights   int     `json:"minimum_nights"`
	Availability365 int     `json:"availability_365"`
	NumberOfReviews int     `json:"number_of_reviews"`
	Price           float64 `json:"price"`
}

// FilterState is the set of user constraints that derive a selection.
// All predicates are combined with AND.
type FilterState struct {
	Neighbourhoods []string `json:"neighbourhoods"`
	RoomTypes      []string `json:"room_types"`
	MinNights      int      `json:"min_nights"`
	MaxNights      int      `json:"max_nights"`
	MaxPrice       int      `json:"max_price"`
	Name           string   `json:"name"`
}

// SortOrder orders a selection by one of SelectionColumns.
type SortOrder struct {
	Column string `json:"column,omitempty"`
	Desc   bool   `json:"desc,omitempty"`
}

// Metric is an aggregate that may be undefined (NaN) over an empty selection.
// It encodes NaN as JSON null.
type Metric float64

func (m Metric) Valid() bool { return !math.IsNaN(float64(m)) }

func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(m))
}

func (m *Metric) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*m = Metric(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*m = Metric(f)
	return nil
}

func (m Metric) String() string {
	if !m.Valid() {
		return "NaN"
	}
	return strconv.FormatFloat(float64(m), 'f', 2, 64)
}

// Summary holds the three KPIs of a selection.
type Summary struct {
	Count               int    `json:"count"`
	AveragePrice        Metric `json:"average_price"`
	TotalReviews        int    `json:"total_reviews"`
	AverageAvailability Metric `json:"average_availability"`
}

// Selection is the filtered view plus its KPIs.
type Selection struct {
	DatasetVersion string      `json:"dataset_version"`
	Filter         FilterState `json:"filter"`
	Sort           SortOrder   `json:"sort"`
	Rows           []Row       `json:"rows"`
	Summary        Summary     `json:"summary"`
}

// FilterOptions describes the controls offered for the current dataset.
type FilterOptions struct {
	Neighbourhoods []string    `json:"neighbourhoods"`
	RoomTypes      []string    `json:"room_types"`
	PriceMin       int         `json:"price_min"`
	PriceMax       int         `json:"price_max"`
	NightsMin      int         `json:"nights_min"`
	NightsMax      int         `json:"nights_max"`
	Defaults       FilterState `json:"defaults"`
}

// Bar is one bar of a chart.
type Bar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Chart is a ranked top-N bar chart.
type Chart struct {
	Kind  string `json:"kind"`
	Title string `json:"title"`
	Axis  string `json:"axis"`
	Bars  []Bar  `json:"bars"`
}
