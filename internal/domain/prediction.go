package domain

import "time"

// RoomTypeLabels are the room-type choices offered for prediction, index-prefixed
// with the encoding the model was trained on.
var RoomTypeLabels = []string{
	"0 - Entire home/apt",
	"1 - Private room",
	"2 - Shared room",
	"3 - Hotel room",
}

// Prediction input bounds.
const (
	NightsMin       = 1
	NightsMax       = 1000
	AvailabilityMin = 1
	AvailabilityMax = 365
)

// Neighbourhood is one entry of the neighbourhood lookup table.
type Neighbourhood struct {
	Code  int    `json:"code"`
	Name  string `json:"name"`
	Label string `json:"label"`
}

type PredictionRequest struct {
	Neighbourhood string `json:"neighbourhood"`
	RoomType      string `json:"room_type"`
	Nights        int    `json:"nights"`
	Availability  int    `json:"availability"`
}

type Prediction struct {
	Features  []float64 `json:"features"`
	Price     float64   `json:"price"`
	Formatted string    `json:"formatted"`
	Message   string    `json:"message"`
}

// ModelInfo describes the loaded regression model.
type ModelInfo struct {
	Features       []string  `json:"features"`
	Neighbourhoods int       `json:"neighbourhoods"`
	TrainedAt      time.Time `json:"trained_at"`
	R2             float64   `json:"r2"`
	RMSE           float64   `json:"rmse"`
	Samples        int       `json:"samples"`
	LookupMatches  bool      `json:"lookup_matches"`
}
