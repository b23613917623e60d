package app

import (
	"strings"

	"github.com/go-gota/gota/dataframe"

	"airbnb_eda/internal/domain"
	"airbnb_eda/internal/regression"
)

// TrainingSet encodes a cleaned table into model features in
// regression.DefaultFeatures order. Rows whose neighbourhood is missing from the
// lookup, whose room type is not one of domain.RoomTypeLabels, or whose nights or
// availability are missing are skipped.
func TrainingSet(df dataframe.DataFrame, lookup []domain.Neighbourhood) (X [][]float64, y []float64, skipped int) {
	codes := make(map[string]int, len(lookup))
	for _, nb := range lookup {
		codes[nb.Name] = nb.Code
	}
	rooms := make(map[string]int, len(domain.RoomTypeLabels))
	for _, label := range domain.RoomTypeLabels {
		code, err := LeadingInt(label)
		if err != nil {
			continue
		}
		rooms[strings.TrimLeft(strings.TrimLeft(label, "0123456789"), " -")] = code
	}

	ls := ToListings(df)
	for _, l := range ls {
		neigh, ok := codes[l.Neighbourhood]
		room, rok := rooms[l.RoomType]
		if !ok || !rok || l.MinimumNights == nil || l.Availability365 == nil {
			skipped++
			continue
		}
		X = append(X, []float64{float64(neigh), float64(room), float64(*l.MinimumNights), float64(*l.Availability365)})
		y = append(y, l.Price)
	}
	return X, y, skipped
}

// Train fits the price model on a cleaned table and records the encodings used.
func Train(df dataframe.DataFrame, lookup []domain.Neighbourhood) (*regression.Linear, int, error) {
	X, y, skipped := TrainingSet(df, lookup)
	m, err := regression.Fit(regression.DefaultFeatures, X, y)
	if err != nil {
		return nil, skipped, err
	}
	m.Neighbourhoods = make([]string, len(lookup))
	for i, nb := range lookup {
		m.Neighbourhoods[i] = nb.Label
	}
	m.RoomTypes = append([]string(nil), domain.RoomTypeLabels...)
	return m, skipped, nil
}
