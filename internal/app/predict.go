package app

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"airbnb_eda/internal/adapters/observability"
	"airbnb_eda/internal/domain"
	"airbnb_eda/internal/regression"
)

var errNoPrefix = errors.New("label has no integer prefix")

// LeadingInt parses the run of digits a label starts with ("12 - Copacabana" -> 12).
func LeadingInt(label string) (int, error) {
	s := strings.TrimSpace(label)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, errNoPrefix
	}
	return strconv.Atoi(s[:end])
}

// Predictor holds the price model and neighbourhood lookup. Both may be
// swapped at runtime when their files change.
type Predictor struct {
	mu     sync.RWMutex
	model  *regression.Linear
	lookup []domain.Neighbourhood
}

func NewPredictor() *Predictor { return &Predictor{} }

func (p *Predictor) SetModel(m *regression.Linear) {
	p.mu.Lock()
	p.model = m
	p.mu.Unlock()
	p.checkEncoding()
}

func (p *Predictor) SetNeighbourhoods(nbs []domain.Neighbourhood) {
	p.mu.Lock()
	p.lookup = nbs
	p.mu.Unlock()
	p.checkEncoding()
}

// Neighbourhoods returns the labels offered for prediction.
func (p *Predictor) Neighbourhoods() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.lookup))
	for i, nb := range p.lookup {
		out[i] = nb.Label
	}
	return out
}

func (p *Predictor) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model != nil
}

func (p *Predictor) Info() (domain.ModelInfo, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.model == nil {
		return domain.ModelInfo{}, domain.ErrModelUnavailable
	}
	return domain.ModelInfo{
		Features:       p.model.Features,
		Neighbourhoods: len(p.model.Neighbourhoods),
		TrainedAt:      p.model.TrainedAt,
		R2:             p.model.Metrics.R2,
		RMSE:           p.model.Metrics.RMSE,
		Samples:        p.model.Metrics.Samples,
		LookupMatches:  p.lookupMatchesLocked(),
	}, nil
}

func (p *Predictor) lookupMatchesLocked() bool {
	if p.model == nil || len(p.model.Neighbourhoods) == 0 {
		return true
	}
	labels := make([]string, len(p.lookup))
	for i, nb := range p.lookup {
		labels[i] = nb.Label
	}
	return slices.Equal(labels, p.model.Neighbourhoods)
}

func (p *Predictor) checkEncoding() {
	p.mu.RLock()
	ok := p.lookupMatchesLocked()
	p.mu.RUnlock()
	if !ok {
		log.Warn().Msg("neighbourhood lookup differs from the encoding the model was trained with")
	}
}

// Validate checks the request against the offered choices and input bounds and
// returns the feature vector.
func (p *Predictor) Validate(req domain.PredictionRequest) ([]float64, error) {
	p.mu.RLock()
	lookup := p.lookup
	p.mu.RUnlock()

	if len(lookup) > 0 && !slices.ContainsFunc(lookup, func(nb domain.Neighbourhood) bool { return nb.Label == req.Neighbourhood }) {
		return nil, fmt.Errorf("%w: unknown neighbourhood %q", domain.ErrInvalidInput, req.Neighbourhood)
	}
	if !slices.Contains(domain.RoomTypeLabels, req.RoomType) {
		return nil, fmt.Errorf("%w: unknown room type %q", domain.ErrInvalidInput, req.RoomType)
	}
	neigh, err := LeadingInt(req.Neighbourhood)
	if err != nil {
		return nil, fmt.Errorf("%w: neighbourhood %q: %v", domain.ErrInvalidInput, req.Neighbourhood, err)
	}
	room, err := LeadingInt(req.RoomType)
	if err != nil {
		return nil, fmt.Errorf("%w: room type %q: %v", domain.ErrInvalidInput, req.RoomType, err)
	}
	if req.Nights < domain.NightsMin || req.Nights > domain.NightsMax {
		return nil, fmt.Errorf("%w: nights must be between %d and %d", domain.ErrInvalidInput, domain.NightsMin, domain.NightsMax)
	}
	if req.Availability < domain.AvailabilityMin || req.Availability > domain.AvailabilityMax {
		return nil, fmt.Errorf("%w: availability must be between %d and %d", domain.ErrInvalidInput, domain.AvailabilityMin, domain.AvailabilityMax)
	}
	return []float64{float64(neigh), float64(room), float64(req.Nights), float64(req.Availability)}, nil
}

// Predict runs one prediction. It is only called on explicit submission.
func (p *Predictor) Predict(req domain.PredictionRequest) (domain.Prediction, error) {
	x, err := p.Validate(req)
	if err != nil {
		observability.ObservePrediction("invalid")
		return domain.Prediction{}, err
	}

	p.mu.RLock()
	m := p.model
	p.mu.RUnlock()
	if m == nil {
		observability.ObservePrediction("unavailable")
		return domain.Prediction{}, domain.ErrModelUnavailable
	}

	var reg domain.Regressor = m
	price, err := reg.Predict(x)
	if err != nil {
		observability.ObservePrediction("error")
		return domain.Prediction{}, fmt.Errorf("predict: %w", err)
	}
	observability.ObservePrediction("ok")

	formatted := strconv.FormatFloat(price, 'f', 2, 64)
	return domain.Prediction{
		Features:  x,
		Price:     price,
		Formatted: formatted,
		Message:   fmt.Sprintf("Probably, the cost of this rent will be around R$%s per night.", formatted),
	}, nil
}
