package app_test

import (
	"errors"
	"strings"
	"testing"

	"airbnb_eda/internal/app"
	"airbnb_eda/internal/domain"
	"airbnb_eda/internal/regression"
)

const bairrosCSV = "bairro\n0 - Abolição\n1 - Acari\n12 - Copacabana\n"

func TestLeadingInt(t *testing.T) {
	cases := map[string]int{
		"0 - Entire home/apt": 0,
		"12 - Copacabana":     12,
		" 7-Leblon":           7,
		"153 - Zumbi":         153,
	}
	for in, want := range cases {
		got, err := app.LeadingInt(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %d, %v want %d", in, got, err, want)
		}
	}
	if _, err := app.LeadingInt("Copacabana"); err == nil {
		t.Fatalf("expected error for label without prefix")
	}
}

func TestParseNeighbourhoods(t *testing.T) {
	nbs, err := app.ParseNeighbourhoods(strings.NewReader(bairrosCSV))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(nbs) != 3 || nbs[2].Code != 12 || nbs[2].Name != "Copacabana" || nbs[0].Name != "Abolição" {
		t.Fatalf("unexpected lookup: %+v", nbs)
	}

	// code;name layout, Latin-1 encoded
	latin1 := []byte("codigo;bairro\n0;Aboli\xe7\xe3o\n1;Acari\n")
	nbs, err = app.ParseNeighbourhoods(strings.NewReader(string(latin1)))
	if err != nil {
		t.Fatalf("parse latin1: %v", err)
	}
	if nbs[0].Label != "0 - Abolição" || nbs[1].Code != 1 {
		t.Fatalf("unexpected lookup: %+v", nbs)
	}

	if _, err := app.ParseNeighbourhoods(strings.NewReader("bairro\nCentro\n")); !errors.Is(err, domain.ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}

func newPredictor(t *testing.T) *app.Predictor {
	t.Helper()
	nbs, err := app.ParseNeighbourhoods(strings.NewReader(bairrosCSV))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	p := app.NewPredictor()
	p.SetNeighbourhoods(nbs)
	return p
}

func TestPredictor_Unavailable(t *testing.T) {
	p := newPredictor(t)
	_, err := p.Predict(domain.PredictionRequest{
		Neighbourhood: "12 - Copacabana", RoomType: "0 - Entire home/apt", Nights: 3, Availability: 100,
	})
	if !errors.Is(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
	if _, err := p.Info(); !errors.Is(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestPredictor_Predict(t *testing.T) {
	p := newPredictor(t)
	p.SetModel(&regression.Linear{
		Features:       regression.DefaultFeatures,
		Intercept:      100,
		Coefficients:   []float64{2, -30, 0.5, 0.1},
		Neighbourhoods: []string{"0 - Abolição", "1 - Acari", "12 - Copacabana"},
	})

	got, err := p.Predict(domain.PredictionRequest{
		Neighbourhood: "12 - Copacabana", RoomType: "1 - Private room", Nights: 3, Availability: 100,
	})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	// 100 + 24 - 30 + 1.5 + 10
	if got.Formatted != "105.50" {
		t.Fatalf("unexpected price %q", got.Formatted)
	}
	if got.Message != "Probably, the cost of this rent will be around R$105.50 per night." {
		t.Fatalf("unexpected message %q", got.Message)
	}
	if len(got.Features) != 4 || got.Features[0] != 12 || got.Features[1] != 1 {
		t.Fatalf("unexpected features %v", got.Features)
	}

	info, err := p.Info()
	if err != nil || !info.LookupMatches || info.Neighbourhoods != 3 {
		t.Fatalf("unexpected info %+v %v", info, err)
	}
}

func TestPredictor_Validation(t *testing.T) {
	p := newPredictor(t)
	p.SetModel(&regression.Linear{Coefficients: []float64{1, 1, 1, 1}})

	bad := []domain.PredictionRequest{
		{Neighbourhood: "99 - Nowhere", RoomType: "0 - Entire home/apt", Nights: 1, Availability: 1},
		{Neighbourhood: "1 - Acari", RoomType: "Entire home/apt", Nights: 1, Availability: 1},
		{Neighbourhood: "1 - Acari", RoomType: "0 - Entire home/apt", Nights: 0, Availability: 1},
		{Neighbourhood: "1 - Acari", RoomType: "0 - Entire home/apt", Nights: 1001, Availability: 1},
		{Neighbourhood: "1 - Acari", RoomType: "0 - Entire home/apt", Nights: 1, Availability: 0},
		{Neighbourhood: "1 - Acari", RoomType: "0 - Entire home/apt", Nights: 1, Availability: 366},
	}
	for _, req := range bad {
		if _, err := p.Predict(req); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("%+v: expected ErrInvalidInput, got %v", req, err)
		}
	}
}

func TestPredictor_LookupMismatch(t *testing.T) {
	p := newPredictor(t)
	p.SetModel(&regression.Linear{
		Coefficients:   []float64{1, 1, 1, 1},
		Neighbourhoods: []string{"0 - Centro"},
	})
	info, err := p.Info()
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.LookupMatches {
		t.Fatalf("expected lookup mismatch to be reported")
	}
}
