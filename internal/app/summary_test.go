package app_test

import (
	"encoding/json"
	"errors"
	"testing"

	"airbnb_eda/internal/app"
	"airbnb_eda/internal/domain"
)

func TestSummarize(t *testing.T) {
	df := loadRio(t)
	f := wide()
	f.Neighbourhoods = []string{"Copacabana"}
	f.RoomTypes = []string{"Entire home/apt"}
	f.MaxNights = 30

	s := app.Summarize(app.Select(df, f, domain.SortOrder{}))
	if s.Count != 2 || s.AveragePrice != 315 || s.TotalReviews != 497 || s.AverageAvailability != 167.5 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if got := app.FormatPrice(s.AveragePrice); got != "R$315.00" {
		t.Fatalf("unexpected price format %q", got)
	}
}

func TestSummarize_EmptySelectionIsNaN(t *testing.T) {
	df := loadRio(t)
	f := wide()
	f.Neighbourhoods = nil

	s := app.Summarize(app.Select(df, f, domain.SortOrder{}))
	if s.Count != 0 || s.TotalReviews != 0 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.AveragePrice.Valid() || s.AverageAvailability.Valid() {
		t.Fatalf("expected NaN means, got %+v", s)
	}
	if app.FormatPrice(s.AveragePrice) != "NaN" || s.AverageAvailability.String() != "NaN" {
		t.Fatalf("NaN should render as NaN")
	}

	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"count":0,"average_price":null,"total_reviews":0,"average_availability":null}` {
		t.Fatalf("unexpected json %s", b)
	}
}

func TestFormatPrice_Grouping(t *testing.T) {
	if got := app.FormatPrice(domain.Metric(1234.5)); got != "R$1,234.50" {
		t.Fatalf("unexpected format %q", got)
	}
	if got := app.FormatCount(12345); got != "12,345" {
		t.Fatalf("unexpected format %q", got)
	}
}

func TestRank(t *testing.T) {
	sel := app.Select(loadRio(t), wide(), domain.SortOrder{})

	c, err := app.Rank(sel, app.ChartCheapest)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(c.Bars) != 5 || c.Bars[0].Label != "COPACABANA SEA BREEZE - RIO" || c.Bars[0].Value != 120 || c.Bars[4].Value != 390 {
		t.Fatalf("unexpected cheapest: %+v", c.Bars)
	}

	c, err = app.Rank(sel, app.ChartMostReviewed)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if c.Bars[0].Value != 395 || c.Bars[1].Value != 259 || c.Title != "Top 10 most reviewed" {
		t.Fatalf("unexpected most reviewed: %+v", c)
	}

	if _, err := app.Rank(sel, "priciest"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRank_TopTenOnly(t *testing.T) {
	ls := make([]domain.Listing, 0, 25)
	for i := 0; i < 25; i++ {
		ls = append(ls, domain.Listing{
			Name: "L", Neighbourhood: "Centro", RoomType: "Private room",
			Price: float64(100 + i), MinimumNights: ptr(1), NumberOfReviews: ptr(i),
		})
	}
	df, err := app.FromListings(ls)
	if err != nil {
		t.Fatalf("from listings: %v", err)
	}
	c, err := app.Rank(df.Select(domain.SelectionColumns), app.ChartMostReviewed)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(c.Bars) != 10 || c.Bars[0].Value != 24 || c.Bars[9].Value != 15 {
		t.Fatalf("unexpected bars: %+v", c.Bars)
	}
}
