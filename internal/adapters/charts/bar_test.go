package charts_test

import (
	"bytes"
	"strings"
	"testing"

	"airbnb_eda/internal/adapters/charts"
	"airbnb_eda/internal/domain"
)

func TestRender(t *testing.T) {
	c := domain.Chart{
		Kind:  "cheapest",
		Title: "Top 10 cheapest listings",
		Axis:  domain.ColPrice,
		Bars: []domain.Bar{
			{Label: "COPACABANA SEA BREEZE - RIO", Value: 120},
			{Label: "Cosy flat close to Ipanema beach", Value: 200},
		},
	}

	var buf bytes.Buffer
	if err := charts.Render(&buf, c); err != nil {
		t.Fatalf("render: %v", err)
	}
	page := buf.String()
	for _, want := range []string{"Top 10 cheapest listings", "COPACABANA SEA BREEZE - RIO", "echarts"} {
		if !strings.Contains(page, want) {
			t.Fatalf("page is missing %q", want)
		}
	}
}
