package regression_test

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"airbnb_eda/internal/regression"
)

func TestFit_RecoversCoefficients(t *testing.T) {
	var X [][]float64
	var y []float64
	for i := 0; i < 60; i++ {
		x := []float64{float64(i % 7), float64((i * 3) % 11), float64(i), float64((i * i) % 13)}
		X = append(X, x)
		y = append(y, 150+12*x[0]-40*x[1]+0.5*x[2]+2*x[3])
	}

	m, err := regression.Fit(regression.DefaultFeatures, X, y)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	want := []float64{12, -40, 0.5, 2}
	for i, c := range m.Coefficients {
		if math.Abs(c-want[i]) > 1e-6 {
			t.Fatalf("coef %d: got %v want %v", i, c, want[i])
		}
	}
	if math.Abs(m.Intercept-150) > 1e-6 {
		t.Fatalf("intercept: %v", m.Intercept)
	}
	if m.Metrics.Samples != 60 || m.Metrics.R2 < 0.999999 || m.Metrics.RMSE > 1e-6 {
		t.Fatalf("unexpected metrics: %+v", m.Metrics)
	}

	got, err := m.Predict([]float64{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if math.Abs(got-(150+12-80+1.5+8)) > 1e-6 {
		t.Fatalf("predict: %v", got)
	}
}

func TestFit_TooFewSamples(t *testing.T) {
	_, err := regression.Fit(regression.DefaultFeatures, [][]float64{{1, 2, 3, 4}}, []float64{1})
	if !errors.Is(err, regression.ErrTooFewSamples) {
		t.Fatalf("expected ErrTooFewSamples, got %v", err)
	}
}

func TestPredict_FeatureMismatch(t *testing.T) {
	m := &regression.Linear{Coefficients: []float64{1, 2}}
	if _, err := m.Predict([]float64{1}); !errors.Is(err, regression.ErrFeatureMismatch) {
		t.Fatalf("expected ErrFeatureMismatch, got %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regr_model.json")
	m := &regression.Linear{
		Features:       regression.DefaultFeatures,
		Intercept:      10,
		Coefficients:   []float64{1, 2, 3, 4},
		Neighbourhoods: []string{"0 - Abolição", "1 - Acari"},
	}
	if err := m.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := regression.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Intercept != 10 || len(got.Coefficients) != 4 || got.Neighbourhoods[1] != "1 - Acari" {
		t.Fatalf("unexpected model: %+v", got)
	}
}

func TestDecode_Rejects(t *testing.T) {
	cases := map[string]string{
		"no coefficients": `{"intercept": 1}`,
		"mismatch":        `{"features":["a","b"],"coefficients":[1]}`,
		"garbage":         `not json`,
	}
	for name, body := range cases {
		if _, err := regression.Decode(strings.NewReader(body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
