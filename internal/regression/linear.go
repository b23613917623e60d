// Package regression holds the nightly-price model: an ordinary least squares
// linear regression persisted as JSON next to the service.
package regression

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DefaultFeatures is the feature order used by the listings price model.
var DefaultFeatures = []string{"neighbourhood", "room_type", "minimum_nights", "availability_365"}

var (
	ErrTooFewSamples   = errors.New("regression: too few samples")
	ErrFeatureMismatch = errors.New("regression: feature vector length mismatch")
)

type Metrics struct {
	R2      float64 `json:"r2"`
	RMSE    float64 `json:"rmse"`
	Samples int     `json:"samples"`
}

// Linear is y = Intercept + sum(Coefficients[i] * x[i]).
type Linear struct {
	Features       []string  `json:"features"`
	Intercept      float64   `json:"intercept"`
	Coefficients   []float64 `json:"coefficients"`
	Neighbourhoods []string  `json:"neighbourhoods,omitempty"`
	RoomTypes      []string  `json:"room_types,omitempty"`
	TrainedAt      time.Time `json:"trained_at"`
	Metrics        Metrics   `json:"metrics"`
}

func (m *Linear) Predict(x []float64) (float64, error) {
	if len(x) != len(m.Coefficients) {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureMismatch, len(x), len(m.Coefficients))
	}
	return m.Intercept + floats.Dot(m.Coefficients, x), nil
}

// Fit solves the least squares problem for rows X (one feature vector per sample) and targets y.
func Fit(features []string, X [][]float64, y []float64) (*Linear, error) {
	n, p := len(X), len(features)
	if n != len(y) {
		return nil, fmt.Errorf("regression: %d samples but %d targets", n, len(y))
	}
	if n < p+1 {
		return nil, fmt.Errorf("%w: %d samples for %d features", ErrTooFewSamples, n, p)
	}

	data := make([]float64, 0, n*(p+1))
	for i, row := range X {
		if len(row) != p {
			return nil, fmt.Errorf("%w: sample %d has %d values", ErrFeatureMismatch, i, len(row))
		}
		data = append(data, 1)
		data = append(data, row...)
	}
	a := mat.NewDense(n, p+1, data)
	b := mat.NewVecDense(n, append([]float64(nil), y...))

	var beta mat.VecDense
	if err := beta.SolveVec(a, b); err != nil {
		// an ill-conditioned but finite system still yields a usable solution
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 0) {
			return nil, fmt.Errorf("regression: solve least squares: %w", err)
		}
	}

	var est mat.VecDense
	est.MulVec(a, &beta)
	estimates := est.RawVector().Data

	coef := make([]float64, p)
	for i := range coef {
		coef[i] = beta.AtVec(i + 1)
	}
	m := &Linear{
		Features:     append([]string(nil), features...),
		Intercept:    beta.AtVec(0),
		Coefficients: coef,
		TrainedAt:    time.Now().UTC(),
		Metrics: Metrics{
			R2:      finite(stat.RSquaredFrom(estimates, y, nil)),
			RMSE:    finite(floats.Distance(estimates, y, 2) / math.Sqrt(float64(n))),
			Samples: n,
		},
	}
	return m, nil
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func Decode(r io.Reader) (*Linear, error) {
	var m Linear
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("regression: decode model: %w", err)
	}
	if len(m.Coefficients) == 0 {
		return nil, errors.New("regression: model has no coefficients")
	}
	if len(m.Features) != 0 && len(m.Features) != len(m.Coefficients) {
		return nil, fmt.Errorf("%w: %d features, %d coefficients", ErrFeatureMismatch, len(m.Features), len(m.Coefficients))
	}
	return &m, nil
}

func Load(path string) (*Linear, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Save writes the model atomically (temp file + rename) so watchers never see a partial file.
func (m *Linear) Save(path string) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".model-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
