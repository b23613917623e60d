package observability_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"airbnb_eda/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record samples so every family is exported
	observability.ObserveHTTP("/test", "GET", 200, 12*time.Millisecond)
	observability.ObserveDatasetLoad("http", 42, nil)
	observability.ObserveDatasetLoad("http", 0, errors.New("boom"))
	observability.ObservePrediction("ok")
	observability.ObserveReload("model", nil)

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, want := range []string{
		"eda_http_requests_total",
		"eda_dataset_rows 42",
		`eda_dataset_loads_total{result="error",source="http"} 1`,
		`eda_predictions_total{result="ok"}`,
		`eda_file_reloads_total{file="model",result="ok"}`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}
