package httpserver

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"airbnb_eda/internal/adapters/excel"
	"airbnb_eda/internal/app"
	"airbnb_eda/internal/domain"
)

type Handlers struct {
	Q    *app.QueryService
	P    *app.Predictor
	Data *app.Dataset
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// predictionOptions lists the choices of the prediction form.
type predictionOptions struct {
	Neighbourhoods  []string `json:"neighbourhoods"`
	RoomTypes       []string `json:"room_types"`
	NightsMin       int      `json:"nights_min"`
	NightsMax       int      `json:"nights_max"`
	AvailabilityMin int      `json:"availability_min"`
	AvailabilityMax int      `json:"availability_max"`
	ModelLoaded     bool     `json:"model_loaded"`
}

type optionsResponse struct {
	Filters    domain.FilterOptions `json:"filters"`
	Prediction predictionOptions    `json:"prediction"`
	LoadedAt   time.Time            `json:"loaded_at"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", h.healthz)
	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/options", h.options)
		r.Get("/listings", h.listings)
		r.Get("/listings/export.xlsx", h.export)
		r.Get("/summary", h.summary)
		r.Get("/charts/{kind}", h.chart)
		r.Post("/predictions", h.predict)
		r.Get("/model", h.model)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain errors to problem responses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrModelUnavailable), errors.Is(err, domain.ErrEmptyDataset):
		writeProblem(w, http.StatusServiceUnavailable, "Service Unavailable", err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "unexpected error")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		// Log but don't fail the whole response; return empty ETag and best-effort body.
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeJSON sends v with an ETag and honours If-None-Match.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if etag != "" {
		if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
			w.Header().Set("ETag", etag) // include ETag on 304
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func (h *Handlers) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if h.Data.Rows() == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("dataset not loaded"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handlers) predictionOptions() predictionOptions {
	return predictionOptions{
		Neighbourhoods:  h.P.Neighbourhoods(),
		RoomTypes:       domain.RoomTypeLabels,
		NightsMin:       domain.NightsMin,
		NightsMax:       domain.NightsMax,
		AvailabilityMin: domain.AvailabilityMin,
		AvailabilityMax: domain.AvailabilityMax,
		ModelLoaded:     h.P.Ready(),
	}
}

func (h *Handlers) options(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, optionsResponse{
		Filters:    h.Q.Options(),
		Prediction: h.predictionOptions(),
		LoadedAt:   h.Data.LoadedAt(),
	})
}

// parseView reads filter and sort from the query string.
func (h *Handlers) parseView(r *http.Request) (domain.FilterState, domain.SortOrder, error) {
	q := r.URL.Query()
	f, err := app.ParseFilter(q, h.Q.Options())
	if err != nil {
		return f, domain.SortOrder{}, err
	}
	s, err := app.ParseSort(q)
	return f, s, err
}

func (h *Handlers) listings(w http.ResponseWriter, r *http.Request) {
	f, s, err := h.parseView(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sel, err := h.Q.Selection(r.Context(), f, s)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, sel)
}

func (h *Handlers) summary(w http.ResponseWriter, r *http.Request) {
	f, _, err := h.parseView(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sel, err := h.Q.Selection(r.Context(), f, domain.SortOrder{})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, sel.Summary)
}

func (h *Handlers) chart(w http.ResponseWriter, r *http.Request) {
	f, _, err := h.parseView(r)
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := h.Q.Chart(f, chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, c)
}

func (h *Handlers) export(w http.ResponseWriter, r *http.Request) {
	f, s, err := h.parseView(r)
	if err != nil {
		writeError(w, err)
		return
	}
	df, err := h.Q.Frame(f, s)
	if err != nil {
		writeError(w, err)
		return
	}
	// build in memory so a failure can still become a problem response
	var buf bytes.Buffer
	if err := excel.Write(&buf, df); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", excel.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="listings.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Error().Err(err).Msg("failed to write export body")
	}
}

func (h *Handlers) predict(w http.ResponseWriter, r *http.Request) {
	var req domain.PredictionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "body must be a JSON prediction request")
		return
	}
	p, err := h.P.Predict(req)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("failed to write prediction")
	}
}

func (h *Handlers) model(w http.ResponseWriter, r *http.Request) {
	info, err := h.P.Info()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, info)
}
