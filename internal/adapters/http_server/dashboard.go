package httpserver

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"airbnb_eda/internal/adapters/charts"
	"airbnb_eda/internal/app"
	"airbnb_eda/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var dashboardTmpl = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"has":      has,
	"chartURL": chartURL,
}).ParseFS(templateFS, "templates/dashboard.html"))

type column struct {
	Name  string
	Href  string
	Arrow string
}

type kpis struct {
	AveragePrice        string
	TotalReviews        string
	AverageAvailability string
}

type predictionForm struct {
	Neighbourhoods []string
	RoomTypes      []string
	Request        domain.PredictionRequest
	NightsMin      int
	NightsMax      int
	AvailMin       int
	AvailMax       int
	ModelLoaded    bool
	Result         string
	Error          string
}

type dashboardView struct {
	Options    domain.FilterOptions
	Filter     domain.FilterState
	Sort       domain.SortOrder
	Query      string
	ExportURL  string
	PredictURL string
	Columns    []column
	Rows       []domain.Row
	KPIs       kpis
	Charts     []string
	Prediction predictionForm
}

func (s *Server) MountDashboard(h *Handlers) {
	s.mux.Get("/", h.dashboard)
	s.mux.Post("/predict", h.dashboardPredict)
	s.mux.Get("/charts/{kind}", h.chartPage)
}

func (h *Handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	h.renderDashboardStatus(w, r, h.defaultPredictionForm(), http.StatusOK)
}

// dashboardPredict runs the prediction only when the form is submitted.
func (h *Handlers) dashboardPredict(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid form")
		return
	}
	pf := h.defaultPredictionForm()
	pf.Request = domain.PredictionRequest{
		Neighbourhood: r.PostForm.Get("neighbourhood"),
		RoomType:      r.PostForm.Get("room_type"),
	}
	nights, nerr := strconv.Atoi(r.PostForm.Get("nights"))
	avail, aerr := strconv.Atoi(r.PostForm.Get("availability"))
	pf.Request.Nights, pf.Request.Availability = nights, avail

	status := http.StatusOK
	if nerr != nil || aerr != nil {
		pf.Error = "nights and availability must be whole numbers"
		status = http.StatusBadRequest
	} else if p, err := h.P.Predict(pf.Request); err != nil {
		pf.Error = err.Error()
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			status = http.StatusBadRequest
		case errors.Is(err, domain.ErrModelUnavailable):
			status = http.StatusServiceUnavailable
		default:
			log.Error().Err(err).Msg("prediction failed")
			pf.Error = "prediction failed"
			status = http.StatusInternalServerError
		}
	} else {
		pf.Result = p.Message
	}
	h.renderDashboardStatus(w, r, pf, status)
}

func (h *Handlers) defaultPredictionForm() predictionForm {
	po := h.predictionOptions()
	pf := predictionForm{
		Neighbourhoods: po.Neighbourhoods,
		RoomTypes:      po.RoomTypes,
		NightsMin:      po.NightsMin,
		NightsMax:      po.NightsMax,
		AvailMin:       po.AvailabilityMin,
		AvailMax:       po.AvailabilityMax,
		ModelLoaded:    po.ModelLoaded,
		Request:        domain.PredictionRequest{Nights: po.NightsMin, Availability: po.AvailabilityMin},
	}
	if len(pf.Neighbourhoods) > 0 {
		pf.Request.Neighbourhood = pf.Neighbourhoods[0]
	}
	pf.Request.RoomType = pf.RoomTypes[0]
	return pf
}

func (h *Handlers) renderDashboardStatus(w http.ResponseWriter, r *http.Request, pf predictionForm, status int) {
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

	query := app.Encode(f, s).Encode()
	view := dashboardView{
		Options:    h.Q.Options(),
		Filter:     f,
		Sort:       s,
		Query:      query,
		ExportURL:  "/v1/listings/export.xlsx?" + query,
		PredictURL: "/predict?" + query,
		Columns:    sortColumns(f, s),
		Rows:       sel.Rows,
		KPIs: kpis{
			AveragePrice:        app.FormatPrice(sel.Summary.AveragePrice),
			TotalReviews:        app.FormatCount(sel.Summary.TotalReviews),
			AverageAvailability: app.FormatMetric(sel.Summary.AverageAvailability),
		},
		Charts:     app.ChartKinds,
		Prediction: pf,
	}

	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, view); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log.Error().Err(err).Msg("failed to write dashboard")
	}
}

// sortColumns builds the header links; clicking the sorted column flips its order.
func sortColumns(f domain.FilterState, cur domain.SortOrder) []column {
	cols := make([]column, len(domain.SelectionColumns))
	for i, name := range domain.SelectionColumns {
		next := domain.SortOrder{Column: name}
		arrow := ""
		if cur.Column == name {
			next.Desc = !cur.Desc
			arrow = "▲"
			if cur.Desc {
				arrow = "▼"
			}
		}
		cols[i] = column{Name: name, Href: "/?" + app.Encode(f, next).Encode(), Arrow: arrow}
	}
	return cols
}

// chartPage renders one ranking as a standalone page, embedded by the dashboard.
func (h *Handlers) chartPage(w http.ResponseWriter, r *http.Request) {
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
	var buf bytes.Buffer
	if err := charts.Render(&buf, c); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Error().Err(err).Msg("failed to write chart page")
	}
}

// chartURL is used by the template to keep the current filters on chart frames.
func chartURL(kind, query string) string {
	return "/charts/" + url.PathEscape(kind) + "?" + query
}

func has(set []string, v string) bool { return slices.Contains(set, v) }
