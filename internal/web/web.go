package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"contentcal/internal/calendar"
	appLog "contentcal/internal/log"
	"contentcal/internal/model"
	"contentcal/internal/planner"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Server exposes the planner over a JSON HTTP API.
type Server struct {
	svc *planner.Service
	mux *http.ServeMux
}

// NewServer constructs a new Server.
func NewServer(svc *planner.Service) *Server {
	s := &Server{
		svc: svc,
		mux: http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return logRequests(s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/events", s.handleListEvents)
	s.mux.HandleFunc("POST /api/events", s.handleAddEvent)
	s.mux.HandleFunc("GET /api/events/{id}", s.handleGetEvent)
	s.mux.HandleFunc("PUT /api/events/{id}", s.handleUpdateEvent)
	s.mux.HandleFunc("DELETE /api/events/{id}", s.handleDeleteEvent)

	s.mux.HandleFunc("GET /api/quotas", s.handleGetQuotas)
	s.mux.HandleFunc("PUT /api/quotas", s.handleReplaceQuotas)
	s.mux.HandleFunc("POST /api/quotas", s.handleSetQuota)

	s.mux.HandleFunc("GET /api/views/month", s.handleMonth)
	s.mux.HandleFunc("GET /api/views/year", s.handleYear)
	s.mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	s.mux.HandleFunc("GET /api/days/{date}", s.handleDay)
	s.mux.HandleFunc("GET /api/options", s.handleOptions)

	s.mux.HandleFunc("GET /calendar.ics", s.handleCalendarICS)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// eventInput is the request body of event writes. Date is YYYY-MM-DD
// (RFC 3339 timestamps are accepted and truncated to their date).
type eventInput struct {
	Date     string `json:"date"`
	Title    string `json:"title"`
	Occasion string `json:"occasion"`
	Platform string `json:"platform"`
	Status   string `json:"status"`
	Notes    string `json:"notes"`
}

func (in eventInput) event() (model.Event, error) {
	ev := model.Event{
		Title:    in.Title,
		Occasion: in.Occasion,
		Platform: in.Platform,
		Status:   model.Status(in.Status),
		Notes:    in.Notes,
	}
	if in.Date == "" {
		return ev, nil
	}
	d, err := parseDay(in.Date)
	if err != nil {
		return ev, err
	}
	ev.Date = d
	return ev, nil
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := planner.Filter{
		Year:     parseIntDefault(q.Get("year"), 0),
		Month:    time.Month(parseIntDefault(q.Get("month"), 0)),
		Platform: q.Get("platform"),
	}
	events, err := s.svc.ListEvents(r.Context(), f)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	ev, ok := decodeEvent(w, r)
	if !ok {
		return
	}
	added, err := s.svc.AddEvent(r.Context(), ev)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Location", "/api/events/"+added.ID)
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := s.svc.GetEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	ev, ok := decodeEvent(w, r)
	if !ok {
		return
	}
	updated, err := s.svc.UpdateEvent(r.Context(), r.PathValue("id"), ev)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteEvent(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetQuotas(w http.ResponseWriter, r *http.Request) {
	quotas, err := s.svc.Quotas(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quotas)
}

func (s *Server) handleReplaceQuotas(w http.ResponseWriter, r *http.Request) {
	var quotas model.QuotaSet
	if !decodeJSON(w, r, &quotas) {
		return
	}
	if err := s.svc.SetQuotas(r.Context(), quotas); err != nil {
		writeServiceError(w, err)
		return
	}
	s.handleGetQuotas(w, r)
}

func (s *Server) handleSetQuota(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Platform string `json:"platform"`
		Required int    `json:"required"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	quotas, err := s.svc.SetQuota(r.Context(), body.Platform, body.Required)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quotas)
}

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	today := s.svc.Today()
	year := parseIntDefault(q.Get("year"), today.Year())
	month := parseIntDefault(q.Get("month"), int(today.Month()))

	mv, err := s.svc.Month(r.Context(), year, time.Month(month), q.Get("policy"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mv)
}

func (s *Server) handleYear(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year := parseIntDefault(q.Get("year"), s.svc.Today().Year())

	yv, err := s.svc.Year(r.Context(), year, q.Get("policy"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, yv)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	year := parseIntDefault(r.URL.Query().Get("year"), 0)
	d, err := s.svc.Dashboard(r.Context(), year)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	d, err := time.Parse(calendar.DateLayout, r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	dv, err := s.svc.Day(r.Context(), d)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dv)
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.Choices(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleCalendarICS(w http.ResponseWriter, r *http.Request) {
	year := parseIntDefault(r.URL.Query().Get("year"), 0)

	var b strings.Builder
	if err := s.svc.ExportICS(r.Context(), &b, year); err != nil {
		writeServiceError(w, err)
		return
	}

	name := "contentcal.ics"
	if year != 0 {
		name = fmt.Sprintf("contentcal-%d.ics", year)
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(b.String()))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Refresh(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

func decodeEvent(w http.ResponseWriter, r *http.Request) (model.Event, bool) {
	var in eventInput
	if !decodeJSON(w, r, &in) {
		return model.Event{}, false
	}
	ev, err := in.event()
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return model.Event{}, false
	}
	return ev, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func parseDay(s string) (time.Time, error) {
	if d, err := time.Parse(calendar.DateLayout, s); err == nil {
		return d, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// writeServiceError maps planner errors to HTTP statuses. Unexpected
// errors are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, planner.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, planner.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		appLog.Error("request failed", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		appLog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
