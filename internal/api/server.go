// Package api provides REST API endpoints for compliance reports, alerts and
// the editable threshold and rule configuration.
package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"jpx_compliance/internal/alerts"
	"jpx_compliance/internal/biodiversity"
	"jpx_compliance/internal/flight"
	"jpx_compliance/internal/report"
	"jpx_compliance/internal/severity"
	"jpx_compliance/internal/storage"
)

// maxBodyBytes caps request bodies for configuration updates.
const maxBodyBytes = 1 << 20

// Server provides REST API access to compliance data.
type Server struct {
	store   storage.Store
	reports *report.Service
	port    int

	now func() time.Time
}

// Config holds configuration for the API server.
type Config struct {
	Port int
}

// NewServer creates a new API server.
func NewServer(store storage.Store, reports *report.Service, cfg Config) *Server {
	return &Server{
		store:   store,
		reports: reports,
		port:    cfg.Port,
		now:     time.Now,
	}
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	r := chi.NewRouter()

	// Standard middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS for browser access.
	r.Use(corsMiddleware)

	r.Mount("/api/v1", s.Router())

	addr := ":" + strconv.Itoa(s.port)
	log.Printf("Compliance API starting at http://localhost%s", addr)
	return http.ListenAndServe(addr, r)
}

// Router returns the configured chi router for embedding in other servers.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)

	r.Get("/report", s.handleReport)
	r.Get("/violations", s.handleViolations)
	r.Get("/violations/summary", s.handleViolationSummary)

	r.Get("/alerts", s.handleAlerts)
	r.Post("/alerts/{id}/ack", s.handleAcknowledge)
	r.Delete("/alerts/{id}/ack", s.handleUnacknowledge)

	r.Get("/thresholds", s.handleGetThresholds)
	r.Put("/thresholds", s.handlePutThresholds)

	r.Get("/rules", s.handleGetRules)
	r.Put("/rules", s.handlePutRules)
	r.Post("/rules", s.handleCreateRule)

	r.Get("/species", s.handleSpecies)
	r.Get("/habitats", s.handleHabitats)

	return r
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{
		"status": "ok",
		"time":   s.now().UTC().Format(time.RFC3339),
	}
	if s.reports != nil && s.reports.Cache != nil {
		resp["cache"] = string(s.reports.Cache.Mode())
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseQuery reads start, end, category and operator from the URL.
func parseQuery(r *http.Request) (report.Query, error) {
	v := r.URL.Query()
	q := report.Query{
		Start:    v.Get("start"),
		End:      v.Get("end"),
		Operator: v.Get("operator"),
	}

	for name, d := range map[string]string{"start": q.Start, "end": q.End} {
		if d == "" {
			continue
		}
		if _, ok := flight.ParseDate(d); !ok {
			return q, fmt.Errorf("invalid %s date %q (use YYYY-MM-DD)", name, d)
		}
	}
	if q.Start != "" && q.End != "" && q.Start > q.End {
		return q, fmt.Errorf("start %s is after end %s", q.Start, q.End)
	}

	if c := v.Get("category"); c != "" {
		q.Category = flight.ParseCategory(c)
		if q.Category == flight.Unknown && !strings.EqualFold(c, string(flight.Unknown)) {
			return q, fmt.Errorf("unknown aircraft category %q", c)
		}
	}
	return q, nil
}

// buildReport parses the query and builds the report, writing an error
// response and returning nil on failure.
func (s *Server) buildReport(w http.ResponseWriter, r *http.Request) *report.Report {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil
	}
	rep, err := s.reports.Build(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil
	}
	return rep
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if rep := s.buildReport(w, r); rep != nil {
		writeJSON(w, http.StatusOK, rep)
	}
}

func (s *Server) handleViolations(w http.ResponseWriter, r *http.Request) {
	var minLevel severity.Level
	if v := r.URL.Query().Get("minSeverity"); v != "" {
		l, err := severity.Parse(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		minLevel = l
	}

	rep := s.buildReport(w, r)
	if rep == nil {
		return
	}

	out := rep.Violations
	if minLevel != "" {
		out = make([]biodiversity.Violation, 0, len(rep.Violations))
		for _, v := range rep.Violations {
			if v.OverallSeverity.AtLeast(minLevel) {
				out = append(out, v)
			}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleViolationSummary(w http.ResponseWriter, r *http.Request) {
	if rep := s.buildReport(w, r); rep != nil {
		writeJSON(w, http.StatusOK, rep.Summary)
	}
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	priority := alerts.Priority(strings.ToLower(v.Get("priority")))
	if priority != "" && !priority.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown priority %q", priority))
		return
	}
	onlyOpen := v.Get("unacknowledged") == "true"

	rep := s.buildReport(w, r)
	if rep == nil {
		return
	}

	out := make([]alerts.Triggered, 0, len(rep.Alerts))
	for _, a := range rep.Alerts {
		if priority != "" && a.Priority != priority {
			continue
		}
		if onlyOpen && a.Acknowledged {
			continue
		}
		out = append(out, a)
	}
	writeJSON(w, http.StatusOK, out)
}

// AckResponse is returned by the acknowledgement endpoints.
type AckResponse struct {
	ID           string `json:"id"`
	Acknowledged bool   `json:"acknowledged"`
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.AcknowledgeAlert(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, AckResponse{ID: id, Acknowledged: true})
}

func (s *Server) handleUnacknowledge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.UnacknowledgeAlert(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, AckResponse{ID: id, Acknowledged: false})
}

func (s *Server) handleGetThresholds(w http.ResponseWriter, r *http.Request) {
	th, err := s.reports.Thresholds(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, th)
}

func (s *Server) handlePutThresholds(w http.ResponseWriter, r *http.Request) {
	var th []biodiversity.Threshold
	if err := decodeBody(w, r, &th); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if err := validateThresholds(th); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if th == nil {
		th = []biodiversity.Threshold{}
	}
	if err := s.store.SaveThresholds(r.Context(), th); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, th)
}

func validateThresholds(th []biodiversity.Threshold) error {
	seen := make(map[string]bool, len(th))
	for _, t := range th {
		if t.ID == "" {
			return fmt.Errorf("threshold id is required")
		}
		if seen[t.ID] {
			return fmt.Errorf("duplicate threshold id %q", t.ID)
		}
		seen[t.ID] = true
		if !t.ViolationSeverity.Valid() {
			return fmt.Errorf("threshold %s: invalid severity %q", t.ID, t.ViolationSeverity)
		}
	}
	return nil
}

func (s *Server) handleGetRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.reports.Rules(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

func (s *Server) handlePutRules(w http.ResponseWriter, r *http.Request) {
	var rules []alerts.Rule
	if err := decodeBody(w, r, &rules); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if rules == nil {
		rules = []alerts.Rule{}
	}
	for i := range rules {
		s.fillRule(&rules[i])
	}
	if err := validateRules(rules); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.SaveAlertRules(r.Context(), rules); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var rule alerts.Rule
	if err := decodeBody(w, r, &rule); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	s.fillRule(&rule)

	rules, err := s.reports.Rules(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	rules = append(rules, rule)
	if err := validateRules(rules); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.SaveAlertRules(r.Context(), rules); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

// fillRule assigns an id and creation time to rules submitted without them.
func (s *Server) fillRule(rule *alerts.Rule) {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if rule.CreatedAt == "" {
		rule.CreatedAt = s.now().UTC().Format("2006-01-02T15:04:05")
	}
}

func validateRules(rules []alerts.Rule) error {
	seen := make(map[string]bool, len(rules))
	for _, rule := range rules {
		if seen[rule.ID] {
			return fmt.Errorf("duplicate rule id %q", rule.ID)
		}
		seen[rule.ID] = true
		if rule.Name == "" {
			return fmt.Errorf("rule %s: name is required", rule.ID)
		}
		if !rule.Priority.Valid() {
			return fmt.Errorf("rule %s: invalid priority %q", rule.ID, rule.Priority)
		}
		switch trig := rule.Trigger.(type) {
		case alerts.RepeatOffenderTrigger:
			if trig.MinViolations <= 0 || trig.PeriodDays <= 0 {
				return fmt.Errorf("rule %s: minViolations and periodDays must be positive", rule.ID)
			}
		case alerts.HighVolumeTrigger:
			if trig.MaxFlightsPerHour < 0 {
				return fmt.Errorf("rule %s: maxFlightsPerHour must not be negative", rule.ID)
			}
		case alerts.SpeciesImpactTrigger:
			if !trig.MinSeverity.Valid() {
				return fmt.Errorf("rule %s: invalid minSeverity %q", rule.ID, trig.MinSeverity)
			}
		}
	}
	return nil
}

func (s *Server) handleSpecies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, biodiversity.AllSpecies())
}

func (s *Server) handleHabitats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, biodiversity.AllHabitats())
}

// Helper functions.

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
