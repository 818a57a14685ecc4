// Package report runs the violation and alert engines over stored flights
// and caches the combined result.
package report

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"jpx_compliance/internal/alerts"
	"jpx_compliance/internal/biodiversity"
	"jpx_compliance/internal/cache"
	"jpx_compliance/internal/flight"
	"jpx_compliance/internal/storage"
)

// DefaultTTL is how long a built report stays cached.
const DefaultTTL = 5 * time.Minute

// Query selects the flights a report covers. Dates are YYYY-MM-DD and
// inclusive; empty fields are unbounded.
type Query struct {
	Start    string          `json:"start,omitempty"`
	End      string          `json:"end,omitempty"`
	Category flight.Category `json:"category,omitempty"`
	Operator string          `json:"operator,omitempty"`
}

func (q Query) flightQuery() storage.FlightQuery {
	return storage.FlightQuery{Start: q.Start, End: q.End, Category: q.Category, Operator: q.Operator}
}

// Report is the output of one evaluation run.
type Report struct {
	Query        Query                    `json:"query"`
	GeneratedAt  time.Time                `json:"generatedAt"`
	Flights      int                      `json:"flights"`
	Violations   []biodiversity.Violation `json:"violations"`
	Summary      biodiversity.Summary     `json:"summary"`
	Alerts       []alerts.Triggered       `json:"alerts"`
	AlertSummary alerts.Summary           `json:"alertSummary"`
}

// Compute evaluates flights without touching storage.
func Compute(q Query, flights []flight.Record, thresholds []biodiversity.Threshold, rules []alerts.Rule, acknowledged map[string]bool, at time.Time) *Report {
	violations := biodiversity.EvaluateAllFlights(flights, thresholds)
	triggered := alerts.Evaluate(flights, violations, rules, acknowledged)
	return &Report{
		Query:        q,
		GeneratedAt:  at,
		Flights:      len(flights),
		Violations:   violations,
		Summary:      biodiversity.GenerateViolationSummary(violations),
		Alerts:       triggered,
		AlertSummary: alerts.Summarize(triggered),
	}
}

// Service builds reports from a Store.
type Service struct {
	Store storage.Store
	Cache *cache.Cache
	TTL   time.Duration

	now func() time.Time
}

// NewService returns a Service. c may be nil to disable caching.
func NewService(store storage.Store, c *cache.Cache) *Service {
	return &Service{Store: store, Cache: c, TTL: DefaultTTL, now: time.Now}
}

// Thresholds returns the persisted thresholds, or the defaults if none were
// ever saved.
func (s *Service) Thresholds(ctx context.Context) ([]biodiversity.Threshold, error) {
	th, err := s.Store.LoadThresholds(ctx)
	if err != nil {
		return nil, fmt.Errorf("load thresholds: %w", err)
	}
	if th == nil {
		return biodiversity.DefaultThresholds(), nil
	}
	return th, nil
}

// Rules returns the persisted alert rules, or the defaults if none were
// ever saved.
func (s *Service) Rules(ctx context.Context) ([]alerts.Rule, error) {
	rules, err := s.Store.LoadAlertRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	if rules == nil {
		return alerts.DefaultRules(), nil
	}
	return rules, nil
}

type inputs struct {
	Query        Query                    `json:"query"`
	Flights      []flight.Record          `json:"flights"`
	Thresholds   []biodiversity.Threshold `json:"thresholds"`
	Rules        []alerts.Rule            `json:"rules"`
	Acknowledged map[string]bool          `json:"acknowledged"`
}

// cacheKey hashes every input of a report so that any change to flights,
// configuration or acknowledgements misses the cache.
func cacheKey(in *inputs) (string, error) {
	b, err := json.Marshal(in)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return "report:" + hex.EncodeToString(sum[:]), nil
}

// Build loads everything the query needs and evaluates it.
func (s *Service) Build(ctx context.Context, q Query) (*Report, error) {
	flights, err := s.Store.QueryFlights(ctx, q.flightQuery())
	if err != nil {
		return nil, err
	}
	thresholds, err := s.Thresholds(ctx)
	if err != nil {
		return nil, err
	}
	rules, err := s.Rules(ctx)
	if err != nil {
		return nil, err
	}
	acks, err := s.Store.AcknowledgedAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load acknowledgements: %w", err)
	}

	in := &inputs{Query: q, Flights: flights, Thresholds: thresholds, Rules: rules, Acknowledged: acks}

	var key string
	if s.Cache != nil {
		if key, err = cacheKey(in); err != nil {
			return nil, fmt.Errorf("cache key: %w", err)
		}
		var cached Report
		found, err := s.Cache.Get(ctx, key, &cached)
		if err != nil {
			log.Printf("report cache read failed: %v", err)
		} else if found {
			return &cached, nil
		}
	}

	rep := Compute(q, flights, thresholds, rules, acks, s.now().UTC())

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, key, rep, s.TTL); err != nil {
			log.Printf("report cache write failed: %v", err)
		}
	}
	return rep, nil
}
