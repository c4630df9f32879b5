// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/okian/gully/internal/domain/dedupe"
	"github.com/okian/gully/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes a parsed match for async scoring. Returns false on
	// backpressure.
	Enqueue(ctx context.Context, m *model.Match) bool

	// Recommend prices the squad against history before matchDate and
	// solves for the best eleven.
	Recommend(ctx context.Context, matchDate time.Time, squad []model.SquadPlayer) (model.SelectionResult, error)

	// RecommendMatch builds the squad from a match file, using predicted
	// points where supplied and actual scored points otherwise.
	RecommendMatch(ctx context.Context, m *model.Match, predictions map[string]float64) (model.SelectionResult, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	metricsHandler   *MetricsHandler
	statsHandler     *StatsHandler
	matchesHandler   *MatchesHandler
	recommendHandler *RecommendHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		metricsHandler:   NewMetricsHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		matchesHandler:   NewMatchesHandler(deps),
		recommendHandler: NewRecommendHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.metricsHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/matches", MetricsMiddleware(s.matchesHandler.HandlePostMatch, "matches"))
	mux.HandleFunc("/recommend", MetricsMiddleware(s.recommendHandler.HandlePostRecommend, "recommend"))
}

type ackResponse struct {
	Status    string `json:"status"`
	MatchID   string `json:"match_id"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
