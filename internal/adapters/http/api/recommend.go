package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/gully/internal/adapters/ingest"
	"github.com/okian/gully/internal/domain/model"
	"github.com/okian/gully/internal/domain/selection"
	"github.com/okian/gully/internal/domain/types"
)

const recommendDateLayout = "2006-01-02"

// RecommendHandler handles XI recommendation requests.
type RecommendHandler struct {
	deps Dependencies
}

// NewRecommendHandler creates a new recommend handler.
func NewRecommendHandler(deps Dependencies) *RecommendHandler {
	return &RecommendHandler{deps: deps}
}

// recommendRequest mirrors the JSON schema for POST /recommend. A request
// carries either an explicit squad with a match date, or a raw match file
// (with optional per-player predictions) from which the squad is derived.
type recommendRequest struct {
	MatchDate   string               `json:"match_date"`
	Squad       []squadPlayerRequest `json:"squad"`
	Match       json.RawMessage      `json:"match"`
	Predictions map[string]float64   `json:"predictions"`
}

type squadPlayerRequest struct {
	PlayerID    string  `json:"player_id"`
	Name        string  `json:"name"`
	Role        string  `json:"role"`
	Team        string  `json:"team"`
	PredictedFP float64 `json:"predicted_fp"`
}

func (r recommendRequest) validate() error {
	if len(r.Match) > 0 {
		if len(r.Squad) > 0 {
			return errors.New("provide either match or squad, not both")
		}
		return nil
	}
	if strings.TrimSpace(r.MatchDate) == "" {
		return errors.New("missing match_date")
	}
	if _, err := time.Parse(recommendDateLayout, r.MatchDate); err != nil {
		return errors.New("invalid match_date; must be YYYY-MM-DD")
	}
	if len(r.Squad) == 0 {
		return errors.New("missing squad")
	}
	for i, p := range r.Squad {
		switch {
		case strings.TrimSpace(p.PlayerID) == "":
			return errors.New("squad player missing player_id")
		case strings.TrimSpace(p.Team) == "":
			return errors.New("squad player missing team")
		case !types.Role(p.Role).Valid():
			return errors.New("squad player " + r.Squad[i].PlayerID + " has unknown role " + p.Role)
		}
	}
	return nil
}

// HandlePostRecommend handles POST /recommend requests.
func (h *RecommendHandler) HandlePostRecommend(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_recommend"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	var (
		result model.SelectionResult
		err    error
	)
	if len(req.Match) > 0 {
		m, perr := ingest.Parse(req.Match)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, perr))
			return
		}
		result, err = h.deps.RecommendMatch(r.Context(), m, req.Predictions)
	} else {
		matchDate, _ := time.Parse(recommendDateLayout, req.MatchDate)
		squad := make([]model.SquadPlayer, 0, len(req.Squad))
		for _, p := range req.Squad {
			squad = append(squad, model.SquadPlayer{
				PlayerID:    p.PlayerID,
				Name:        p.Name,
				Role:        types.Role(p.Role),
				Team:        p.Team,
				PredictedFP: p.PredictedFP,
			})
		}
		result, err = h.deps.Recommend(r.Context(), matchDate, squad)
	}
	if err != nil {
		if errors.Is(err, selection.ErrInfeasible) {
			writeError(w, http.StatusUnprocessableEntity, "infeasible_selection", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}
