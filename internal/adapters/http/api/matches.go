package api

import (
	"io"
	"net/http"

	"github.com/okian/gully/internal/adapters/ingest"
)

// Cap on accepted scorecard payload size.
const maxScorecardBytes = 8 << 20

// MatchesHandler handles scorecard submissions.
type MatchesHandler struct {
	deps Dependencies
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(deps Dependencies) *MatchesHandler {
	return &MatchesHandler{deps: deps}
}

// HandlePostMatch handles POST /matches requests. The body is a
// cricsheet-style scorecard; accepted matches are scored asynchronously.
func (h *MatchesHandler) HandlePostMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_match"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxScorecardBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	m, err := ingest.Parse(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	// Idempotency check, mark as seen first.
	if h.deps.SeenAndRecord(r.Context(), m.MatchID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", MatchID: m.MatchID, Duplicate: true})
		return
	}

	if ok := h.deps.Enqueue(r.Context(), m); !ok {
		// Roll back the seen status since enqueue failed.
		h.deps.Unrecord(r.Context(), m.MatchID)
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", MatchID: m.MatchID, Duplicate: false})
}
