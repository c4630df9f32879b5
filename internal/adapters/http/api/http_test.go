package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/gully/internal/adapters/http/api"
	"github.com/okian/gully/internal/domain/dedupe"
	"github.com/okian/gully/internal/domain/model"
	"github.com/okian/gully/internal/domain/selection"
	. "github.com/smartystreets/goconvey/convey"
)

const scorecard = `{
  "match_id": "m1",
  "info": {
    "dates": ["2024-03-01"],
    "teams": ["Lions", "Tigers"],
    "registry": {"people": {"A Sharma": "p1", "C Khan": "p3"}}
  },
  "innings": [{"team": "Lions", "overs": [{"over": 0, "deliveries": [
    {"batter": "A Sharma", "bowler": "C Khan", "runs": {"batter": 4, "total": 4}}
  ]}]}]
}`

const recommendBody = `{
  "match_date": "2024-03-05",
  "squad": [
    {"player_id": "p1", "name": "A Sharma", "role": "BAT", "team": "Lions", "predicted_fp": 40}
  ]
}`

type fakeDeps struct {
	dedupe.Deduper
	enqueueOK        bool
	enqueued         []*model.Match
	recommendErr     error
	recommendedMatch *model.Match
	predictions      map[string]float64
}

func newFakeDeps() *fakeDeps {
	return &fakeDeps{Deduper: dedupe.NewInMemory(), enqueueOK: true}
}

func (f *fakeDeps) Enqueue(ctx context.Context, m *model.Match) bool {
	if !f.enqueueOK {
		return false
	}
	f.enqueued = append(f.enqueued, m)
	return true
}

func (f *fakeDeps) Recommend(ctx context.Context, matchDate time.Time, squad []model.SquadPlayer) (model.SelectionResult, error) {
	if f.recommendErr != nil {
		return model.SelectionResult{}, f.recommendErr
	}
	for i := range squad {
		squad[i].Credits = 7.5
	}
	return model.SelectionResult{
		Players:              squad,
		TotalPredictedPoints: 40,
		TotalCredits:         7.5,
	}, nil
}

func (f *fakeDeps) RecommendMatch(ctx context.Context, m *model.Match, predictions map[string]float64) (model.SelectionResult, error) {
	if f.recommendErr != nil {
		return model.SelectionResult{}, f.recommendErr
	}
	f.recommendedMatch = m
	f.predictions = predictions
	return model.SelectionResult{TotalPredictedPoints: 55}, nil
}

func (f *fakeDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"history_rows": 3}
}

func newTestMux(deps *fakeDeps) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, deps).Register(context.Background(), mux)
	return mux
}

func TestPostMatch(t *testing.T) {
	Convey("Given the matches endpoint", t, func() {
		deps := newFakeDeps()
		mux := newTestMux(deps)

		post := func(body string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/matches", strings.NewReader(body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			return rec
		}

		Convey("When a valid scorecard is submitted", func() {
			rec := post(scorecard)

			Convey("Then it is accepted and enqueued", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				So(rec.Body.String(), ShouldContainSubstring, `"status":"accepted"`)
				So(deps.enqueued, ShouldHaveLength, 1)
				So(deps.enqueued[0].MatchID, ShouldEqual, "m1")
			})
		})

		Convey("When the same scorecard is submitted twice", func() {
			post(scorecard)
			rec := post(scorecard)

			Convey("Then the replay is acknowledged as duplicate", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"duplicate":true`)
				So(deps.enqueued, ShouldHaveLength, 1)
			})
		})

		Convey("When the body is not a valid scorecard", func() {
			rec := post(`{"innings": []}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the queue rejects the match", func() {
			deps.enqueueOK = false
			rec := post(scorecard)

			Convey("Then 429 is returned and the seen mark rolls back", func() {
				So(rec.Code, ShouldEqual, http.StatusTooManyRequests)

				deps.enqueueOK = true
				retry := post(scorecard)
				So(retry.Code, ShouldEqual, http.StatusAccepted)
			})
		})

		Convey("When the method is not POST", func() {
			req := httptest.NewRequest(http.MethodGet, "/matches", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestPostRecommend(t *testing.T) {
	Convey("Given the recommend endpoint", t, func() {
		deps := newFakeDeps()
		mux := newTestMux(deps)

		post := func(body string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/recommend", strings.NewReader(body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			return rec
		}

		Convey("When a valid request is posted", func() {
			rec := post(recommendBody)

			Convey("Then the priced selection is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"credits":7.5`)
				So(rec.Body.String(), ShouldContainSubstring, `"total_predicted_points":40`)
			})
		})

		Convey("When the match date is malformed", func() {
			rec := post(strings.Replace(recommendBody, "2024-03-05", "05/03/2024", 1))
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a squad player has an unknown role", func() {
			rec := post(strings.Replace(recommendBody, `"role": "BAT"`, `"role": "KEEPER"`, 1))
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the squad is empty", func() {
			rec := post(`{"match_date": "2024-03-05", "squad": []}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a match file is posted instead of a squad", func() {
			rec := post(`{"match": ` + scorecard + `, "predictions": {"p1": 62.5}}`)

			Convey("Then the squad is derived from the match", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"total_predicted_points":55`)
				So(deps.recommendedMatch, ShouldNotBeNil)
				So(deps.recommendedMatch.MatchID, ShouldEqual, "m1")
				So(deps.predictions["p1"], ShouldEqual, 62.5)
			})
		})

		Convey("When both a match file and a squad are posted", func() {
			rec := post(`{"match": ` + scorecard + `, "match_date": "2024-03-05", "squad": [{"player_id": "p1", "role": "BAT", "team": "Lions"}]}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the embedded match file is invalid", func() {
			rec := post(`{"match": {"innings": []}}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When no legal eleven exists", func() {
			deps.recommendErr = selection.ErrInfeasible
			rec := post(recommendBody)
			So(rec.Code, ShouldEqual, http.StatusUnprocessableEntity)
			So(rec.Body.String(), ShouldContainSubstring, "infeasible_selection")
		})
	})
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given the service endpoints", t, func() {
		mux := newTestMux(newFakeDeps())

		Convey("When /healthz is queried", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"status":"ok"`)
		})

		Convey("When /stats is queried", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"history_rows":3`)
		})

		Convey("When /metrics is scraped", func() {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusOK)
		})
	})
}

func TestMiddleware(t *testing.T) {
	Convey("Given the middleware chain", t, func() {
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		Convey("When a request carries no request ID", func() {
			handler := api.RequestIDMiddleware(inner)
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			So(rec.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)
		})

		Convey("When a request carries its own request ID", func() {
			handler := api.RequestIDMiddleware(inner)
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.Header.Set(api.RequestIDHeader, "req-42")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			So(rec.Header().Get(api.RequestIDHeader), ShouldEqual, "req-42")
		})

		Convey("When the rate limit is exhausted", func() {
			handler := api.RateLimitMiddleware(inner, 1, 1)

			first := httptest.NewRecorder()
			handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/matches", nil))
			second := httptest.NewRecorder()
			handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/matches", nil))

			So(first.Code, ShouldEqual, http.StatusOK)
			So(second.Code, ShouldEqual, http.StatusTooManyRequests)
		})

		Convey("When rate limiting is disabled", func() {
			handler := api.RateLimitMiddleware(inner, 0, 0)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/matches", nil))
			So(rec.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When CORS is configured", func() {
			handler := api.CORSMiddleware(inner, []string{"https://fantasy.example"})
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.Header.Set("Origin", "https://fantasy.example")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			So(rec.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "https://fantasy.example")
		})
	})
}
