package ingest_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/okian/gully/internal/adapters/ingest"
	. "github.com/smartystreets/goconvey/convey"
)

const sample = `{
  "match_id": "t20-final-2024",
  "info": {
    "event": {"name": "Premier Cup"},
    "dates": ["2024-03-01"],
    "teams": ["Lions", "Tigers"],
    "players": {
      "Lions": ["A Sharma", "B Patel"],
      "Tigers": ["C Khan", "D Silva"]
    },
    "registry": {"people": {
      "A Sharma": "p1", "B Patel": "p2", "C Khan": "p3", "D Silva": "p4"
    }}
  },
  "innings": [
    {
      "team": "Lions",
      "overs": [
        {
          "over": 0,
          "deliveries": [
            {"batter": "A Sharma", "bowler": "C Khan", "runs": {"batter": 4, "extras": 0, "total": 4}},
            {"batter": "A Sharma", "bowler": "C Khan",
             "runs": {"batter": 0, "extras": 1, "total": 1},
             "extras": {"wides": 1}},
            {"batter": "A Sharma", "bowler": "C Khan",
             "runs": {"batter": 0, "extras": 0, "total": 0},
             "wickets": [{"kind": "caught", "player_out": "A Sharma", "fielders": [{"name": "D Silva"}]}]}
          ]
        }
      ]
    }
  ]
}`

// mutate swaps one fragment of the sample payload.
func mutate(old, new string) []byte {
	return []byte(strings.Replace(sample, old, new, 1))
}

func TestParse(t *testing.T) {
	Convey("Given a full scorecard payload", t, func() {
		m, err := ingest.Parse([]byte(sample))
		So(err, ShouldBeNil)

		Convey("Then match metadata is carried over", func() {
			So(m.MatchID, ShouldEqual, "t20-final-2024")
			So(m.Date, ShouldEqual, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
			So(m.Teams, ShouldResemble, []string{"Lions", "Tigers"})
			So(m.Registry["A Sharma"], ShouldEqual, "p1")
			So(m.Players["Tigers"], ShouldResemble, []string{"C Khan", "D Silva"})
		})

		Convey("Then deliveries keep runs, extras and wickets", func() {
			So(m.Innings, ShouldHaveLength, 1)
			overs := m.Innings[0].Overs
			So(overs, ShouldHaveLength, 1)
			So(overs[0].Deliveries, ShouldHaveLength, 3)

			So(overs[0].Deliveries[0].Runs.Batter, ShouldEqual, 4)
			So(overs[0].Deliveries[1].IsWide(), ShouldBeTrue)
			wicket := overs[0].Deliveries[2].Wickets[0]
			So(wicket.Kind, ShouldEqual, "caught")
			So(wicket.Fielders, ShouldResemble, []string{"D Silva"})
		})
	})
}

func TestParseDerivedMatchID(t *testing.T) {
	Convey("Given a payload with no match_id", t, func() {
		payload := mutate(`"match_id": "t20-final-2024",`, ``)

		Convey("Then a stable id is derived from event, date and teams", func() {
			m, err := ingest.Parse(payload)
			So(err, ShouldBeNil)
			So(m.MatchID, ShouldEqual, "2024-03-01-premier-cup-lions-tigers")

			again, err := ingest.Parse(payload)
			So(err, ShouldBeNil)
			So(again.MatchID, ShouldEqual, m.MatchID)
		})
	})
}

func TestParseValidation(t *testing.T) {
	Convey("Given malformed payloads", t, func() {
		Convey("When the teams list is empty", func() {
			_, err := ingest.Parse(mutate(`"teams": ["Lions", "Tigers"],`, `"teams": [],`))
			So(errors.Is(err, ingest.ErrNoTeams), ShouldBeTrue)
		})

		Convey("When the dates list is empty", func() {
			_, err := ingest.Parse(mutate(`"dates": ["2024-03-01"],`, `"dates": [],`))
			So(errors.Is(err, ingest.ErrNoDate), ShouldBeTrue)
		})

		Convey("When the date is not ISO formatted", func() {
			_, err := ingest.Parse(mutate(`"dates": ["2024-03-01"],`, `"dates": ["01/03/2024"],`))
			So(errors.Is(err, ingest.ErrBadDate), ShouldBeTrue)
		})

		Convey("When the registry is empty", func() {
			_, err := ingest.Parse(mutate(
				`"A Sharma": "p1", "B Patel": "p2", "C Khan": "p3", "D Silva": "p4"`, ``))
			So(errors.Is(err, ingest.ErrNoRegistry), ShouldBeTrue)
		})

		Convey("When there are no innings", func() {
			_, err := ingest.Parse(mutate(`"innings": [`, `"innings": [], "spare": [`))
			So(errors.Is(err, ingest.ErrNoInnings), ShouldBeTrue)
		})

		Convey("When an over has no deliveries", func() {
			_, err := ingest.Parse(mutate(`"deliveries": [`, `"deliveries_gone": [`))
			So(errors.Is(err, ingest.ErrEmptyOver), ShouldBeTrue)
		})

		Convey("When a delivery is missing its bowler", func() {
			_, err := ingest.Parse(mutate(
				`"bowler": "C Khan", "runs": {"batter": 4, "extras": 0, "total": 4}`,
				`"runs": {"batter": 4, "extras": 0, "total": 4}`))
			So(errors.Is(err, ingest.ErrMissingActor), ShouldBeTrue)
		})

		Convey("When the payload is not JSON", func() {
			_, err := ingest.Parse([]byte("not json"))
			So(err, ShouldNotBeNil)
		})
	})
}
