// Package ingest parses cricsheet-style scorecard JSON into the domain
// match model.
package ingest

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/okian/gully/internal/domain/model"
)

const dateLayout = "2006-01-02"

// Wire shapes for the scorecard payload. Field names follow the
// cricsheet JSON schema.
type scorecard struct {
	MatchID string       `json:"match_id"`
	Info    matchInfo    `json:"info"`
	Innings []inningsDoc `json:"innings"`
}

type matchInfo struct {
	Event    eventDoc            `json:"event"`
	Dates    []string            `json:"dates"`
	Teams    []string            `json:"teams"`
	Players  map[string][]string `json:"players"`
	Registry registryDoc         `json:"registry"`
}

type eventDoc struct {
	Name string `json:"name"`
}

type inningsDoc struct {
	Team  string    `json:"team"`
	Overs []overDoc `json:"overs"`
}

type overDoc struct {
	Over       int           `json:"over"`
	Deliveries []deliveryDoc `json:"deliveries"`
}

type deliveryDoc struct {
	Batter  string      `json:"batter"`
	Bowler  string      `json:"bowler"`
	Runs    runsDoc     `json:"runs"`
	Extras  extrasDoc   `json:"extras"`
	Wickets []wicketDoc `json:"wickets"`
}

type runsDoc struct {
	Batter int `json:"batter"`
	Extras int `json:"extras"`
	Total  int `json:"total"`
}

type extrasDoc struct {
	Wides   int `json:"wides"`
	NoBalls int `json:"noballs"`
	Byes    int `json:"byes"`
	LegByes int `json:"legbyes"`
}

type wicketDoc struct {
	Kind      string       `json:"kind"`
	PlayerOut string       `json:"player_out"`
	Fielders  []fielderDoc `json:"fielders"`
}

type fielderDoc struct {
	Name string `json:"name"`
}

type registryDoc struct {
	People map[string]string `json:"people"`
}

// Parse decodes a scorecard payload and validates it into a Match.
func Parse(data []byte) (*model.Match, error) {
	var doc scorecard
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("ingest: decode scorecard: %w", err)
	}
	return build(&doc)
}

func build(doc *scorecard) (*model.Match, error) {
	if len(doc.Info.Teams) == 0 {
		return nil, ErrNoTeams
	}
	if len(doc.Info.Dates) == 0 {
		return nil, ErrNoDate
	}
	if len(doc.Info.Registry.People) == 0 {
		return nil, ErrNoRegistry
	}
	if len(doc.Innings) == 0 {
		return nil, ErrNoInnings
	}

	date, err := time.Parse(dateLayout, doc.Info.Dates[0])
	if err != nil {
		return nil, fmt.Errorf("ingest: parse date %q: %w", doc.Info.Dates[0], ErrBadDate)
	}

	m := &model.Match{
		MatchID:  doc.MatchID,
		Date:     date,
		Teams:    doc.Info.Teams,
		Players:  doc.Info.Players,
		Registry: doc.Info.Registry.People,
	}
	if m.MatchID == "" {
		m.MatchID = deriveMatchID(&doc.Info, date)
	}

	for _, inn := range doc.Innings {
		innings := model.Innings{Team: inn.Team}
		for _, ov := range inn.Overs {
			over := model.Over{Number: ov.Over}
			if len(ov.Deliveries) == 0 {
				return nil, fmt.Errorf("ingest: innings %q over %d: %w", inn.Team, ov.Over, ErrEmptyOver)
			}
			for _, d := range ov.Deliveries {
				if d.Batter == "" || d.Bowler == "" {
					return nil, fmt.Errorf("ingest: innings %q over %d: %w", inn.Team, ov.Over, ErrMissingActor)
				}
				over.Deliveries = append(over.Deliveries, buildDelivery(d))
			}
			innings.Overs = append(innings.Overs, over)
		}
		m.Innings = append(m.Innings, innings)
	}
	return m, nil
}

func buildDelivery(d deliveryDoc) model.Delivery {
	out := model.Delivery{
		Batter: d.Batter,
		Bowler: d.Bowler,
		Runs: model.Runs{
			Batter: d.Runs.Batter,
			Extras: d.Runs.Extras,
			Total:  d.Runs.Total,
		},
		Extras: model.Extras{
			Wides:   d.Extras.Wides,
			NoBalls: d.Extras.NoBalls,
			Byes:    d.Extras.Byes,
			LegByes: d.Extras.LegByes,
		},
	}
	for _, w := range d.Wickets {
		wicket := model.Wicket{Kind: w.Kind, PlayerOut: w.PlayerOut}
		for _, f := range w.Fielders {
			wicket.Fielders = append(wicket.Fielders, f.Name)
		}
		out.Wickets = append(out.Wickets, wicket)
	}
	return out
}

// deriveMatchID builds a stable identifier for payloads that carry no
// explicit match_id, so replays of the same scorecard dedupe correctly.
func deriveMatchID(info *matchInfo, date time.Time) string {
	parts := []string{date.Format(dateLayout)}
	if info.Event.Name != "" {
		parts = append(parts, slug(info.Event.Name))
	}
	for _, team := range info.Teams {
		parts = append(parts, slug(team))
	}
	return strings.Join(parts, "-")
}

func slug(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "-"))
}
