// Command xi scores scorecards and recommends elevens from the terminal.
//
// Usage:
//
//	xi score [-db history.db] scorecard.json...
//	xi recommend [-db history.db] request.json
//	xi dream [-db history.db] scorecard.json
//
// The scorecard file is a cricsheet-style match JSON; score also accepts
// directories and backfills every .json file inside. The request file
// carries match_date and the squad, in the same shape as POST /recommend.
// dream derives the squad from the scorecard and uses the actual scored
// points as the prediction, yielding the best-in-hindsight eleven.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/okian/gully/internal/adapters/ingest"
	app "github.com/okian/gully/internal/app"
	"github.com/okian/gully/internal/domain/model"
	"github.com/okian/gully/internal/domain/types"
	"github.com/okian/gully/pkg/logger"
)

const dateLayout = "2006-01-02"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "xi:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if err := logger.Init(); err != nil {
		return err
	}
	_ = logger.SetLevelString("warn")

	if len(args) == 0 {
		return fmt.Errorf("usage: xi <score|recommend|dream> [flags] <file>")
	}

	switch args[0] {
	case "score":
		return runScore(args[1:])
	case "recommend":
		return runRecommend(args[1:])
	case "dream":
		return runDream(args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func newService(ctx context.Context, dbPath string) (*app.Service, error) {
	svc := app.New(
		app.WithWorkerCount(1),
		app.WithDBPath(dbPath),
	)
	if err := svc.Start(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

func runScore(args []string) error {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	dbPath := fs.String("db", "", "sqlite history database (empty keeps results in memory)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("score: no scorecard files given")
	}

	ctx := context.Background()
	svc, err := newService(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer svc.Stop()

	paths, err := expandScorecards(fs.Args())
	if err != nil {
		return err
	}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("score: read %s: %w", path, err)
		}
		m, err := ingest.Parse(data)
		if err != nil {
			return fmt.Errorf("score: parse %s: %w", path, err)
		}
		points, err := svc.ScoreMatch(ctx, m)
		if err != nil {
			return fmt.Errorf("score: match %s: %w", m.MatchID, err)
		}
		printPoints(m, points)
	}
	return nil
}

// expandScorecards turns directory arguments into their sorted .json
// entries so a whole season of historical scorecards can be backfilled
// in one run.
func expandScorecards(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("score: stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("score: read dir %s: %w", arg, err)
		}
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
				continue
			}
			paths = append(paths, filepath.Join(arg, e.Name()))
		}
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("score: no scorecard files found")
	}
	return paths, nil
}

func printPoints(m *model.Match, points map[string]model.PlayerMatchPoints) {
	names := make(map[string]string, len(m.Registry))
	for name, id := range m.Registry {
		names[id] = name
	}

	rows := make([]model.PlayerMatchPoints, 0, len(points))
	for _, p := range points {
		rows = append(rows, p)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return rows[i].PlayerID < rows[j].PlayerID
	})

	fmt.Printf("\n%s (%s)\n", m.MatchID, m.Date.Format(dateLayout))
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Player", "Batting", "Bowling", "Fielding", "Total")
	for _, p := range rows {
		name := names[p.PlayerID]
		if name == "" {
			name = p.PlayerID
		}
		table.Append(
			name,
			fmt.Sprintf("%d", p.Batting),
			fmt.Sprintf("%d", p.Bowling),
			fmt.Sprintf("%d", p.Fielding),
			fmt.Sprintf("%d", p.Total),
		)
	}
	table.Render()
}

// recommendFile mirrors the POST /recommend request body.
type recommendFile struct {
	MatchDate string `json:"match_date"`
	Squad     []struct {
		PlayerID    string  `json:"player_id"`
		Name        string  `json:"name"`
		Role        string  `json:"role"`
		Team        string  `json:"team"`
		PredictedFP float64 `json:"predicted_fp"`
	} `json:"squad"`
}

func runRecommend(args []string) error {
	fs := flag.NewFlagSet("recommend", flag.ContinueOnError)
	dbPath := fs.String("db", "", "sqlite history database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("recommend: exactly one request file expected")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("recommend: read %s: %w", fs.Arg(0), err)
	}
	var req recommendFile
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("recommend: parse %s: %w", fs.Arg(0), err)
	}
	matchDate, err := time.Parse(dateLayout, req.MatchDate)
	if err != nil {
		return fmt.Errorf("recommend: invalid match_date %q", req.MatchDate)
	}

	squad := make([]model.SquadPlayer, 0, len(req.Squad))
	for _, p := range req.Squad {
		role := types.Role(p.Role)
		if !role.Valid() {
			return fmt.Errorf("recommend: player %s has unknown role %q", p.PlayerID, p.Role)
		}
		squad = append(squad, model.SquadPlayer{
			PlayerID:    p.PlayerID,
			Name:        p.Name,
			Role:        role,
			Team:        p.Team,
			PredictedFP: p.PredictedFP,
		})
	}

	ctx := context.Background()
	svc, err := newService(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer svc.Stop()

	result, err := svc.Recommend(ctx, matchDate, squad)
	if err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	printSelection(matchDate, result)
	return nil
}

func runDream(args []string) error {
	fs := flag.NewFlagSet("dream", flag.ContinueOnError)
	dbPath := fs.String("db", "", "sqlite history database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("dream: exactly one scorecard file expected")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("dream: read %s: %w", fs.Arg(0), err)
	}
	m, err := ingest.Parse(data)
	if err != nil {
		return fmt.Errorf("dream: parse %s: %w", fs.Arg(0), err)
	}

	ctx := context.Background()
	svc, err := newService(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer svc.Stop()

	result, err := svc.RecommendMatch(ctx, m, nil)
	if err != nil {
		return fmt.Errorf("dream: %w", err)
	}
	printSelection(m.Date, result)
	return nil
}

func printSelection(matchDate time.Time, result model.SelectionResult) {
	fmt.Printf("\nBest XI for %s\n", matchDate.Format(dateLayout))
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Player", "Role", "Team", "Credits", "Predicted")
	for _, p := range result.Players {
		name := p.Name
		if name == "" {
			name = p.PlayerID
		}
		table.Append(
			name,
			string(p.Role),
			p.Team,
			fmt.Sprintf("%.2f", p.Credits),
			fmt.Sprintf("%.1f", p.PredictedFP),
		)
	}
	table.Render()
	fmt.Printf("predicted points %.1f | credits %.2f/100\n",
		result.TotalPredictedPoints, result.TotalCredits)
}
