package collect

import (
	"github.com/albapepper/scoracle-events/internal/provider"
	"github.com/albapepper/scoracle-events/internal/table"
)

var matchColumns = []table.Column{
	{Name: "match_id", Kind: table.KindInt},
	{Name: "match_date", Kind: table.KindString},
	{Name: "kick_off", Kind: table.KindString},
	{Name: "competition_id", Kind: table.KindInt},
	{Name: "competition", Kind: table.KindString},
	{Name: "season_id", Kind: table.KindInt},
	{Name: "season", Kind: table.KindString},
	{Name: "home_team", Kind: table.KindString},
	{Name: "away_team", Kind: table.KindString},
	{Name: "home_score", Kind: table.KindInt},
	{Name: "away_score", Kind: table.KindInt},
	{Name: "match_status", Kind: table.KindString},
	{Name: "match_status_360", Kind: table.KindString},
	{Name: "match_week", Kind: table.KindInt},
	{Name: "competition_stage", Kind: table.KindString},
	{Name: "stadium", Kind: table.KindString},
	{Name: "referee", Kind: table.KindString},
}

// MatchesTable lays out matches one row each.
func MatchesTable(matches []provider.Match) *table.Table {
	t := table.New(matchColumns...)
	for _, m := range matches {
		t.Append(table.Row{
			"match_id":          m.MatchID,
			"match_date":        m.MatchDate,
			"kick_off":          nullString(m.KickOff),
			"competition_id":    m.CompetitionID,
			"competition":       m.Competition,
			"season_id":         m.SeasonID,
			"season":            m.Season,
			"home_team":         m.HomeTeam,
			"away_team":         m.AwayTeam,
			"home_score":        nullInt(m.HomeScore),
			"away_score":        nullInt(m.AwayScore),
			"match_status":      nullString(m.MatchStatus),
			"match_status_360":  nullString(m.MatchStatus360),
			"match_week":        nullInt(m.MatchWeek),
			"competition_stage": nullString(m.CompetitionStage),
			"stadium":           nullString(m.Stadium),
			"referee":           nullString(m.Referee),
		})
	}
	return t
}

// EventsTable lays out events one row each. Columns beyond id appear as the
// events carry them.
func EventsTable(events []provider.Event) *table.Table {
	t := table.New(table.Column{Name: "id", Kind: table.KindString})
	for _, e := range events {
		t.Append(table.Row(e))
	}
	return t
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(p *int) interface{} {
	if p == nil {
		return nil
	}
	return int64(*p)
}
