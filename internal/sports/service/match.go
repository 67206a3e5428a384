// Package service generates the demo sports data served by the API.
// Records are random on every call; nothing is persisted.
package service

import (
	"math/rand/v2"
	"time"
)

const dateLayout = "2006-01-02"

var (
	teams  = []string{"Warriors", "Tigers", "Eagles", "Sharks", "Panthers", "Dragons"}
	venues = []string{"Stadium A", "Stadium B", "Arena C", "Field D"}

	matchStatuses = []string{"Scheduled", "Postponed", "Cancelled"}
)

// GameMatch is one fixture on the match calendar.
type GameMatch struct {
	MatchDate string `json:"matchDate"`
	TeamA     string `json:"teamA"`
	TeamB     string `json:"teamB"`
	Venue     string `json:"venue"`
	Status    string `json:"status"`
}

// MatchService hands out randomly generated fixtures.
type MatchService struct {
	now func() time.Time
}

func NewMatchService() *MatchService {
	return &MatchService{now: time.Now}
}

// Matches returns up to 10 upcoming fixtures. Pairings where a team would
// play itself are dropped rather than re-rolled, so the list length varies.
func (s *MatchService) Matches() []GameMatch {
	out := make([]GameMatch, 0, 10)
	for index := 1; index <= 10; index++ {
		match := s.randomMatch(index)
		if match.TeamA == match.TeamB {
			continue
		}
		out = append(out, match)
	}
	return out
}

// MatchesForTeam returns the upcoming fixtures of one team. The requested
// name is used verbatim, so unknown teams still get a schedule.
func (s *MatchService) MatchesForTeam(team string) []GameMatch {
	out := make([]GameMatch, 0, 5)
	for index := 1; index <= 5; index++ {
		match := s.randomMatch(index)
		match.TeamA = team
		for match.TeamB == team {
			match.TeamB = pick(teams)
		}
		out = append(out, match)
	}
	return out
}

func (s *MatchService) randomMatch(index int) GameMatch {
	return GameMatch{
		MatchDate: s.now().AddDate(0, 0, index).Format(dateLayout),
		TeamA:     pick(teams),
		TeamB:     pick(teams),
		Venue:     pick(venues),
		Status:    pick(matchStatuses),
	}
}

func pick(values []string) string {
	return values[rand.IntN(len(values))]
}
