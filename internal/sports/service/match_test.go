package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tollgate-labs/tollgate/internal/sports/service"
)

func TestMatches(t *testing.T) {
	svc := service.NewMatchService()

	t.Run("generates distinct pairings", func(t *testing.T) {
		matches := svc.Matches()
		require.NotEmpty(t, matches)
		require.LessOrEqual(t, len(matches), 10)
		for _, match := range matches {
			require.NotEqual(t, match.TeamA, match.TeamB)
			require.NotEmpty(t, match.Venue)
			require.Contains(t, []string{"Scheduled", "Postponed", "Cancelled"}, match.Status)
		}
	})

	t.Run("dates are upcoming days", func(t *testing.T) {
		for _, match := range svc.Matches() {
			parsed, err := time.Parse("2006-01-02", match.MatchDate)
			require.NoError(t, err)
			require.True(t, parsed.After(time.Now().AddDate(0, 0, -1)))
		}
	})
}

func TestMatchesForTeam(t *testing.T) {
	svc := service.NewMatchService()

	t.Run("fixes the requested team", func(t *testing.T) {
		matches := svc.MatchesForTeam("Sharks")
		require.Len(t, matches, 5)
		for _, match := range matches {
			require.Equal(t, "Sharks", match.TeamA)
			require.NotEqual(t, "Sharks", match.TeamB)
		}
	})

	t.Run("unknown team still gets opponents", func(t *testing.T) {
		matches := svc.MatchesForTeam("Wanderers")
		require.Len(t, matches, 5)
		for _, match := range matches {
			require.Equal(t, "Wanderers", match.TeamA)
			require.Contains(t,
				[]string{"Warriors", "Tigers", "Eagles", "Sharks", "Panthers", "Dragons"},
				match.TeamB)
		}
	})
}

func TestMatchdayForecast(t *testing.T) {
	svc := service.NewMatchService()

	forecast := svc.Forecast()
	require.Len(t, forecast, 5)
	for _, day := range forecast {
		require.GreaterOrEqual(t, day.TemperatureC, -20)
		require.Less(t, day.TemperatureC, 55)
		require.NotEmpty(t, day.Summary)
	}
}
