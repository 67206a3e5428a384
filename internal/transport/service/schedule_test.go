package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tollgate-labs/tollgate/internal/transport/service"
)

func TestBusSchedules(t *testing.T) {
	svc := service.NewScheduleService()

	t.Run("generates distinct endpoints", func(t *testing.T) {
		buses := svc.BusSchedules()
		require.NotEmpty(t, buses)
		require.LessOrEqual(t, len(buses), 10)
		for _, bus := range buses {
			require.NotEqual(t, bus.Origin, bus.Destination)
			require.Regexp(t, `^BUS-\d{3}$`, bus.BusNumber)
			require.Contains(t, []string{"On Time", "Delayed", "Cancelled"}, bus.Status)
			require.Contains(t, []string{"Departure", "Arrival"}, bus.Direction)
		}
	})

	t.Run("lookup echoes the requested number", func(t *testing.T) {
		bus := svc.BusByNumber("BUS-777")
		require.Equal(t, "BUS-777", bus.BusNumber)
		require.NotEmpty(t, bus.Company)
	})

	t.Run("times are clock format", func(t *testing.T) {
		bus := svc.BusByNumber("BUS-001")
		_, err := time.Parse("15:04", bus.DepartureTime)
		require.NoError(t, err)
		_, err = time.Parse("15:04", bus.ArrivalTime)
		require.NoError(t, err)
	})
}

func TestFlightSchedules(t *testing.T) {
	svc := service.NewScheduleService()

	t.Run("generates distinct endpoints", func(t *testing.T) {
		flights := svc.FlightSchedules()
		require.NotEmpty(t, flights)
		require.LessOrEqual(t, len(flights), 10)
		for _, flight := range flights {
			require.NotEqual(t, flight.Origin, flight.Destination)
			require.Regexp(t, `^FL-\d{3}$`, flight.FlightNumber)
		}
	})

	t.Run("lookup echoes the requested number", func(t *testing.T) {
		flight := svc.FlightByNumber("FL-042")
		require.Equal(t, "FL-042", flight.FlightNumber)
		require.NotEmpty(t, flight.Airline)
	})
}

func TestForecast(t *testing.T) {
	svc := service.NewScheduleService()

	forecast := svc.Forecast()
	require.Len(t, forecast, 5)

	for _, day := range forecast {
		require.GreaterOrEqual(t, day.TemperatureC, -20)
		require.Less(t, day.TemperatureC, 55)
		require.NotEmpty(t, day.Summary)

		parsed, err := time.Parse("2006-01-02", day.Date)
		require.NoError(t, err)
		require.True(t, parsed.After(time.Now().AddDate(0, 0, -1)))
	}
}
