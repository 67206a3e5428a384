// Package service generates the demo transport data served by the API.
// Records are random on every call; nothing is persisted.
package service

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Clock times and dates on the wire.
const (
	clockLayout = "15:04"
	dateLayout  = "2006-01-02"
)

var (
	busCompanies = []string{"CityBus", "MetroLine", "QuickRide", "RoadRunner", "SkyBus", "HighwayExpress"}
	busStations  = []string{"Central Station", "North Terminal", "South Depot", "East Hub", "West Point"}

	airlines = []string{"Air Express", "SkyJet", "FlyFast", "AeroWings", "CloudAir", "JetStream"}
	airports = []string{"JFK", "LAX", "ORD", "ATL", "DFW", "DXB"}

	scheduleStatuses = []string{"On Time", "Delayed", "Cancelled"}
	directions       = []string{"Departure", "Arrival"}
)

// BusSchedule is one departure or arrival on the bus timetable.
type BusSchedule struct {
	BusNumber     string `json:"busNumber"`
	Company       string `json:"company"`
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureTime string `json:"departureTime"`
	ArrivalTime   string `json:"arrivalTime"`
	Status        string `json:"status"`
	Direction     string `json:"direction"`
}

// FlightSchedule is one departure or arrival on the flight timetable.
type FlightSchedule struct {
	FlightNumber  string `json:"flightNumber"`
	Airline       string `json:"airline"`
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureTime string `json:"departureTime"`
	ArrivalTime   string `json:"arrivalTime"`
	Status        string `json:"status"`
	Direction     string `json:"direction"`
}

// ScheduleService hands out randomly generated timetables.
type ScheduleService struct {
	now func() time.Time
}

func NewScheduleService() *ScheduleService {
	return &ScheduleService{now: time.Now}
}

// BusSchedules returns up to 10 upcoming bus records. Records where the
// origin and destination stations collide are dropped rather than
// re-rolled, so the list length varies.
func (s *ScheduleService) BusSchedules() []BusSchedule {
	out := make([]BusSchedule, 0, 10)
	for index := 1; index <= 10; index++ {
		bus := s.randomBus(index)
		if bus.Origin == bus.Destination {
			continue
		}
		out = append(out, bus)
	}
	return out
}

// BusByNumber returns a single record carrying the requested bus number.
func (s *ScheduleService) BusByNumber(busNumber string) BusSchedule {
	bus := s.randomBus(1 + rand.IntN(49))
	bus.BusNumber = busNumber
	return bus
}

// FlightSchedules returns up to 10 upcoming flight records, same-airport
// legs dropped.
func (s *ScheduleService) FlightSchedules() []FlightSchedule {
	out := make([]FlightSchedule, 0, 10)
	for index := 1; index <= 10; index++ {
		flight := s.randomFlight(index)
		if flight.Origin == flight.Destination {
			continue
		}
		out = append(out, flight)
	}
	return out
}

// FlightByNumber returns a single record carrying the requested flight
// number.
func (s *ScheduleService) FlightByNumber(flightNumber string) FlightSchedule {
	flight := s.randomFlight(1 + rand.IntN(49))
	flight.FlightNumber = flightNumber
	return flight
}

func (s *ScheduleService) randomBus(index int) BusSchedule {
	departure := s.now().Add(time.Duration(index) * time.Hour)
	arrival := departure.Add(time.Duration(1+rand.IntN(3)) * time.Hour)

	return BusSchedule{
		BusNumber:     fmt.Sprintf("BUS-%03d", index),
		Company:       pick(busCompanies),
		Origin:        pick(busStations),
		Destination:   pick(busStations),
		DepartureTime: departure.Format(clockLayout),
		ArrivalTime:   arrival.Format(clockLayout),
		Status:        pick(scheduleStatuses),
		Direction:     pick(directions),
	}
}

func (s *ScheduleService) randomFlight(index int) FlightSchedule {
	departure := s.now().Add(time.Duration(index) * 2 * time.Hour)
	arrival := departure.Add(time.Duration(2+rand.IntN(4)) * time.Hour)

	return FlightSchedule{
		FlightNumber:  fmt.Sprintf("FL-%03d", index),
		Airline:       pick(airlines),
		Origin:        pick(airports),
		Destination:   pick(airports),
		DepartureTime: departure.Format(clockLayout),
		ArrivalTime:   arrival.Format(clockLayout),
		Status:        pick(scheduleStatuses),
		Direction:     pick(directions),
	}
}

func pick(values []string) string {
	return values[rand.IntN(len(values))]
}
