package planner_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/transit-routing/planner"
)

var serviceDay = planner.Date{Year: 2024, Month: 10, Day: 7}

// hms 解析HH:MM:SS，空串表示缺失
func hms(s string) planner.OptionalClock {
	if s == "" {
		return planner.None()
	}
	var h, m, sec int64
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		panic(err)
	}
	return planner.Some(planner.ClockOf(h*3600 + m*60 + sec))
}

func at(s string) planner.Clock {
	return hms(s).Clock
}

func visit(trip, stop string, seq int, arrival, departure string) planner.ScheduledVisit {
	return planner.ScheduledVisit{
		TripID:    trip,
		StopID:    stop,
		Arrival:   hms(arrival),
		Departure: hms(departure),
		Sequence:  seq,
	}
}

func trip(id, route string, dates ...planner.Date) planner.Trip {
	return planner.Trip{ID: id, RouteID: route, ServiceDates: dates}
}

// lineStops 沿经线每隔约5.5km排列的车站，相邻车站之间不可步行
func lineStops(ids ...string) []planner.Stop {
	stops := make([]planner.Stop, 0, len(ids))
	for i, id := range ids {
		stops = append(stops, planner.Stop{
			ID:   id,
			Name: "Stop " + id,
			Lat:  47.40 + 0.05*float64(i),
			Lon:  19.0,
		})
	}
	return stops
}

func defaultRoutes() []planner.Route {
	return []planner.Route{
		{ID: "RT1", ShortName: "Route 1", Type: planner.RouteTypeBus},
		{ID: "RT2", ShortName: "M2", LongName: "Metro 2", Type: planner.RouteTypeSubway},
	}
}

// assertContiguous 相邻两段首尾车站和时刻相接
func assertContiguous(t *testing.T, legs []planner.Leg) {
	t.Helper()
	for i := 0; i+1 < len(legs); i++ {
		assert.Equal(t, legs[i].To.ID, legs[i+1].From.ID, "leg %d end stop", i)
		assert.Equal(t, legs[i].End, legs[i+1].Start, "leg %d end time", i)
	}
}

func countKind(legs []planner.Leg, kind planner.LegKind) int {
	n := 0
	for _, leg := range legs {
		if leg.Kind == kind {
			n++
		}
	}
	return n
}
