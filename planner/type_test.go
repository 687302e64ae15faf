package planner_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/transit-routing/planner"
)

func TestParseDate(t *testing.T) {
	d, err := planner.ParseDate("20241007")
	require.NoError(t, err)
	assert.Equal(t, planner.Date{Year: 2024, Month: time.October, Day: 7}, d)
	assert.Equal(t, "20241007", d.String())
	assert.Equal(t, planner.Date{Year: 2024, Month: time.November, Day: 1}, d.AddDays(25))
	assert.Equal(t, planner.Date{Year: 2024, Month: time.September, Day: 30}, d.AddDays(-7))

	_, err = planner.ParseDate("2024-10-07")
	assert.Error(t, err)
}

func TestClock(t *testing.T) {
	c := planner.ClockOf(25*3600 + 10*60)
	assert.EqualValues(t, 1, c.Days)
	assert.EqualValues(t, 3600+600, c.Sec)
	assert.EqualValues(t, 90600, c.Abs())
	assert.Equal(t, "01:10:00+1", c.String())

	assert.Equal(t, "07:54:00", planner.FormatSeconds(28440))
	assert.Equal(t, "23:59:00-1", planner.FormatSeconds(-60))
	assert.False(t, planner.None().Valid)
	assert.True(t, planner.Some(c).Valid)
}

func TestLegKindJSON(t *testing.T) {
	b, err := json.Marshal(map[string]planner.LegKind{"kind": planner.LEG_TRANSFER})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"TRANSFER"}`, string(b))
	assert.Equal(t, "UNKNOWN", planner.LegKind(42).String())
}

func TestFormatItinerary(t *testing.T) {
	assert.Equal(t, "no itinerary found\n", planner.FormatItinerary(nil))

	legs, err := planner.Plan(context.Background(), singleRideSchedule(), planner.Query{
		Origin: "ST1", Destination: "ST2", Date: serviceDay, Departure: at("07:54:00"),
	})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(planner.FormatItinerary(legs), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1. 07:54:00-08:00:00 WAIT     at Stop 1 (360s)", lines[0])
	assert.Equal(t, "2. 08:00:00-08:01:00 RIDE     Stop 1 -> Stop 2 by Route 1 [trip TR1] (60s)", lines[1])
}
