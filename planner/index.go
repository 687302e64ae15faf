package planner

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// scheduleIndex 时刻表的查找结构，构建后只读
type scheduleIndex struct {
	stops     []Stop
	stopIndex map[string]int // stop id -> 图中的点下标
	trips     map[string]*Trip
	tripIDs   []string // 有序，保证遍历顺序确定
	routes    map[string]*Route
	// trip id -> 运营日期集合
	serviceDates map[string]map[Date]struct{}
	// trip id -> 按sequence排序的停靠
	visitsByTrip map[string][]ScheduledVisit
	pathways     []Pathway
}

func newScheduleIndex(s Schedule) (*scheduleIndex, error) {
	idx := &scheduleIndex{
		stops:        s.Stops,
		stopIndex:    make(map[string]int, len(s.Stops)),
		trips:        make(map[string]*Trip, len(s.Trips)),
		routes:       make(map[string]*Route, len(s.Routes)),
		serviceDates: make(map[string]map[Date]struct{}, len(s.Trips)),
		pathways:     s.Pathways,
	}
	for i, stop := range s.Stops {
		if _, ok := idx.stopIndex[stop.ID]; ok {
			return nil, fmt.Errorf("duplicate stop id %q", stop.ID)
		}
		idx.stopIndex[stop.ID] = i
	}
	for i := range s.Routes {
		idx.routes[s.Routes[i].ID] = &s.Routes[i]
	}
	for i := range s.Trips {
		trip := &s.Trips[i]
		if _, ok := idx.routes[trip.RouteID]; !ok {
			return nil, fmt.Errorf("trip %q references %w: %q", trip.ID, ErrRouteNotFound, trip.RouteID)
		}
		idx.trips[trip.ID] = trip
		idx.serviceDates[trip.ID] = lo.SliceToMap(trip.ServiceDates, func(d Date) (Date, struct{}) {
			return d, struct{}{}
		})
	}
	idx.tripIDs = lo.Keys(idx.trips)
	sort.Strings(idx.tripIDs)

	for _, v := range s.Visits {
		if _, ok := idx.stopIndex[v.StopID]; !ok {
			return nil, fmt.Errorf("visit of trip %q (seq %d) references %w: %q", v.TripID, v.Sequence, ErrStopNotFound, v.StopID)
		}
	}
	idx.visitsByTrip = lo.GroupBy(s.Visits, func(v ScheduledVisit) string {
		return v.TripID
	})
	orphan := 0
	for tripID, visits := range idx.visitsByTrip {
		if _, ok := idx.trips[tripID]; !ok {
			orphan += len(visits)
		}
		sort.SliceStable(visits, func(i, j int) bool {
			return visits[i].Sequence < visits[j].Sequence
		})
	}
	if orphan > 0 {
		log.Warnf("%d visits reference unknown trips and are ignored", orphan)
	}

	for _, p := range s.Pathways {
		if _, ok := idx.stopIndex[p.FromStopID]; !ok {
			return nil, fmt.Errorf("pathway %q references %w: %q", p.ID, ErrStopNotFound, p.FromStopID)
		}
		if _, ok := idx.stopIndex[p.ToStopID]; !ok {
			return nil, fmt.Errorf("pathway %q references %w: %q", p.ID, ErrStopNotFound, p.ToStopID)
		}
	}
	log.Debugf("schedule index: %d stops, %d trips, %d routes, %d visits, %d pathways",
		len(s.Stops), len(s.Trips), len(s.Routes), len(s.Visits), len(s.Pathways))
	return idx, nil
}

func (idx *scheduleIndex) stop(id string) (int, error) {
	i, ok := idx.stopIndex[id]
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrStopNotFound, id)
	}
	return i, nil
}

func (idx *scheduleIndex) trip(id string) (*Trip, error) {
	t, ok := idx.trips[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTripNotFound, id)
	}
	return t, nil
}

func (idx *scheduleIndex) route(id string) (*Route, error) {
	r, ok := idx.routes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrRouteNotFound, id)
	}
	return r, nil
}

func (idx *scheduleIndex) runsOn(tripID string, date Date) bool {
	_, ok := idx.serviceDates[tripID][date]
	return ok
}
