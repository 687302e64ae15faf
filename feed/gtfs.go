package feed

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/transit-routing/planner"
)

const (
	EXCEPTION_ADDED   = 1
	EXCEPTION_REMOVED = 2
)

var weekdayColumns = [7]string{
	time.Sunday:    "sunday",
	time.Monday:    "monday",
	time.Tuesday:   "tuesday",
	time.Wednesday: "wednesday",
	time.Thursday:  "thursday",
	time.Friday:    "friday",
	time.Saturday:  "saturday",
}

// build 读取全部表并组装时刻表
// stops/routes/trips/stop_times必须存在，pathways与两个日历表可选
func build(read tableReader) (planner.Schedule, error) {
	var s planner.Schedule
	tables := make(map[string]*table)
	for _, name := range []string{"stops.txt", "routes.txt", "trips.txt", "stop_times.txt", "pathways.txt", "calendar.txt", "calendar_dates.txt"} {
		t, err := read(name)
		if err != nil {
			return s, err
		}
		tables[name] = t
	}
	for _, name := range []string{"stops.txt", "routes.txt", "trips.txt", "stop_times.txt"} {
		if tables[name] == nil {
			return s, fmt.Errorf("%w: %s", ErrMissingTable, name)
		}
	}

	var err error
	if s.Stops, err = parseStops(tables["stops.txt"]); err != nil {
		return s, err
	}
	if s.Routes, err = parseRoutes(tables["routes.txt"]); err != nil {
		return s, err
	}
	trips, serviceOf, err := parseTrips(tables["trips.txt"])
	if err != nil {
		return s, err
	}
	if s.Visits, err = parseStopTimes(tables["stop_times.txt"]); err != nil {
		return s, err
	}
	if t := tables["pathways.txt"]; t != nil {
		if s.Pathways, err = parsePathways(t); err != nil {
			return s, err
		}
	}

	services := make(map[string]map[planner.Date]struct{})
	if t := tables["calendar.txt"]; t != nil {
		if err := parseCalendar(t, services); err != nil {
			return s, err
		}
	}
	if t := tables["calendar_dates.txt"]; t != nil {
		if err := parseCalendarDates(t, services); err != nil {
			return s, err
		}
	}
	for i := range trips {
		trips[i].ServiceDates = sortedDates(services[serviceOf[trips[i].ID]])
	}
	s.Trips = trips

	log.Infof("feed loaded: %d stops, %d routes, %d trips, %d stop times, %d pathways, %d services",
		len(s.Stops), len(s.Routes), len(s.Trips), len(s.Visits), len(s.Pathways), len(services))
	return s, nil
}

// skipped 统计并报告被跳过的格式错误的行
type skipped struct {
	table string
	count int
}

func (sk *skipped) row(i int, err error) {
	sk.count++
	// 行号从1开始且第1行为表头
	log.Debugf("%s line %d skipped: %v", sk.table, i+2, err)
}

func (sk *skipped) report() {
	if sk.count > 0 {
		log.Warnf("%s: skipped %d malformed rows", sk.table, sk.count)
	}
}

func parseStops(t *table) ([]planner.Stop, error) {
	cols, err := t.require("stop_id", "stop_lat", "stop_lon")
	if err != nil {
		return nil, err
	}
	id, lat, lon := cols[0], cols[1], cols[2]
	name, parent := t.column("stop_name"), t.column("parent_station")
	sk := skipped{table: t.name}
	defer sk.report()

	stops := make([]planner.Stop, 0, len(t.rows))
	for i, row := range t.rows {
		stop := planner.Stop{
			ID:            value(row, id),
			Name:          value(row, name),
			ParentStation: value(row, parent),
		}
		if stop.Lat, err = strconv.ParseFloat(value(row, lat), 64); err != nil {
			sk.row(i, err)
			continue
		}
		if stop.Lon, err = strconv.ParseFloat(value(row, lon), 64); err != nil {
			sk.row(i, err)
			continue
		}
		stops = append(stops, stop)
	}
	return stops, nil
}

func parseRoutes(t *table) ([]planner.Route, error) {
	cols, err := t.require("route_id")
	if err != nil {
		return nil, err
	}
	id := cols[0]
	short, long, typ := t.column("route_short_name"), t.column("route_long_name"), t.column("route_type")
	sk := skipped{table: t.name}
	defer sk.report()

	routes := make([]planner.Route, 0, len(t.rows))
	for i, row := range t.rows {
		route := planner.Route{
			ID:        value(row, id),
			ShortName: value(row, short),
			LongName:  value(row, long),
		}
		if v := value(row, typ); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				sk.row(i, err)
				continue
			}
			route.Type = planner.RouteType(n)
		}
		routes = append(routes, route)
	}
	return routes, nil
}

// parseTrips 返回车次以及trip id到service id的映射
func parseTrips(t *table) ([]planner.Trip, map[string]string, error) {
	cols, err := t.require("route_id", "trip_id", "service_id")
	if err != nil {
		return nil, nil, err
	}
	route, id, service := cols[0], cols[1], cols[2]
	trips := make([]planner.Trip, 0, len(t.rows))
	serviceOf := make(map[string]string, len(t.rows))
	for _, row := range t.rows {
		trip := planner.Trip{ID: value(row, id), RouteID: value(row, route)}
		trips = append(trips, trip)
		serviceOf[trip.ID] = value(row, service)
	}
	return trips, serviceOf, nil
}

func parseStopTimes(t *table) ([]planner.ScheduledVisit, error) {
	cols, err := t.require("trip_id", "stop_id", "stop_sequence")
	if err != nil {
		return nil, err
	}
	trip, stop, seq := cols[0], cols[1], cols[2]
	arrival, departure := t.column("arrival_time"), t.column("departure_time")
	sk := skipped{table: t.name}
	defer sk.report()

	visits := make([]planner.ScheduledVisit, 0, len(t.rows))
	for i, row := range t.rows {
		v := planner.ScheduledVisit{
			TripID: value(row, trip),
			StopID: value(row, stop),
		}
		if v.Sequence, err = strconv.Atoi(value(row, seq)); err != nil {
			sk.row(i, err)
			continue
		}
		if v.Arrival, err = parseOptionalClock(value(row, arrival)); err != nil {
			sk.row(i, err)
			continue
		}
		if v.Departure, err = parseOptionalClock(value(row, departure)); err != nil {
			sk.row(i, err)
			continue
		}
		visits = append(visits, v)
	}
	return visits, nil
}

func parsePathways(t *table) ([]planner.Pathway, error) {
	cols, err := t.require("pathway_id", "from_stop_id", "to_stop_id")
	if err != nil {
		return nil, err
	}
	id, from, to := cols[0], cols[1], cols[2]
	bidirectional, traversal := t.column("is_bidirectional"), t.column("traversal_time")
	sk := skipped{table: t.name}
	defer sk.report()

	pathways := make([]planner.Pathway, 0, len(t.rows))
	for i, row := range t.rows {
		pw := planner.Pathway{
			ID:            value(row, id),
			Bidirectional: value(row, bidirectional) == "1",
			FromStopID:    value(row, from),
			ToStopID:      value(row, to),
		}
		if v := value(row, traversal); v != "" {
			if pw.TraversalTime, err = strconv.ParseInt(v, 10, 64); err != nil || pw.TraversalTime < 0 {
				sk.row(i, fmt.Errorf("invalid traversal_time %q", v))
				continue
			}
		}
		pathways = append(pathways, pw)
	}
	return pathways, nil
}

// parseCalendar 按星期规则展开[start_date, end_date]内的运营日期
func parseCalendar(t *table, services map[string]map[planner.Date]struct{}) error {
	cols, err := t.require(append([]string{"service_id", "start_date", "end_date"}, weekdayColumns[:]...)...)
	if err != nil {
		return err
	}
	id, start, end := cols[0], cols[1], cols[2]
	weekdays := cols[3:]
	sk := skipped{table: t.name}
	defer sk.report()

	for i, row := range t.rows {
		from, err := planner.ParseDate(value(row, start))
		if err != nil {
			sk.row(i, err)
			continue
		}
		to, err := planner.ParseDate(value(row, end))
		if err != nil {
			sk.row(i, err)
			continue
		}
		dates := lo.ValueOr(services, value(row, id), make(map[planner.Date]struct{}))
		for d := from; !d.Time().After(to.Time()); d = d.AddDays(1) {
			if value(row, weekdays[d.Time().Weekday()]) == "1" {
				dates[d] = struct{}{}
			}
		}
		services[value(row, id)] = dates
	}
	return nil
}

// parseCalendarDates 在日历规则基础上增加或删除运营日期
func parseCalendarDates(t *table, services map[string]map[planner.Date]struct{}) error {
	cols, err := t.require("service_id", "date", "exception_type")
	if err != nil {
		return err
	}
	id, date, exception := cols[0], cols[1], cols[2]
	sk := skipped{table: t.name}
	defer sk.report()

	for i, row := range t.rows {
		d, err := planner.ParseDate(value(row, date))
		if err != nil {
			sk.row(i, err)
			continue
		}
		dates := lo.ValueOr(services, value(row, id), make(map[planner.Date]struct{}))
		switch value(row, exception) {
		case strconv.Itoa(EXCEPTION_ADDED):
			dates[d] = struct{}{}
		case strconv.Itoa(EXCEPTION_REMOVED):
			delete(dates, d)
		default:
			sk.row(i, fmt.Errorf("unknown exception_type %q", value(row, exception)))
			continue
		}
		services[value(row, id)] = dates
	}
	return nil
}

func sortedDates(set map[planner.Date]struct{}) []planner.Date {
	dates := lo.Keys(set)
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Time().Before(dates[j].Time())
	})
	return dates
}
