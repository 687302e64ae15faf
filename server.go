package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/transit-routing/planner"
)

var errBadRequest = errors.New("bad request")

type PlanningServer struct {
	planner *planner.Planner
	// 数据来源，为nil时不支持重新加载
	source   *Path
	mongoURI string
	timeout  time.Duration
	metrics  *Metrics

	// 接口开启true或关闭false
	ok bool
	// 条件变量
	cond *sync.Cond
}

func NewPlanningServer(
	schedule planner.Schedule,
	source *Path, mongoURI string,
	workers int, timeout time.Duration,
	metrics *Metrics,
) (*PlanningServer, error) {
	opts := []planner.Option{planner.WithGraphObserver(metrics.ObserveGraph)}
	if workers > 0 {
		opts = append(opts, planner.WithWorkers(workers))
	}
	p, err := planner.New(schedule, opts...)
	if err != nil {
		return nil, err
	}
	metrics.FeedStops.Set(float64(len(schedule.Stops)))
	metrics.FeedTrips.Set(float64(len(schedule.Trips)))
	return &PlanningServer{
		planner:  p,
		source:   source,
		mongoURI: mongoURI,
		timeout:  timeout,
		metrics:  metrics,
		ok:       true, cond: sync.NewCond(&sync.Mutex{})}, nil
}

func (s *PlanningServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /plan", s.handlePlan)
	mux.HandleFunc("POST /reload", s.handleReload)
	return mux
}

type stopJSON struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

type legJSON struct {
	Kind     planner.LegKind `json:"kind"`
	From     stopJSON        `json:"from"`
	To       stopJSON        `json:"to"`
	Start    string          `json:"start"`
	End      string          `json:"end"`
	Duration int64           `json:"duration"`

	TripID         string  `json:"trip_id,omitempty"`
	RouteID        string  `json:"route_id,omitempty"`
	RouteShortName string  `json:"route_short_name,omitempty"`
	RouteLongName  string  `json:"route_long_name,omitempty"`
	Distance       float64 `json:"distance,omitempty"`
}

type PlanResponse struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Date      string    `json:"date"`
	Departure string    `json:"departure"`
	Arrival   string    `json:"arrival,omitempty"`
	Legs      []legJSON `json:"legs"`
}

func toStopJSON(s planner.Stop) stopJSON {
	return stopJSON{ID: s.ID, Name: s.Name, Lat: s.Lat, Lon: s.Lon}
}

// parseQuery 解析from、to、date(YYYYMMDD)、time(HH:MM[:SS])参数
func parseQuery(r *http.Request) (planner.Query, error) {
	values := r.URL.Query()
	q := planner.Query{
		Origin:      strings.TrimSpace(values.Get("from")),
		Destination: strings.TrimSpace(values.Get("to")),
	}
	if q.Origin == "" || q.Destination == "" {
		return q, fmt.Errorf("%w: from and to are required", errBadRequest)
	}
	date, err := planner.ParseDate(values.Get("date"))
	if err != nil {
		return q, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	q.Date = date
	if q.Departure, err = parseDeparture(values.Get("time")); err != nil {
		return q, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return q, nil
}

// Plan 暂停期间阻塞，直到恢复服务或ctx结束
func (s *PlanningServer) Plan(ctx context.Context, q planner.Query) ([]planner.Leg, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := s.waitResumed(ctx); err != nil {
		s.metrics.Queries.WithLabelValues("error").Inc()
		return nil, err
	}
	start := time.Now()
	legs, err := s.planner.Plan(ctx, q)
	s.metrics.QueryLatency.Observe(time.Since(start).Seconds())
	switch {
	case errors.Is(err, planner.ErrStopNotFound):
		s.metrics.Queries.WithLabelValues("bad_request").Inc()
	case err != nil:
		s.metrics.Queries.WithLabelValues("error").Inc()
	case len(legs) == 0:
		s.metrics.Queries.WithLabelValues("empty").Inc()
	default:
		s.metrics.Queries.WithLabelValues("found").Inc()
	}
	return legs, err
}

func (s *PlanningServer) handlePlan(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		s.metrics.Queries.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, err)
		return
	}
	log.Debugf("plan from %s to %s on %v at %v", q.Origin, q.Destination, q.Date, q.Departure)
	legs, err := s.Plan(r.Context(), q)
	if err != nil {
		switch {
		case errors.Is(err, planner.ErrStopNotFound):
			writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusGatewayTimeout, err)
		default:
			log.Errorf("plan %s -> %s: %v", q.Origin, q.Destination, err)
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	res := PlanResponse{
		From:      q.Origin,
		To:        q.Destination,
		Date:      q.Date.String(),
		Departure: q.Departure.String(),
		Legs: lo.Map(legs, func(l planner.Leg, _ int) legJSON {
			return legJSON{
				Kind:           l.Kind,
				From:           toStopJSON(l.From),
				To:             toStopJSON(l.To),
				Start:          planner.FormatSeconds(l.Start),
				End:            planner.FormatSeconds(l.End),
				Duration:       l.Duration,
				TripID:         l.TripID,
				RouteID:        l.RouteID,
				RouteShortName: l.RouteShortName,
				RouteLongName:  l.RouteLongName,
				Distance:       l.Distance,
			}
		}),
	}
	if len(legs) > 0 {
		res.Arrival = planner.FormatSeconds(legs[len(legs)-1].End)
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *PlanningServer) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Reload(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"stops": len(s.planner.StopIDs())})
}

// Reload 重新读取数据来源并替换时刻表，期间暂停查询
func (s *PlanningServer) Reload(ctx context.Context) error {
	if s.source == nil {
		return errors.New("no feed source to reload from")
	}
	schedule, err := s.source.Load(ctx, s.mongoURI)
	if err != nil {
		s.metrics.Reloads.WithLabelValues("error").Inc()
		return fmt.Errorf("load %s: %w", s.source, err)
	}
	s.Suspend()
	defer s.Resume()
	if err := s.planner.Reload(schedule); err != nil {
		s.metrics.Reloads.WithLabelValues("error").Inc()
		return err
	}
	s.metrics.Reloads.WithLabelValues("ok").Inc()
	s.metrics.FeedStops.Set(float64(len(schedule.Stops)))
	s.metrics.FeedTrips.Set(float64(len(schedule.Trips)))
	log.Infof("feed reloaded from %s", s.source)
	return nil
}

// waitResumed 暂停-恢复机制，ctx结束时放弃等待
func (s *PlanningServer) waitResumed(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		s.cond.L.Lock()
		defer s.cond.L.Unlock()
		s.cond.Broadcast()
	})
	defer stop()
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	for !s.ok {
		if err := ctx.Err(); err != nil {
			return err
		}
		// 暂停中
		s.cond.Wait()
	}
	return nil
}

// 暂停规划服务
func (s *PlanningServer) Suspend() {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	s.ok = false
}

// 恢复规划服务
func (s *PlanningServer) Resume() {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	s.ok = true
	s.cond.Broadcast()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
