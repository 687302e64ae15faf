package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/transit-routing/planner"
)

var testFeed = map[string]string{
	"stops.txt": "stop_id,stop_name,stop_lat,stop_lon,parent_station\n" +
		"ST1,Stop 1,47.500366,19.135700,\n" +
		"ST2,Stop 2,47.501000,19.159000,",
	"routes.txt": "agency_id,route_id,route_short_name,route_long_name,route_type\n" +
		"AG1,RT1,Route 1,,3",
	"trips.txt": "route_id,trip_id,service_id\n" +
		"RT1,TR1,SV1",
	"calendar_dates.txt": "service_id,date,exception_type\n" +
		"SV1,20241007,1\nSV1,20241008,1",
	"stop_times.txt": "trip_id,stop_id,arrival_time,departure_time,stop_sequence\n" +
		"TR1,ST1,08:00:00,08:00:00,1\n" +
		"TR1,ST2,08:01:00,08:10:00,2",
}

func writeFeed(t testing.TB, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func newTestServer(t testing.TB) (*PlanningServer, string) {
	t.Helper()
	dir := t.TempDir()
	writeFeed(t, dir, testFeed)
	path, err := NewPath(dir)
	require.NoError(t, err)
	schedule, err := path.Load(context.Background(), "")
	require.NoError(t, err)
	server, err := NewPlanningServer(schedule, path, "", 2, 10*time.Second, NewMetrics())
	require.NoError(t, err)
	return server, dir
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestPlanHandler(t *testing.T) {
	server, _ := newTestServer(t)
	h := server.Handler()

	rec := get(t, h, "/plan?from=ST1&to=ST2&date=20241007&time=07:54")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var res struct {
		Departure string `json:"departure"`
		Arrival   string `json:"arrival"`
		Legs      []struct {
			Kind     string `json:"kind"`
			Duration int64  `json:"duration"`
			TripID   string `json:"trip_id"`
			Start    string `json:"start"`
			From     struct {
				ID string `json:"id"`
			} `json:"from"`
		} `json:"legs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "07:54:00", res.Departure)
	assert.Equal(t, "08:01:00", res.Arrival)
	require.Len(t, res.Legs, 2)
	assert.Equal(t, "WAIT", res.Legs[0].Kind)
	assert.EqualValues(t, 360, res.Legs[0].Duration)
	assert.Equal(t, "ST1", res.Legs[0].From.ID)
	assert.Equal(t, "RIDE", res.Legs[1].Kind)
	assert.Equal(t, "TR1", res.Legs[1].TripID)
	assert.Equal(t, "08:00:00", res.Legs[1].Start)
	assert.EqualValues(t, 1, testutil.ToFloat64(server.metrics.Queries.WithLabelValues("found")))
	assert.EqualValues(t, 2, testutil.ToFloat64(server.metrics.GraphNodes))

	// 车次已开走，步行到达
	rec = get(t, h, "/plan?from=ST2&to=ST1&date=20241007&time=23:00:00")
	require.Equal(t, http.StatusOK, rec.Code)
	res.Legs = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Legs, 1)
	assert.Equal(t, "WALK", res.Legs[0].Kind)
	assert.EqualValues(t, 1261, res.Legs[0].Duration)
	assert.Equal(t, "23:21:01", res.Arrival)
}

func TestPlanHandlerErrors(t *testing.T) {
	server, _ := newTestServer(t)
	h := server.Handler()

	for _, target := range []string{
		"/plan?to=ST2&date=20241007&time=07:54",
		"/plan?from=ST1&to=ST2&date=2024-10-07&time=07:54",
		"/plan?from=ST1&to=ST2&date=20241007&time=noon",
		"/plan?from=ST1&to=NOPE&date=20241007&time=07:54",
	} {
		rec := get(t, h, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Contains(t, rec.Body.String(), `"error"`)
	}
	assert.EqualValues(t, 4, testutil.ToFloat64(server.metrics.Queries.WithLabelValues("bad_request")))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/plan?from=ST1&to=ST2", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestReloadHandler(t *testing.T) {
	server, dir := newTestServer(t)
	h := server.Handler()
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/plan?from=ST1&to=ST3&date=20241007&time=07:54").Code)

	writeFeed(t, dir, map[string]string{
		"stops.txt": testFeed["stops.txt"] + "\nST3,Stop 3,47.502000,19.160000,",
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reload", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"stops":3}`, rec.Body.String())
	assert.Equal(t, http.StatusOK, get(t, h, "/plan?from=ST1&to=ST3&date=20241007&time=07:54").Code)
	assert.EqualValues(t, 3, testutil.ToFloat64(server.metrics.FeedStops))

	// 数据错误时保留原有时刻表
	require.NoError(t, os.Remove(filepath.Join(dir, "stop_times.txt")))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reload", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/plan?from=ST1&to=ST3&date=20241007&time=07:54").Code)
	assert.EqualValues(t, 1, testutil.ToFloat64(server.metrics.Reloads.WithLabelValues("error")))
}

func TestSuspendResume(t *testing.T) {
	server, _ := newTestServer(t)
	server.Suspend()
	done := make(chan []planner.Leg)
	go func() {
		legs, _ := server.Plan(context.Background(), planner.Query{
			Origin: "ST1", Destination: "ST2",
			Date:      planner.Date{Year: 2024, Month: 10, Day: 7},
			Departure: planner.ClockOf(7*3600 + 54*60),
		})
		done <- legs
	}()
	select {
	case <-done:
		t.Fatal("query finished while suspended")
	case <-time.After(50 * time.Millisecond):
	}
	server.Resume()
	select {
	case legs := <-done:
		assert.Len(t, legs, 2)
	case <-time.After(5 * time.Second):
		t.Fatal("query did not resume")
	}
}

func TestSuspendedPlanHonoursContext(t *testing.T) {
	server, _ := newTestServer(t)
	server.Suspend()
	defer server.Resume()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	done := make(chan error)
	go func() {
		_, err := server.Plan(ctx, planner.Query{
			Origin: "ST1", Destination: "ST2",
			Date:      planner.Date{Year: 2024, Month: 10, Day: 7},
			Departure: planner.ClockOf(7*3600 + 54*60),
		})
		done <- err
	}()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(5 * time.Second):
		t.Fatal("query kept waiting after its context ended")
	}
	assert.EqualValues(t, 1, testutil.ToFloat64(server.metrics.Queries.WithLabelValues("error")))

	// 暂停期间超时的查询返回504
	server.timeout = 20 * time.Millisecond
	rec := get(t, server.Handler(), "/plan?from=ST1&to=ST2&date=20241007&time=07:54")
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestNewPath(t *testing.T) {
	dir := t.TempDir()
	p, err := NewPath(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, p.File)

	p, err = NewPath("gtfs_budapest")
	require.NoError(t, err)
	assert.Equal(t, "gtfs_budapest", p.DB)
	assert.Equal(t, "mongo:gtfs_budapest", p.String())

	_, err = p.Load(context.Background(), "")
	assert.Error(t, err)

	for _, s := range []string{"", "  ", "db.coll", "missing/dir"} {
		_, err := NewPath(s)
		assert.Error(t, err, s)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(configFile, []byte(
		"feed: gtfs\nlisten: 0.0.0.0:8080\nlog_level: debug\nworkers: 4\n"), 0o644))

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	listen := fs.String("listen", "localhost:52101", "")
	workers := fs.Int("workers", 0, "")
	require.NoError(t, fs.Parse([]string{"-workers", "2"}))

	cfg, err := loadConfig(fs, configFile, Config{
		Listen:   *listen,
		LogLevel: "info",
		Workers:  *workers,
	})
	require.NoError(t, err)
	assert.Equal(t, "gtfs", cfg.Feed)
	assert.Equal(t, "0.0.0.0:8080", cfg.Listen)
	assert.Equal(t, "debug", cfg.LogLevel)
	// 命令行参数优先
	assert.Equal(t, 2, cfg.Workers)

	_, err = loadConfig(fs, "", Config{Listen: "localhost:52101", LogLevel: "info"})
	assert.Error(t, err, "feed is required")

	_, err = loadConfig(fs, "", Config{Feed: "gtfs", Listen: "localhost:52101", LogLevel: "verbose"})
	assert.Error(t, err)
}

func TestRandomQueries(t *testing.T) {
	ids := []string{"A", "B", "C"}
	qs := randomQueries(ids, 100, planner.Date{Year: 2024, Month: 10, Day: 7}, planner.ClockOf(8*3600), 1)
	require.Len(t, qs, 100)
	for _, q := range qs {
		assert.NotEqual(t, q.Origin, q.Destination)
	}
	assert.Equal(t, qs, randomQueries(ids, 100, planner.Date{Year: 2024, Month: 10, Day: 7}, planner.ClockOf(8*3600), 1))
	assert.Nil(t, randomQueries(ids[:1], 10, planner.Date{}, planner.Clock{}, 1))
}

func FuzzPlan(f *testing.F) {
	server, _ := newTestServer(f)
	stopIDs := server.planner.StopIDs()
	f.Add(uint8(0), uint8(1), uint32(7*3600+54*60), uint8(7))
	f.Add(uint8(1), uint8(0), uint32(30*3600), uint8(8))

	// 构造随机请求
	f.Fuzz(func(t *testing.T, from, to uint8, sec uint32, day uint8) {
		q := planner.Query{
			Origin:      stopIDs[int(from)%len(stopIDs)],
			Destination: stopIDs[int(to)%len(stopIDs)],
			Date:        planner.Date{Year: 2024, Month: 10, Day: 1 + int(day)%31},
			Departure:   planner.ClockOf(int64(sec % (48 * 3600))),
		}
		legs, err := server.Plan(context.Background(), q)
		require.NoError(t, err)
		for i := 0; i+1 < len(legs); i++ {
			assert.Equal(t, legs[i].End, legs[i+1].Start)
			assert.Equal(t, legs[i].To.ID, legs[i+1].From.ID)
		}
	})
}
