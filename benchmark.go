package main

import (
	"context"
	"flag"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/transit-routing/planner"
)

var (
	benchmarkCount = flag.Int("benchmark.count", 1000, "the random planning count for benchmark")
	benchmarkDate  = flag.String("benchmark.date", "", "the service date for benchmark [format: YYYYMMDD, empty means today]")
	benchmarkTime  = flag.String("benchmark.time", "08:00:00", "the departure time for benchmark")
	benchmarkSeed  = flag.Int64("benchmark.seed", 0, "the seed for benchmark")
	benchmarkCPU   = flag.Int("benchmark.cpu", 1, "the cpu count for benchmark")
)

// randomQueries 随机生成count个起终点不同的查询
func randomQueries(stopIDs []string, count int, date planner.Date, departure planner.Clock, seed int64) []planner.Query {
	e := rand.New(rand.NewSource(seed))
	if len(stopIDs) < 2 {
		return nil
	}
	queries := make([]planner.Query, count)
	for i := range queries {
		from := e.Intn(len(stopIDs))
		to := e.Intn(len(stopIDs) - 1)
		if to >= from {
			to++
		}
		queries[i] = planner.Query{
			Origin:      stopIDs[from],
			Destination: stopIDs[to],
			Date:        date,
			Departure:   departure,
		}
	}
	return queries
}

func runBenchmark(server *PlanningServer) {
	log.Logger.SetLevel(logrus.WarnLevel)
	date := planner.DateOf(time.Now())
	if *benchmarkDate != "" {
		d, err := planner.ParseDate(*benchmarkDate)
		if err != nil {
			log.Fatalf("invalid benchmark date: %v", err)
		}
		date = d
	}
	departure, err := parseDeparture(*benchmarkTime)
	if err != nil {
		log.Fatalf("invalid benchmark time: %v", err)
	}
	reqs := randomQueries(server.planner.StopIDs(), *benchmarkCount, date, departure, *benchmarkSeed)
	if len(reqs) == 0 {
		log.Fatal("benchmark needs at least two stops")
	}

	// 开始benchmark
	start := time.Now()
	var success atomic.Int32
	plan := func(q planner.Query) {
		legs, err := server.Plan(context.Background(), q)
		if err != nil {
			log.Error("benchmark failed, err:", err)
		}
		if len(legs) > 0 {
			success.Add(1)
		}
	}
	if *benchmarkCPU == 1 {
		for _, q := range reqs {
			plan(q)
		}
	} else {
		// 设置cpu数量
		runtime.GOMAXPROCS(*benchmarkCPU)
		var wg sync.WaitGroup
		wg.Add(len(reqs))
		for _, q := range reqs {
			go func(q planner.Query) {
				defer wg.Done()
				plan(q)
			}(q)
		}
		wg.Wait()
	}
	timeCost := time.Since(start) * time.Duration(*benchmarkCPU)
	log.Error(
		"benchmark finished", "\n",
		"count:", len(reqs), "\n",
		"time:", timeCost, "\n",
		"avg:", timeCost/time.Duration(len(reqs)), "\n",
		"success:", success.Load(), "\n",
	)
}
