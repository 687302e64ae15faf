package planner

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/samber/lo"
)

// Planner 基于静态时刻表的单次行程规划
// 每次查询独立构图和搜索，查询之间不共享可变状态
type Planner struct {
	idx *scheduleIndex
	// 查询持有读锁，Reload持有写锁
	mu *xsync.RBMutex

	workers       int
	graphObserver func(nodes, edges int)
}

type Option func(*Planner)

// WithWorkers 设置构图的并行度，1表示串行构图
func WithWorkers(n int) Option {
	return func(p *Planner) {
		p.workers = max(n, 1)
	}
}

// WithGraphObserver 每次构图完成后回调图的规模
func WithGraphObserver(f func(nodes, edges int)) Option {
	return func(p *Planner) {
		p.graphObserver = f
	}
}

func New(s Schedule, opts ...Option) (*Planner, error) {
	idx, err := newScheduleIndex(s)
	if err != nil {
		return nil, err
	}
	p := &Planner{
		idx:     idx,
		mu:      xsync.NewRBMutex(),
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Plan 一次性构建Planner并查询
func Plan(ctx context.Context, s Schedule, q Query, opts ...Option) ([]Leg, error) {
	p, err := New(s, opts...)
	if err != nil {
		return nil, err
	}
	return p.Plan(ctx, q)
}

// Reload 替换时刻表，等待进行中的查询结束
func (p *Planner) Reload(s Schedule) error {
	idx, err := newScheduleIndex(s)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.idx = idx
	return nil
}

// Plan 查询从q.Origin到q.Destination的最早到达行程
// 无可达行程时返回空切片；输入数据错误时返回error
func (p *Planner) Plan(ctx context.Context, q Query) ([]Leg, error) {
	token := p.mu.RLock()
	defer p.mu.RUnlock(token)
	idx := p.idx

	origin, err := idx.stop(q.Origin)
	if err != nil {
		return nil, fmt.Errorf("origin: %w", err)
	}
	destination, err := idx.stop(q.Destination)
	if err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}
	departure := q.Departure.Abs()

	trips := idx.activeTrips(q.Date, departure)
	g, err := p.buildGraph(ctx, idx, trips, origin, destination)
	if err != nil {
		return nil, err
	}
	if p.graphObserver != nil {
		p.graphObserver(g.NodeCount(), g.EdgeCount())
	}
	path, err := g.EarliestArrival(ctx, origin, destination, departure)
	if err != nil {
		return nil, err
	}
	if path == nil {
		log.Infof("no itinerary from %s to %s on %v at %v", q.Origin, q.Destination, q.Date, q.Departure)
		return []Leg{}, nil
	}
	return reconstruct(idx, trips, path)
}

func (p *Planner) HasStop(id string) bool {
	token := p.mu.RLock()
	defer p.mu.RUnlock(token)
	_, ok := p.idx.stopIndex[id]
	return ok
}

// StopIDs 所有车站id，按字典序
func (p *Planner) StopIDs() []string {
	token := p.mu.RLock()
	defer p.mu.RUnlock(token)
	ids := lo.Map(p.idx.stops, func(s Stop, _ int) string {
		return s.ID
	})
	sort.Strings(ids)
	return ids
}
