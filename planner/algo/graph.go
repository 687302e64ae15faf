package algo

import (
	"fmt"
	"sort"
)

// Graph 以车站下标为点的有向图
// 构图完成后只读，可被多个查询共享
type Graph struct {
	// 邻接表，from node -> out edges
	edges [][]Edge
}

func NewGraph(nodeCount int) *Graph {
	return &Graph{
		edges: make([][]Edge, nodeCount),
	}
}

func (g *Graph) NodeCount() int {
	return len(g.edges)
}

func (g *Graph) EdgeCount() int {
	n := 0
	for _, es := range g.edges {
		n += len(es)
	}
	return n
}

// Edges 返回from点的所有出边，不可修改
func (g *Graph) Edges(from int) []Edge {
	return g.edges[from]
}

// Merge 将各分区私有的边缓冲并入邻接表，并对每个点的出边排序
// 只允许在单个goroutine中调用（fork/join的join点）
func (g *Graph) Merge(buffers ...[]PendingEdge) error {
	for _, buf := range buffers {
		for _, e := range buf {
			if e.From < 0 || e.From >= len(g.edges) {
				return fmt.Errorf("%w: from node %d >= %d", ErrNodeOutOfRange, e.From, len(g.edges))
			}
			if e.To < 0 || e.To >= len(g.edges) {
				return fmt.Errorf("%w: to node %d >= %d", ErrNodeOutOfRange, e.To, len(g.edges))
			}
			if e.Duration < 0 {
				return fmt.Errorf("%w: %v edge %d->%d has duration %d", ErrNegativeDuration, e.Kind, e.From, e.To, e.Duration)
			}
			g.edges[e.From] = append(g.edges[e.From], e.Edge)
		}
	}
	// 规范化出边顺序，使并行与串行构图结果一致
	for _, es := range g.edges {
		sort.Slice(es, func(i, j int) bool {
			return edgeLess(es[i], es[j])
		})
	}
	return nil
}

func edgeLess(a, b Edge) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.Departure != b.Departure {
		return a.Departure < b.Departure
	}
	if a.To != b.To {
		return a.To < b.To
	}
	if a.Trip != b.Trip {
		return a.Trip < b.Trip
	}
	return a.Duration < b.Duration
}
