package algo

import (
	"container/heap"
	"context"
	"fmt"
	"math"

	"github.com/samber/lo"
)

// EarliestArrival 时间依赖、考虑换乘约束的最早到达搜索
// departure为起点出发时间（相对于查询日零点的秒数）
// 返回从起点到终点的节点序列（含起点），无可达路径时返回nil
func (g *Graph) EarliestArrival(ctx context.Context, start, end int, departure int64) ([]SearchNode, error) {
	if start < 0 || start >= len(g.edges) {
		return nil, fmt.Errorf("%w: start node %d", ErrNodeOutOfRange, start)
	}
	if end < 0 || end >= len(g.edges) {
		return nil, fmt.Errorf("%w: end node %d", ErrNodeOutOfRange, end)
	}
	// 节点arena，前驱以下标记录
	arena := []SearchNode{{
		Stop:     start,
		Arrival:  departure,
		Pred:     NO_PRED,
		HeldTrip: NO_TRIP,
	}}
	// 每个车站已知的最早到达时间
	best := make(map[int]int64)
	best[start] = departure
	openSet := PriorityQueue{{Value: 0, Priority: departure}}
	heap.Init(&openSet)
	pops := 0
	for openSet.Len() > 0 {
		pops++
		if pops%CANCEL_CHECK_INTERVAL == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		curIndex := heap.Pop(&openSet).(*Item).Value
		cur := arena[curIndex]
		if cur.Stop == end {
			return reconstructPath(arena, curIndex), nil
		}
		for _, edge := range g.edges[cur.Stop] {
			next, ok := relax(cur, edge)
			if !ok {
				continue
			}
			known, visited := best[edge.To]
			if !visited {
				known = math.MaxInt64
			}
			if next.Arrival >= known {
				continue
			}
			best[edge.To] = next.Arrival
			next.Pred = int32(curIndex)
			arena = append(arena, next)
			heap.Push(&openSet, &Item{Value: len(arena) - 1, Priority: next.Arrival})
		}
	}
	return nil, nil
}

// relax 沿edge从cur扩展，返回新节点（Pred未设置）以及是否可行
func relax(cur SearchNode, edge Edge) (SearchNode, bool) {
	next := SearchNode{
		Stop:      edge.To,
		Transfers: cur.Transfers,
		HeldTrip:  cur.HeldTrip,
		Edge:      edge,
	}
	switch edge.Kind {
	case RIDE:
		if edge.Departure < cur.Arrival {
			// 车已开走
			return next, false
		}
		wait := edge.Departure - cur.Arrival
		if edge.Trip != cur.HeldTrip {
			// 换乘：等待时间需在[MIN_TRANSFER_WAIT, MAX_TRANSFER_WAIT]内
			if wait < MIN_TRANSFER_WAIT || wait > MAX_TRANSFER_WAIT {
				return next, false
			}
			next.Transfers++
			next.HeldTrip = edge.Trip
			next.Wait = wait
		}
		next.Arrival = edge.Departure + edge.Duration
	default:
		// 步行和通道边总是可行，离开车辆计为一次换乘
		next.Arrival = cur.Arrival + edge.Duration
		if cur.HeldTrip != NO_TRIP {
			next.Transfers++
			next.HeldTrip = NO_TRIP
		}
	}
	if next.Transfers > MAX_TRANSFERS {
		return next, false
	}
	return next, true
}

func reconstructPath(arena []SearchNode, curIndex int) []SearchNode {
	pathBeforeReversed := make([]SearchNode, 0)
	for i := int32(curIndex); i != NO_PRED; i = arena[i].Pred {
		pathBeforeReversed = append(pathBeforeReversed, arena[i])
	}
	return lo.Reverse(pathBeforeReversed)
}
