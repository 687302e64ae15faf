package planner

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/transit-routing/planner/algo"
	"golang.org/x/sync/errgroup"
)

// buildGraph 构建一次查询的搜索图
// 乘车边、步行边、通道边分区并行生成，每个分区写入私有缓冲，最后统一合并
func (p *Planner) buildGraph(ctx context.Context, idx *scheduleIndex, trips []activeTrip, origin, destination int) (*algo.Graph, error) {
	relevant := idx.relevantStops(origin, destination)
	walkChunks := chunk(relevant, p.workers)

	// 缓冲布局：[0, len(trips)) 乘车边，随后为步行分块，最后为通道边
	buffers := make([][]algo.PendingEdge, len(trips)+len(walkChunks)+1)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(p.workers)
	for i := range trips {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			edges, err := idx.rideEdges(int32(i), trips[i])
			buffers[i] = edges
			return err
		})
	}
	for i, part := range walkChunks {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			buffers[len(trips)+i] = idx.walkEdges(part, relevant)
			return nil
		})
	}
	eg.Go(func() error {
		edges, err := idx.connectorEdges()
		buffers[len(buffers)-1] = edges
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	g := algo.NewGraph(len(idx.stops))
	if err := g.Merge(buffers...); err != nil {
		return nil, err
	}
	log.Debugf("graph built: %d active trips, %d relevant stops, %d nodes, %d edges",
		len(trips), len(relevant), g.NodeCount(), g.EdgeCount())
	return g, nil
}

// rideEdges 同一车次相邻两次停靠之间的乘车边
func (idx *scheduleIndex) rideEdges(instance int32, t activeTrip) ([]algo.PendingEdge, error) {
	edges := make([]algo.PendingEdge, 0, len(t.Visits))
	for i := 0; i+1 < len(t.Visits); i++ {
		cur, next := t.Visits[i], t.Visits[i+1]
		if !cur.Departure.Valid || !next.Arrival.Valid {
			continue
		}
		from, err := idx.stop(cur.StopID)
		if err != nil {
			return nil, err
		}
		to, err := idx.stop(next.StopID)
		if err != nil {
			return nil, err
		}
		departure := cur.Departure.Abs() + t.Offset
		duration := next.Arrival.Abs() + t.Offset - departure
		if duration < 0 {
			return nil, fmt.Errorf("%w: trip %q arrives at seq %d (%v) before leaving seq %d (%v)",
				ErrNegativeDuration, t.Trip.ID, next.Sequence, next.Arrival.Clock, cur.Sequence, cur.Departure.Clock)
		}
		edges = append(edges, algo.PendingEdge{
			From: from,
			Edge: algo.Edge{
				To:        to,
				Duration:  duration,
				Kind:      algo.RIDE,
				Departure: departure,
				Trip:      instance,
			},
		})
	}
	return edges, nil
}

// relevantStops 起终点以及位于起终点连线附近椭圆内的车站，按下标升序
func (idx *scheduleIndex) relevantStops(origin, destination int) []int {
	o, d := idx.stops[origin], idx.stops[destination]
	distance := algo.Haversine(o.Lat, o.Lon, d.Lat, d.Lon)
	centerLat := (o.Lat + d.Lat) / 2
	centerLon := (o.Lon + d.Lon) / 2
	relevant := make([]int, 0)
	for i, stop := range idx.stops {
		if i == origin || i == destination {
			relevant = append(relevant, i)
			continue
		}
		if algo.Haversine(centerLat, centerLon, stop.Lat, stop.Lon)-algo.RELEVANT_STOP_BUFFER <= distance {
			relevant = append(relevant, i)
		}
	}
	return relevant
}

// walkEdges part中每个车站到relevant中其他车站的步行边
func (idx *scheduleIndex) walkEdges(part, relevant []int) []algo.PendingEdge {
	edges := make([]algo.PendingEdge, 0)
	for _, a := range part {
		stopA := idx.stops[a]
		for _, b := range relevant {
			if a == b {
				continue
			}
			stopB := idx.stops[b]
			distance := algo.Haversine(stopA.Lat, stopA.Lon, stopB.Lat, stopB.Lon)
			if distance > algo.MAX_WALK_DISTANCE {
				continue
			}
			edges = append(edges, algo.PendingEdge{
				From: a,
				Edge: algo.Edge{
					To:       b,
					Duration: algo.WalkSeconds(distance),
					Kind:     algo.WALK,
					Trip:     algo.NO_TRIP,
				},
			})
		}
	}
	return edges
}

// connectorEdges 通道边，双向通道额外生成反向边
func (idx *scheduleIndex) connectorEdges() ([]algo.PendingEdge, error) {
	edges := make([]algo.PendingEdge, 0, len(idx.pathways))
	for _, pw := range idx.pathways {
		from, err := idx.stop(pw.FromStopID)
		if err != nil {
			return nil, fmt.Errorf("pathway %q: %w", pw.ID, err)
		}
		to, err := idx.stop(pw.ToStopID)
		if err != nil {
			return nil, fmt.Errorf("pathway %q: %w", pw.ID, err)
		}
		edges = append(edges, algo.PendingEdge{
			From: from,
			Edge: algo.Edge{To: to, Duration: pw.TraversalTime, Kind: algo.CONNECTOR, Trip: algo.NO_TRIP},
		})
		if pw.Bidirectional {
			edges = append(edges, algo.PendingEdge{
				From: to,
				Edge: algo.Edge{To: from, Duration: pw.TraversalTime, Kind: algo.CONNECTOR, Trip: algo.NO_TRIP},
			})
		}
	}
	return edges, nil
}

// chunk 将items均分为至多n块
func chunk(items []int, n int) [][]int {
	if len(items) == 0 {
		return nil
	}
	n = max(n, 1)
	return lo.Chunk(items, (len(items)+n-1)/n)
}
