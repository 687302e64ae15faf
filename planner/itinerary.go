package planner

import (
	"fmt"

	"github.com/tsinghua-fib-lab/transit-routing/planner/algo"
)

// legBuilder 将搜索路径折叠为行程段
// open为尚可延长的当前段，遇到不能合并的段时才写入legs
type legBuilder struct {
	idx   *scheduleIndex
	trips []activeTrip

	legs     []Leg
	open     *Leg
	openTrip int32
	// 上一跳所乘的车次实例，步行后为NO_TRIP
	prevTrip int32
}

func newLegBuilder(idx *scheduleIndex, trips []activeTrip) *legBuilder {
	return &legBuilder{
		idx:          idx,
		trips:        trips,
		legs:         make([]Leg, 0),
		openTrip: algo.NO_TRIP,
		prevTrip: algo.NO_TRIP,
	}
}

// reconstruct 从起点到终点的节点序列生成行程
func reconstruct(idx *scheduleIndex, trips []activeTrip, path []algo.SearchNode) ([]Leg, error) {
	b := newLegBuilder(idx, trips)
	for i := 1; i < len(path); i++ {
		if err := b.add(path[i-1], path[i]); err != nil {
			return nil, err
		}
	}
	return b.finish(), nil
}

func (b *legBuilder) add(prev, node algo.SearchNode) error {
	from := b.idx.stops[prev.Stop]
	to := b.idx.stops[node.Stop]
	edge := node.Edge
	start := prev.Arrival

	if node.Wait > 0 {
		b.flush()
		kind := LEG_WAIT
		// 下车后直接换乘其他车次才记为TRANSFER
		if b.prevTrip != algo.NO_TRIP && b.prevTrip != edge.Trip {
			kind = LEG_TRANSFER
		}
		b.legs = append(b.legs, Leg{
			Kind:     kind,
			From:     from,
			To:       from,
			Start:    start,
			End:      start + node.Wait,
			Duration: node.Wait,
		})
		start += node.Wait
	}

	switch edge.Kind {
	case algo.RIDE:
		if b.open != nil && b.open.Kind == LEG_RIDE && b.openTrip == edge.Trip && node.Wait == 0 {
			// 同一车次继续乘坐
			b.open.To = to
			b.open.End = node.Arrival
			b.open.Duration += edge.Duration
			return nil
		}
		leg, err := b.rideLeg(edge.Trip)
		if err != nil {
			return err
		}
		b.flush()
		leg.From, leg.To = from, to
		leg.Start, leg.End = start, node.Arrival
		leg.Duration = edge.Duration
		b.open = &leg
		b.openTrip = edge.Trip
		b.prevTrip = edge.Trip
	case algo.WALK, algo.CONNECTOR:
		b.prevTrip = algo.NO_TRIP
		distance := algo.Haversine(from.Lat, from.Lon, to.Lat, to.Lon)
		if b.open != nil && b.open.Kind == LEG_WALK {
			b.open.To = to
			b.open.End = node.Arrival
			b.open.Duration += edge.Duration
			b.open.Distance += distance
			return nil
		}
		b.flush()
		b.open = &Leg{
			Kind:     LEG_WALK,
			From:     from,
			To:       to,
			Start:    start,
			End:      node.Arrival,
			Duration: edge.Duration,
			Distance: distance,
		}
	default:
		return fmt.Errorf("unknown edge kind %v", edge.Kind)
	}
	return nil
}

// rideLeg 解析车次实例对应的车次与线路信息
func (b *legBuilder) rideLeg(instance int32) (Leg, error) {
	if instance < 0 || int(instance) >= len(b.trips) {
		return Leg{}, fmt.Errorf("%w: instance %d", ErrTripNotFound, instance)
	}
	trip, err := b.idx.trip(b.trips[instance].Trip.ID)
	if err != nil {
		return Leg{}, err
	}
	route, err := b.idx.route(trip.RouteID)
	if err != nil {
		return Leg{}, fmt.Errorf("trip %q: %w", trip.ID, err)
	}
	return Leg{
		Kind:           LEG_RIDE,
		TripID:         trip.ID,
		RouteID:        route.ID,
		RouteShortName: route.ShortName,
		RouteLongName:  route.LongName,
	}, nil
}

func (b *legBuilder) flush() {
	if b.open == nil {
		return
	}
	b.legs = append(b.legs, *b.open)
	b.open = nil
	b.openTrip = algo.NO_TRIP
}

func (b *legBuilder) finish() []Leg {
	b.flush()
	return b.legs
}
