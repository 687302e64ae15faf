package planner

import (
	"github.com/tsinghua-fib-lab/transit-routing/planner/algo"
)

const (
	// 查询出发后纳入搜索的时刻表时间窗（s）
	ACTIVE_WINDOW = 2 * 3600
)

// activeTrip 查询日可乘坐的一个车次实例
// 前一服务日跨零点运营的车次与当日的同名车次是不同实例
type activeTrip struct {
	Trip *Trip
	// 服务日零点相对查询日零点的偏移（s），当日为0，前一日为-86400
	Offset int64
	// 时间窗内的停靠，按sequence排序
	Visits []ScheduledVisit
}

// activeTrips 筛选在date运营、且发车时间落在[departure, departure+ACTIVE_WINDOW)内的停靠
func (idx *scheduleIndex) activeTrips(date Date, departure int64) []activeTrip {
	windowEnd := departure + ACTIVE_WINDOW
	yesterday := date.AddDays(-1)
	result := make([]activeTrip, 0)
	for _, tripID := range idx.tripIDs {
		visits := idx.visitsByTrip[tripID]
		if len(visits) == 0 {
			continue
		}
		for _, offset := range []int64{-algo.SECONDS_PER_DAY, 0} {
			serviceDate := date
			if offset != 0 {
				serviceDate = yesterday
			}
			if !idx.runsOn(tripID, serviceDate) {
				continue
			}
			kept := filterVisits(visits, offset, departure, windowEnd)
			if len(kept) == 0 {
				continue
			}
			result = append(result, activeTrip{
				Trip:   idx.trips[tripID],
				Offset: offset,
				Visits: kept,
			})
		}
	}
	return result
}

func filterVisits(visits []ScheduledVisit, offset, from, to int64) []ScheduledVisit {
	kept := make([]ScheduledVisit, 0)
	for _, v := range visits {
		if !v.Departure.Valid {
			// 没有发车时间的停靠无法作为边的起点
			continue
		}
		t := v.Departure.Abs() + offset
		if t >= from && t < to {
			kept = append(kept, v)
		}
	}
	return kept
}
