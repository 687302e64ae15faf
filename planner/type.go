package planner

import (
	"fmt"
	"time"

	"github.com/tsinghua-fib-lab/transit-routing/planner/algo"
)

// Date 公历日期，不含时区
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate 解析YYYYMMDD格式的日期
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("20060102", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d Date) String() string {
	return fmt.Sprintf("%04d%02d%02d", d.Year, d.Month, d.Day)
}

// Clock 归一化的时刻：Sec∈[0,86400)，Days为超过24:00:00的天数
type Clock struct {
	Sec  int32
	Days int32
}

// Abs 相对于服务日零点的秒数
func (c Clock) Abs() int64 {
	return int64(c.Days)*algo.SECONDS_PER_DAY + int64(c.Sec)
}

func (c Clock) String() string {
	return FormatSeconds(c.Abs())
}

// ClockOf 由相对于零点的秒数构造Clock
func ClockOf(seconds int64) Clock {
	return Clock{
		Sec:  int32(seconds % algo.SECONDS_PER_DAY),
		Days: int32(seconds / algo.SECONDS_PER_DAY),
	}
}

// OptionalClock 可能缺失的时刻
type OptionalClock struct {
	Clock
	Valid bool
}

func Some(c Clock) OptionalClock {
	return OptionalClock{Clock: c, Valid: true}
}

func None() OptionalClock {
	return OptionalClock{}
}

// FormatSeconds 将秒数格式化为HH:MM:SS，超过一天时追加+N
func FormatSeconds(seconds int64) string {
	days := seconds / algo.SECONDS_PER_DAY
	rest := seconds % algo.SECONDS_PER_DAY
	if rest < 0 {
		rest += algo.SECONDS_PER_DAY
		days--
	}
	s := fmt.Sprintf("%02d:%02d:%02d", rest/3600, rest%3600/60, rest%60)
	if days != 0 {
		s += fmt.Sprintf("%+d", days)
	}
	return s
}

type Stop struct {
	ID            string
	Name          string
	Lat           float64
	Lon           float64
	ParentStation string // 空串表示没有父站
}

// ScheduledVisit 一个车次在一个车站的计划停靠（stop time）
type ScheduledVisit struct {
	TripID    string
	StopID    string
	Arrival   OptionalClock
	Departure OptionalClock
	Sequence  int
}

type Trip struct {
	ID           string
	RouteID      string
	ServiceDates []Date // 运营日期，由加载器根据日历解析
}

type RouteType int

const (
	RouteTypeTram       RouteType = 0
	RouteTypeSubway     RouteType = 1
	RouteTypeRail       RouteType = 2
	RouteTypeBus        RouteType = 3
	RouteTypeFerry      RouteType = 4
	RouteTypeCable      RouteType = 5
	RouteTypeAerial     RouteType = 6
	RouteTypeFunicular  RouteType = 7
	RouteTypeTrolleybus RouteType = 11
	RouteTypeMonorail   RouteType = 12
)

type Route struct {
	ID        string
	ShortName string
	LongName  string
	Type      RouteType // 仅用于展示
}

// Pathway 车站内的连接通道
type Pathway struct {
	ID            string
	Bidirectional bool
	FromStopID    string
	ToStopID      string
	TraversalTime int64 // s，缺省为0
}

// Schedule 一次查询所需的全部静态时刻表数据，查询期间只读
type Schedule struct {
	Stops    []Stop
	Visits   []ScheduledVisit
	Pathways []Pathway
	Trips    []Trip
	Routes   []Route
}

// Query 查询参数
type Query struct {
	Origin      string
	Destination string
	Date        Date
	Departure   Clock
}

type LegKind uint8

const (
	LEG_RIDE LegKind = iota
	LEG_WALK
	LEG_TRANSFER
	LEG_WAIT
)

func (k LegKind) String() string {
	switch k {
	case LEG_RIDE:
		return "RIDE"
	case LEG_WALK:
		return "WALK"
	case LEG_TRANSFER:
		return "TRANSFER"
	case LEG_WAIT:
		return "WAIT"
	default:
		return "UNKNOWN"
	}
}

func (k LegKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Leg 行程中的一段
// Start/End为相对于查询日零点的秒数，可能超过86400
type Leg struct {
	Kind     LegKind
	From     Stop
	To       Stop
	Start    int64
	End      int64
	Duration int64 // s，来自边的通行时间

	// 仅LEG_RIDE
	TripID         string
	RouteID        string
	RouteShortName string
	RouteLongName  string

	// 仅LEG_WALK，单位m
	Distance float64
}
