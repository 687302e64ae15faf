package feed

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tsinghua-fib-lab/transit-routing/planner"
)

// ParseClock 解析GTFS时刻H:MM:SS
// 跨零点运营的车次小时数可以不小于24，结果中的Days记录超出的天数
func ParseClock(s string) (planner.Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return planner.Clock{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	var hms [3]int64
	for i, p := range parts {
		v, err := strconv.ParseInt(p, 10, 32)
		if err != nil || v < 0 {
			return planner.Clock{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
		hms[i] = v
	}
	if hms[1] >= 60 || hms[2] >= 60 {
		return planner.Clock{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return planner.ClockOf(hms[0]*3600 + hms[1]*60 + hms[2]), nil
}

// parseOptionalClock 空串表示该时刻缺失
func parseOptionalClock(s string) (planner.OptionalClock, error) {
	if strings.TrimSpace(s) == "" {
		return planner.None(), nil
	}
	c, err := ParseClock(s)
	if err != nil {
		return planner.None(), err
	}
	return planner.Some(c), nil
}
