package planner

import (
	"errors"

	"github.com/tsinghua-fib-lab/transit-routing/planner/algo"
)

var (
	ErrStopNotFound  = errors.New("stop not found")
	ErrTripNotFound  = errors.New("trip not found")
	ErrRouteNotFound = errors.New("route not found")
	// 时刻表中到达早于发车
	ErrNegativeDuration = algo.ErrNegativeDuration
)
