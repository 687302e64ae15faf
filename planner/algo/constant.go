package algo

import (
	"errors"
)

const (
	// 换乘等待时间下限/上限（单位：秒）
	MIN_TRANSFER_WAIT = 60
	MAX_TRANSFER_WAIT = 1200
	// 最大换乘次数
	MAX_TRANSFERS = 4

	// 步行速度 km/h
	WALK_SPEED_KMH = 5.0
	// 步行边的最大距离（m）
	MAX_WALK_DISTANCE = 3000
	// 相关车站椭圆的缓冲距离（m）
	RELEVANT_STOP_BUFFER = 1000
	// 地球半径（km）
	EARTH_RADIUS_KM = 6371

	SECONDS_PER_DAY = 86400

	// 未持有任何车次
	NO_TRIP = int32(-1)
	// 起点没有前驱
	NO_PRED = int32(-1)

	// 搜索中检查ctx的间隔
	CANCEL_CHECK_INTERVAL = 1024
)

var (
	// 错误：边长为负
	ErrNegativeDuration = errors.New("negative edge duration")
	// 错误：点不在图中
	ErrNodeOutOfRange = errors.New("node out of range")
)
