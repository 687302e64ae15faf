package algo

type EdgeKind uint8

const (
	RIDE EdgeKind = iota
	WALK
	CONNECTOR
)

func (k EdgeKind) String() string {
	switch k {
	case RIDE:
		return "RIDE"
	case WALK:
		return "WALK"
	case CONNECTOR:
		return "CONNECTOR"
	default:
		return "UNKNOWN"
	}
}

// Edge 图中的一条出边
type Edge struct {
	To       int
	Duration int64 // 通行时间（s）
	Kind     EdgeKind
	// 仅RIDE边有效
	Departure int64 // 相对于查询日零点的绝对发车时间（s）
	Trip      int32 // 车次实例编号
}

// PendingEdge 构图阶段尚未并入邻接表的边
type PendingEdge struct {
	From int
	Edge
}

// SearchNode 搜索树上的节点，Pred为arena中的下标
type SearchNode struct {
	Stop      int
	Arrival   int64
	Pred      int32
	Transfers int
	HeldTrip  int32
	Edge      Edge  // 到达该节点所经过的边
	Wait      int64 // 经过Edge之前的等待时间
}
