package algo_test

import (
	"container/heap"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/transit-routing/planner/algo"
)

func TestPriorityQueueOrder(t *testing.T) {
	pq := make(algo.PriorityQueue, 0)
	for i, arrival := range []int64{29000, 28800, 30100, 28860} {
		heap.Push(&pq, &algo.Item{Value: i, Priority: arrival})
	}

	popped := make([]int64, 0, 4)
	for pq.Len() > 0 {
		popped = append(popped, heap.Pop(&pq).(*algo.Item).Priority)
	}
	assert.Equal(t, []int64{28800, 28860, 29000, 30100}, popped)
}

func TestPriorityQueueTieBreak(t *testing.T) {
	pq := make(algo.PriorityQueue, 0)
	heap.Push(&pq, &algo.Item{Value: 7, Priority: 10})
	heap.Push(&pq, &algo.Item{Value: 5, Priority: 10})
	heap.Push(&pq, &algo.Item{Value: 6, Priority: 10})

	// 优先级相同按Value出队
	assert.Equal(t, 5, heap.Pop(&pq).(*algo.Item).Value)
	assert.Equal(t, 6, heap.Pop(&pq).(*algo.Item).Value)
	assert.Equal(t, 7, heap.Pop(&pq).(*algo.Item).Value)
}
