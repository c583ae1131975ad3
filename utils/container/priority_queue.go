package container

import "container/heap"

// item is a single element of the priority queue: a value plus the
// priority it was pushed with. index is maintained by the heap methods.
type item[T any] struct {
	Value    T
	Priority float64
	index    int
}

// priorityQueue implements heap.Interface over a min-heap of priority.
type priorityQueue[T any] []*item[T]

func (pq priorityQueue[T]) Len() int { return len(pq) }

// Less uses < so Pop returns the lowest-priority item first (min-heap).
func (pq priorityQueue[T]) Less(i, j int) bool {
	return pq[i].Priority < pq[j].Priority
}

func (pq priorityQueue[T]) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue[T]) Push(x any) {
	n := len(*pq)
	it := x.(*item[T])
	it.index = n
	*pq = append(*pq, it)
}

func (pq *priorityQueue[T]) Pop() any {
	old := *pq
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*pq = old[0 : n-1]
	return it
}

// PriorityQueue is a generic min-priority-queue, used by the spline grid
// for nearest-point and range queries by distance.
type PriorityQueue[T any] struct {
	queue priorityQueue[T]
}

func NewPriorityQueue[T any]() *PriorityQueue[T] {
	return &PriorityQueue[T]{queue: make(priorityQueue[T], 0)}
}

func (q *PriorityQueue[T]) Len() int {
	return len(q.queue)
}

// First peeks the lowest-priority element without removing it.
func (q *PriorityQueue[T]) First() T {
	return q.queue[0].Value
}

// Push appends an element without restoring the heap invariant; call
// Heapify once after a batch of these.
func (q *PriorityQueue[T]) Push(value T, priority float64) {
	q.queue = append(q.queue, &item[T]{
		Value:    value,
		Priority: priority,
	})
}

// Heapify restores the heap invariant after a batch of plain Push calls.
func (q *PriorityQueue[T]) Heapify() {
	heap.Init(&q.queue)
}

// HeapPush inserts while maintaining the heap invariant.
func (q *PriorityQueue[T]) HeapPush(value T, priority float64) {
	heap.Push(&q.queue, &item[T]{
		Value:    value,
		Priority: priority,
	})
}

// HeapPop removes and returns the lowest-priority element.
func (q *PriorityQueue[T]) HeapPop() (value T, priority float64) {
	it := heap.Pop(&q.queue).(*item[T])
	return it.Value, it.Priority
}
