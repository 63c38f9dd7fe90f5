package container

import (
	"cmp"
	"container/heap"
)

// item 优先队列中单个元素
// 说明：seq为入队序号，优先级相同时按入队顺序出队
type item[T any, P cmp.Ordered] struct {
	Value    T // 元素的值
	Priority P // 元素在队列中的优先级（越小越优先）
	seq      uint64
}

// priorityQueue 实现了 heap.Interface
type priorityQueue[T any, P cmp.Ordered] []*item[T, P]

func (pq priorityQueue[T, P]) Len() int { return len(pq) }

// Less 先比较优先级，相同时比较入队序号（FIFO）
func (pq priorityQueue[T, P]) Less(i, j int) bool {
	if pq[i].Priority != pq[j].Priority {
		return pq[i].Priority < pq[j].Priority
	}
	return pq[i].seq < pq[j].seq
}

func (pq priorityQueue[T, P]) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *priorityQueue[T, P]) Push(x any) {
	*pq = append(*pq, x.(*item[T, P]))
}

func (pq *priorityQueue[T, P]) Pop() any {
	old := *pq
	n := len(old)
	it := old[n-1]
	old[n-1] = nil // 避免内存泄漏
	*pq = old[0 : n-1]
	return it
}

// PriorityQueue 稳定优先队列
// 功能：按优先级从小到大出队，优先级相同的元素严格按入队顺序出队
// 说明：非线程安全，由调用方保证单线程访问
type PriorityQueue[T any, P cmp.Ordered] struct {
	queue priorityQueue[T, P]
	seq   uint64 // 下一个入队序号
}

// NewPriorityQueue 创建优先队列
func NewPriorityQueue[T any, P cmp.Ordered]() *PriorityQueue[T, P] {
	return &PriorityQueue[T, P]{queue: make(priorityQueue[T, P], 0)}
}

// Len 获取当前队列长度
func (q *PriorityQueue[T, P]) Len() int {
	return len(q.queue)
}

// First 查看队首元素（不出队）
// 说明：队列为空时panic
func (q *PriorityQueue[T, P]) First() (value T, priority P) {
	it := q.queue[0]
	return it.Value, it.Priority
}

// HeapPush 加入元素
func (q *PriorityQueue[T, P]) HeapPush(value T, priority P) {
	heap.Push(&q.queue, &item[T, P]{
		Value:    value,
		Priority: priority,
		seq:      q.seq,
	})
	q.seq++
}

// HeapPop 弹出优先级最高（数值最小）的元素
// 说明：队列为空时panic
func (q *PriorityQueue[T, P]) HeapPop() (value T, priority P) {
	it := heap.Pop(&q.queue).(*item[T, P])
	return it.Value, it.Priority
}
