package event

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/demandsim/clock"
	"github.com/tsinghua-fib-lab/demandsim/utils/container"
)

var log = logrus.WithField("module", "event")

// Kind 事件类型，说明事件由人员状态机的哪个状态产生
type Kind uint8

const (
	KindStart        Kind = iota // 首个活动开始
	KindActivityEnd              // 活动结束
	KindArrival                  // 非公共交通出行到达
	KindVehicleCheck             // 站点等待中检查车辆
	KindAlight                   // 到达下车站
)

var kindNames = []string{"start", "activity_end", "arrival", "vehicle_check", "alight"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Event 仿真事件
type Event struct {
	Time   clock.Time
	Person int32 // 事件所属人员ID
	Kind   Kind
}

func (e Event) String() string {
	return fmt.Sprintf("Event{%v person=%d %v}", e.Time, e.Person, e.Kind)
}

// Queue 事件队列
// 功能：按时间升序弹出事件，时间相同的事件按加入顺序弹出
// 说明：
// 1. 非线程安全，每个分片独占一个队列
// 2. 加入早于当前处理时刻的事件是调度错误，直接panic
// 3. 空队列调用Next是调用错误，调用方应先检查HasNextUntil
type Queue struct {
	pq  *container.PriorityQueue[Event, clock.Time]
	now clock.Time
}

// NewQueue 创建事件队列
// 参数：start-模拟起始时刻
func NewQueue(start clock.Time) *Queue {
	return &Queue{
		pq:  container.NewPriorityQueue[Event, clock.Time](),
		now: start,
	}
}

// Add 加入事件
func (q *Queue) Add(e Event) {
	if e.Time < q.now {
		log.Panicf("time travel: add %v while processing %v", e, q.now)
	}
	q.pq.HeapPush(e, e.Time)
}

// HasNextUntil 是否存在不晚于t的事件
func (q *Queue) HasNextUntil(t clock.Time) bool {
	if q.pq.Len() == 0 {
		return false
	}
	_, first := q.pq.First()
	return first <= t
}

// Next 弹出最早的事件，并把当前处理时刻推进到该事件时刻
func (q *Queue) Next() Event {
	if q.pq.Len() == 0 {
		log.Panicf("next on empty event queue at %v", q.now)
	}
	e, _ := q.pq.HeapPop()
	q.now = e.Time
	return e
}

// Len 待处理事件数
func (q *Queue) Len() int {
	return q.pq.Len()
}

// Now 当前处理时刻
func (q *Queue) Now() clock.Time {
	return q.now
}
