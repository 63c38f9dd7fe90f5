package person

import (
	"sort"

	"github.com/tsinghua-fib-lab/demandsim/clock"
	"github.com/tsinghua-fib-lab/demandsim/entity"
	"github.com/tsinghua-fib-lab/demandsim/entity/event"
)

// Shard 分片
// 功能：一个住址小区的全部人员共享一个事件队列，分片内事件严格按时间与加入顺序串行处理
// 说明：不同分片在同一时间片内并行推进
type Shard struct {
	zone    entity.ZoneID
	queue   *event.Queue
	persons []*Person // 按ID升序
	index   map[int32]*Person

	processed int64
}

func newShard(zone entity.ZoneID, persons []*Person, start clock.Time) *Shard {
	sort.Slice(persons, func(i, j int) bool { return persons[i].id < persons[j].id })
	s := &Shard{
		zone:    zone,
		queue:   event.NewQueue(start),
		persons: persons,
		index:   make(map[int32]*Person, len(persons)),
	}
	for _, p := range persons {
		s.index[p.id] = p
	}
	return s
}

// Zone 分片对应的住址小区
func (s *Shard) Zone() entity.ZoneID {
	return s.zone
}

// init 按人员ID顺序开始第一个活动并加入开始事件
func (s *Shard) init(start clock.Time) {
	for _, p := range s.persons {
		p.Init(start)
		s.queue.Add(p.StartEvent(start))
	}
}

// ProcessUntil 处理所有早于limit的事件
// 返回：处理的事件数
func (s *Shard) ProcessUntil(limit clock.Time) int {
	n := 0
	for s.queue.HasNextUntil(limit - 1) {
		e := s.queue.Next()
		p, ok := s.index[e.Person]
		if !ok {
			log.Panicf("shard %d: %v for unknown person", s.zone, e)
		}
		p.Notify(e, s.queue.Now(), s.queue)
		n++
	}
	s.processed += int64(n)
	return n
}

// Pending 待处理事件数
func (s *Shard) Pending() int {
	return s.queue.Len()
}

// Idle 是否没有早于limit的待处理事件
func (s *Shard) Idle(limit clock.Time) bool {
	return !s.queue.HasNextUntil(limit - 1)
}
