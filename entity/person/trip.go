package person

import (
	"fmt"

	"github.com/tsinghua-fib-lab/demandsim/clock"
	"github.com/tsinghua-fib-lab/demandsim/entity"
	"github.com/tsinghua-fib-lab/demandsim/entity/person/schedule"
	"github.com/tsinghua-fib-lab/demandsim/utils/container"
)

// Trip 两个相邻活动之间的一次出行
// 功能：记录起终点活动、方式与计划时刻
// 说明：创建后不可修改；公共交通换乘失败时以replace生成新的出行对象替代
type Trip struct {
	id       int64
	leg      int32 // 同一出行被替换的次数
	previous *schedule.Activity
	next     *schedule.Activity

	origin      entity.Location
	destination entity.Location
	mode        entity.Mode

	plannedStart    clock.Time
	plannedDuration clock.Time

	route container.Option[entity.PublicTransportRoute]
}

func newTrip(
	id int64,
	previous, next *schedule.Activity,
	origin, destination entity.Location,
	mode entity.Mode,
	start, duration clock.Time,
	route container.Option[entity.PublicTransportRoute],
) *Trip {
	return &Trip{
		id:              id,
		previous:        previous,
		next:            next,
		origin:          origin,
		destination:     destination,
		mode:            mode,
		plannedStart:    start,
		plannedDuration: max(duration, 0),
		route:           route,
	}
}

// replace 从新的起点以新的方式与路线完成剩余行程
func (t *Trip) replace(
	origin entity.Location,
	mode entity.Mode,
	start, duration clock.Time,
	route container.Option[entity.PublicTransportRoute],
) *Trip {
	n := newTrip(t.id, t.previous, t.next, origin, t.destination, mode, start, duration, route)
	n.leg = t.leg + 1
	return n
}

func (t *Trip) ID() int64 {
	return t.id
}

func (t *Trip) Leg() int32 {
	return t.leg
}

func (t *Trip) Previous() *schedule.Activity {
	return t.previous
}

func (t *Trip) Next() *schedule.Activity {
	return t.next
}

func (t *Trip) Origin() entity.Location {
	return t.origin
}

func (t *Trip) Destination() entity.Location {
	return t.destination
}

func (t *Trip) Mode() entity.Mode {
	return t.mode
}

func (t *Trip) PlannedStart() clock.Time {
	return t.plannedStart
}

func (t *Trip) PlannedDuration() clock.Time {
	return t.plannedDuration
}

// PlannedEnd 计划到达时刻
func (t *Trip) PlannedEnd() clock.Time {
	return t.plannedStart + t.plannedDuration
}

// Route 公共交通路线，其他方式为空
func (t *Trip) Route() (entity.PublicTransportRoute, bool) {
	return t.route.Get()
}

func (t *Trip) String() string {
	return fmt.Sprintf("Trip{id=%d leg=%d %v %d->%d %v+%ds}",
		t.id, t.leg, t.mode, t.origin.Zone, t.destination.Zone, t.plannedStart, int64(t.plannedDuration))
}

// StartedTrip 已出发的出行
type StartedTrip struct {
	*Trip
	Start   clock.Time
	Vehicle container.Option[int32] // 使用的汽车ID或首个公共交通班次ID
}

// FinishedTrip 已完成的出行
// 说明：起点、方式取自出发时的出行；FinalLeg为最终完成时的替换次数
type FinishedTrip struct {
	StartedTrip
	End      clock.Time
	FinalLeg int32
	Distance float64 // 米
}

// Duration 实际耗时
func (f FinishedTrip) Duration() clock.Time {
	return f.End - f.Start
}

// TourStart 是否为出行链（从家出发）的第一段
func (f FinishedTrip) TourStart() bool {
	return f.previous.ActivityType().IsHome()
}
