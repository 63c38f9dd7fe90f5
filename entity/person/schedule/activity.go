package schedule

import (
	"fmt"

	"github.com/tsinghua-fib-lab/demandsim/clock"
	"github.com/tsinghua-fib-lab/demandsim/entity"
	"github.com/tsinghua-fib-lab/demandsim/utils/container"
)

// Activity 周计划中的一项活动
// 说明：地点在首次前往时确定；开始时刻可能被重排程修改
type Activity struct {
	number       int32
	activityType entity.ActivityType
	location     container.Option[entity.Location]

	plannedStart clock.Time // 原始计划开始时刻
	startDate    clock.Time // 当前计划开始时刻（开始后为实际开始时刻）
	duration     clock.Time

	running bool
	started bool
	skipped bool
	mode    entity.Mode // 到达该活动所用方式
}

// NewActivity 创建活动
func NewActivity(number int32, t entity.ActivityType, start, duration clock.Time) *Activity {
	return &Activity{
		number:       number,
		activityType: t,
		plannedStart: start,
		startDate:    start,
		duration:     max(duration, 0),
	}
}

func (a *Activity) Number() int32 {
	return a.number
}

func (a *Activity) ActivityType() entity.ActivityType {
	return a.activityType
}

// Location 活动地点，尚未确定时返回false
func (a *Activity) Location() (entity.Location, bool) {
	return a.location.Get()
}

// SetLocation 确定活动地点
func (a *Activity) SetLocation(l entity.Location) {
	a.location = container.Some(l)
}

// IsLocationSet 地点是否已确定
func (a *Activity) IsLocationSet() bool {
	return a.location.IsSome()
}

// StartDate 当前计划开始时刻
func (a *Activity) StartDate() clock.Time {
	return a.startDate
}

// PlannedStart 原始计划开始时刻
func (a *Activity) PlannedStart() clock.Time {
	return a.plannedStart
}

func (a *Activity) Duration() clock.Time {
	return a.duration
}

// ChangeDuration 修改时长（例如为搭车提前结束）
func (a *Activity) ChangeDuration(d clock.Time) {
	a.duration = max(d, 0)
}

// PlannedEnd 计划结束时刻
func (a *Activity) PlannedEnd() clock.Time {
	return a.startDate + a.duration
}

// IsRunning 是否正在进行
func (a *Activity) IsRunning() bool {
	return a.running
}

// SetRunning 设置是否正在进行
func (a *Activity) SetRunning(running bool) {
	a.running = running
	if running {
		a.started = true
	}
}

// Started 是否已经开始过
func (a *Activity) Started() bool {
	return a.started
}

// Skipped 是否被重排程跳过
func (a *Activity) Skipped() bool {
	return a.skipped
}

func (a *Activity) Mode() entity.Mode {
	return a.mode
}

func (a *Activity) setMode(m entity.Mode) {
	a.mode = m
}

func (a *Activity) String() string {
	return fmt.Sprintf("Activity{#%d %v start=%v duration=%v}", a.number, a.activityType, a.startDate, a.duration)
}
