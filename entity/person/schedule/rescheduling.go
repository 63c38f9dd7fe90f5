package schedule

import "github.com/tsinghua-fib-lab/demandsim/clock"

// IReschedulingStrategy 重排程策略
// 功能：活动实际开始时刻偏离计划时，调整尚未执行的后续活动
// 说明：必须是确定性的；实际时刻等于计划时刻时不得修改计划
type IReschedulingStrategy interface {
	AdjustSchedule(s *Schedule, beginning *Activity, plannedStart, actualStart clock.Time)
}

// NoRescheduling 不调整后续活动
type NoRescheduling struct{}

func (NoRescheduling) AdjustSchedule(*Schedule, *Activity, clock.Time, clock.Time) {}

// ShiftRescheduling 后续未执行活动整体平移相同的偏移量
type ShiftRescheduling struct{}

func (ShiftRescheduling) AdjustSchedule(s *Schedule, beginning *Activity, plannedStart, actualStart clock.Time) {
	shift(s, beginning, actualStart-plannedStart)
}

// SkipToHomeRescheduling 延误不超过MaxDelay时平移后续活动；
// 超过时跳过下一个在家活动之前的所有外出活动，在家活动保持原计划以便与日历重新对齐
type SkipToHomeRescheduling struct {
	MaxDelay clock.Time
}

func (r SkipToHomeRescheduling) AdjustSchedule(s *Schedule, beginning *Activity, plannedStart, actualStart clock.Time) {
	offset := actualStart - plannedStart
	if offset <= r.MaxDelay {
		shift(s, beginning, offset)
		return
	}
	if beginning.activityType.IsHome() {
		return
	}
	home, ok := s.NextHome(beginning)
	if !ok {
		return
	}
	for i := int(beginning.number) + 1; i < int(home.number); i++ {
		s.activities[i].skipped = true
	}
	// 在家活动不得早于当前活动结束
	if home.startDate < beginning.PlannedEnd() {
		home.startDate = beginning.PlannedEnd()
	}
}

func shift(s *Schedule, beginning *Activity, offset clock.Time) {
	if offset == 0 {
		return
	}
	for i := int(beginning.number) + 1; i < len(s.activities); i++ {
		if a := s.activities[i]; !a.started {
			a.startDate += offset
		}
	}
}
