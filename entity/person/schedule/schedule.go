package schedule

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tsinghua-fib-lab/demandsim/clock"
	"github.com/tsinghua-fib-lab/demandsim/entity"
)

// Schedule 周活动计划
// 功能：按开始时刻排列的活动链，记录当前活动，提供后续活动与下一个在家活动的查询
type Schedule struct {
	activities []*Activity
	current    int // 当前活动下标，-1表示尚未开始
}

// NewSchedule 创建周活动计划
// 说明：活动按计划开始时刻稳定排序，并重新编号
func NewSchedule(activities []*Activity) *Schedule {
	acts := append([]*Activity(nil), activities...)
	sort.SliceStable(acts, func(i, j int) bool { return acts[i].startDate < acts[j].startDate })
	for i, a := range acts {
		a.number = int32(i)
	}
	return &Schedule{activities: acts, current: -1}
}

// Activities 全部活动
func (s *Schedule) Activities() []*Activity {
	return s.activities
}

// First 第一个活动
func (s *Schedule) First() (*Activity, bool) {
	if len(s.activities) == 0 {
		return nil, false
	}
	return s.activities[0], true
}

// Current 当前活动
func (s *Schedule) Current() (*Activity, bool) {
	if s.current < 0 {
		return nil, false
	}
	return s.activities[s.current], true
}

// Next 某活动之后第一个未被跳过的活动
func (s *Schedule) Next(after *Activity) (*Activity, bool) {
	for i := int(after.number) + 1; i < len(s.activities); i++ {
		if !s.activities[i].skipped {
			return s.activities[i], true
		}
	}
	return nil, false
}

// NextHome 某活动之后第一个在家活动
func (s *Schedule) NextHome(after *Activity) (*Activity, bool) {
	for i := int(after.number) + 1; i < len(s.activities); i++ {
		if a := s.activities[i]; !a.skipped && a.activityType.IsHome() {
			return a, true
		}
	}
	return nil, false
}

// StartActivity 开始活动
// 功能：把活动开始时刻设为实际时刻，交给重排程策略调整后续活动，再标记为正在进行
// 参数：a-活动，actual-实际开始时刻，mode-到达所用方式，rescheduling-重排程策略
func (s *Schedule) StartActivity(a *Activity, actual clock.Time, mode entity.Mode, rescheduling IReschedulingStrategy) {
	if s.activities[a.number] != a {
		panic(fmt.Sprintf("schedule: activity %v not in schedule", a))
	}
	planned := a.startDate
	a.startDate = actual
	rescheduling.AdjustSchedule(s, a, planned, actual)
	if cur, ok := s.Current(); ok {
		cur.SetRunning(false)
	}
	a.SetRunning(true)
	a.setMode(mode)
	s.current = int(a.number)
}

// StopCurrent 结束当前活动
func (s *Schedule) StopCurrent() {
	if cur, ok := s.Current(); ok {
		cur.SetRunning(false)
	}
}

// Running 正在进行的活动数（活动链连续时至多为1）
func (s *Schedule) Running() int {
	n := 0
	for _, a := range s.activities {
		if a.running {
			n++
		}
	}
	return n
}

func (s *Schedule) String() string {
	var sb strings.Builder
	sb.WriteString("Schedule[")
	for i, a := range s.activities {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.String())
	}
	sb.WriteString("]")
	return sb.String()
}
