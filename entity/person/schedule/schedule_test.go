package schedule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/demandsim/clock"
	"github.com/tsinghua-fib-lab/demandsim/entity"
	"github.com/tsinghua-fib-lab/demandsim/entity/person/schedule"
)

const minute = clock.Minute

// home(0,480) work(480,600) shopping(1100,30) home(1150,...)
func newDay() *schedule.Schedule {
	return schedule.NewSchedule([]*schedule.Activity{
		schedule.NewActivity(0, entity.ActivityWork, 480*minute, 600*minute),
		schedule.NewActivity(0, entity.ActivityHome, 0, 480*minute),
		schedule.NewActivity(0, entity.ActivityShopping, 1100*minute, 30*minute),
		schedule.NewActivity(0, entity.ActivityHome, 1150*minute, 300*minute),
	})
}

func starts(s *schedule.Schedule) []clock.Time {
	res := []clock.Time{}
	for _, a := range s.Activities() {
		res = append(res, a.StartDate())
	}
	return res
}

func TestScheduleNavigation(t *testing.T) {
	s := newDay()
	first, ok := s.First()
	require.True(t, ok)
	assert.Equal(t, entity.ActivityHome, first.ActivityType())
	assert.Equal(t, int32(0), first.Number())
	_, ok = s.Current()
	assert.False(t, ok)

	next, ok := s.Next(first)
	require.True(t, ok)
	assert.Equal(t, entity.ActivityWork, next.ActivityType())
	home, ok := s.NextHome(first)
	require.True(t, ok)
	assert.Equal(t, int32(3), home.Number())
	_, ok = s.Next(home)
	assert.False(t, ok)
	_, ok = s.NextHome(home)
	assert.False(t, ok)
}

func TestStartActivityKeepsChainContiguous(t *testing.T) {
	s := newDay()
	acts := s.Activities()
	s.StartActivity(acts[0], 0, entity.ModeUnknown, schedule.ShiftRescheduling{})
	assert.Equal(t, 1, s.Running())
	s.StartActivity(acts[1], 490*minute, entity.ModeCar, schedule.ShiftRescheduling{})
	assert.Equal(t, 1, s.Running())
	cur, _ := s.Current()
	assert.Equal(t, acts[1], cur)
	assert.Equal(t, entity.ModeCar, cur.Mode())
	assert.False(t, acts[0].IsRunning())
	assert.Equal(t, []clock.Time{0, 490 * minute, 1110 * minute, 1160 * minute}, starts(s))
	assert.Equal(t, 1100*minute, acts[2].PlannedStart())
	s.StopCurrent()
	assert.Equal(t, 0, s.Running())
}

func TestNoRescheduling(t *testing.T) {
	s := newDay()
	acts := s.Activities()
	s.StartActivity(acts[1], 500*minute, entity.ModeWalk, schedule.NoRescheduling{})
	assert.Equal(t, []clock.Time{0, 500 * minute, 1100 * minute, 1150 * minute}, starts(s))
}

func TestReschedulingIdempotent(t *testing.T) {
	strategies := []schedule.IReschedulingStrategy{
		schedule.NoRescheduling{},
		schedule.ShiftRescheduling{},
		schedule.SkipToHomeRescheduling{MaxDelay: 0},
	}
	for _, r := range strategies {
		s := newDay()
		before := starts(s)
		acts := s.Activities()
		r.AdjustSchedule(s, acts[1], acts[1].StartDate(), acts[1].StartDate())
		r.AdjustSchedule(s, acts[1], acts[1].StartDate(), acts[1].StartDate())
		assert.Equal(t, before, starts(s))
		for _, a := range acts {
			assert.False(t, a.Skipped())
		}
	}
}

func TestSkipToHome(t *testing.T) {
	r := schedule.SkipToHomeRescheduling{MaxDelay: 30 * minute}

	// 延误不超过阈值：平移
	s := newDay()
	acts := s.Activities()
	s.StartActivity(acts[1], 500*minute, entity.ModeCar, r)
	assert.Equal(t, []clock.Time{0, 500 * minute, 1120 * minute, 1170 * minute}, starts(s))

	// 延误超过阈值：跳过购物，直接回家
	s = newDay()
	acts = s.Activities()
	s.StartActivity(acts[1], 600*minute, entity.ModeCar, r)
	assert.True(t, acts[2].Skipped())
	next, ok := s.Next(acts[1])
	require.True(t, ok)
	assert.Equal(t, acts[3], next)
	// 工作到1200分钟结束，回家不得早于此
	assert.Equal(t, 1200*minute, acts[3].StartDate())

	// 确定性
	s2 := newDay()
	acts2 := s2.Activities()
	s2.StartActivity(acts2[1], 600*minute, entity.ModeCar, r)
	assert.Equal(t, starts(s), starts(s2))
}

func TestActivityLocation(t *testing.T) {
	a := schedule.NewActivity(0, entity.ActivityLeisure, 0, -5)
	assert.Equal(t, clock.Time(0), a.Duration())
	_, ok := a.Location()
	assert.False(t, ok)
	a.SetLocation(entity.Location{Zone: 3})
	l, ok := a.Location()
	assert.True(t, ok)
	assert.Equal(t, entity.ZoneID(3), l.Zone)
	a.ChangeDuration(10)
	assert.Equal(t, clock.Time(10), a.PlannedEnd())
}
