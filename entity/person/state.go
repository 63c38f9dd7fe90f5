package person

import (
	"fmt"

	"github.com/tsinghua-fib-lab/demandsim/clock"
	"github.com/tsinghua-fib-lab/demandsim/entity"
	"github.com/tsinghua-fib-lab/demandsim/entity/event"
)

// 同一时刻内允许的最大连续状态转换次数
const maxTransitions = 64

// State 人员状态
type State int32

const (
	StateUninitialized            State = iota
	StateExecuteActivity                // 执行活动
	StateSelectDestinationAndMode       // 选择目的地与方式
	StateOnTheWay                       // 非公共交通方式出行中
	StateStartPublicTransport           // 前往首个上车站
	StateWaitAtStop                     // 站点候车
	StateSearchNewTrip                  // 检索新的公共交通路线
	StateBoarding                       // 上车
	StateRiding                         // 乘车
	StateAlighting                      // 下车
	StateEndPublicTransport             // 公共交通出行结束
)

var stateNames = []string{
	"uninitialized",
	"execute_activity",
	"select_destination_and_mode",
	"on_the_way",
	"start_public_transport",
	"wait_at_stop",
	"search_new_trip",
	"boarding",
	"riding",
	"alighting",
	"end_public_transport",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", s)
}

// Instantaneous 是否为瞬时状态（进入后在同一时刻立即离开）
func (s State) Instantaneous() bool {
	switch s {
	case StateExecuteActivity, StateOnTheWay, StateWaitAtStop, StateRiding:
		return false
	}
	return true
}

// updateState 状态机主循环
// 算法说明：
// 1. 执行当前状态的离开动作，计算下一状态，执行其进入动作并通知监听器
// 2. 新状态为瞬时状态时重复，同一时刻超过maxTransitions次视为死循环
// 3. 最终停留在非瞬时状态，按该状态生成下一个事件
func (p *Person) updateState(t clock.Time, q *event.Queue) {
	for i := 0; ; i++ {
		if i >= maxTransitions {
			p.fail(t, ErrTooManyTransitions)
		}
		from := p.state
		p.doActionAtEnd(from, t)
		to := p.nextState(from, t)
		p.state = to
		p.stateEntered = t
		p.doActionAtStart(to, t)
		p.notify(t, p.env.Listener.NotifyStateChanged(p, from, to, t))
		if !to.Instantaneous() {
			break
		}
	}
	if e, ok := p.nextEvent(t); ok {
		q.Add(e)
	} else {
		p.finished = true
	}
}

func (p *Person) doActionAtStart(s State, t clock.Time) {
	switch s {
	case StateSelectDestinationAndMode:
		p.selectDestinationAndMode(t)
	case StateOnTheWay:
		p.startTrip(t)
	case StateStartPublicTransport:
		p.startTrip(t)
		p.enterFirstStop(t)
	case StateWaitAtStop:
		p.wait(t)
	case StateSearchNewTrip:
		p.changeToNewTrip(t)
	case StateBoarding:
		p.board(t)
	case StateAlighting:
		p.getOff(t)
	case StateEndPublicTransport:
		p.endTrip(t)
	}
}

func (p *Person) doActionAtEnd(s State, t clock.Time) {
	switch s {
	case StateExecuteActivity:
		p.schedule.StopCurrent()
	case StateOnTheWay:
		p.endTrip(t)
	}
}

func (p *Person) nextState(s State, t clock.Time) State {
	switch s {
	case StateUninitialized, StateOnTheWay, StateEndPublicTransport:
		return StateExecuteActivity
	case StateExecuteActivity:
		return StateSelectDestinationAndMode
	case StateSelectDestinationAndMode:
		if p.currentTrip(t).Mode() == entity.ModePublicTransport {
			return StateStartPublicTransport
		}
		return StateOnTheWay
	case StateStartPublicTransport:
		return StateWaitAtStop
	case StateWaitAtStop:
		return p.afterWaiting(t)
	case StateSearchNewTrip:
		if p.currentTrip(t).Mode() == entity.ModePublicTransport {
			return StateWaitAtStop
		}
		return StateOnTheWay
	case StateBoarding:
		if p.boarded {
			return StateRiding
		}
		return StateSearchNewTrip
	case StateRiding:
		return StateAlighting
	case StateAlighting:
		if p.hasArrivedAtNextActivity() {
			return StateEndPublicTransport
		}
		return StateWaitAtStop
	}
	p.fail(t, fmt.Errorf("no transition from %v", s))
	return s
}

// nextEvent 停留在非瞬时状态时的下一个事件，不存在时返回false
func (p *Person) nextEvent(t clock.Time) (event.Event, bool) {
	at := func(time clock.Time, kind event.Kind) (event.Event, bool) {
		return event.Event{Time: max(time, t), Person: p.id, Kind: kind}, true
	}
	switch p.state {
	case StateExecuteActivity:
		cur, _ := p.schedule.Current()
		if p.NextActivityStartsAfterSimulationEnd() || p.env.Clock.AfterHorizon(cur.PlannedEnd()) {
			return event.Event{}, false
		}
		return at(cur.PlannedEnd(), event.KindActivityEnd)
	case StateOnTheWay:
		return at(p.currentTrip(t).PlannedEnd(), event.KindArrival)
	case StateWaitAtStop:
		return at(p.nextVehicleCheck(t), event.KindVehicleCheck)
	case StateRiding:
		leg := p.currentLeg(t)
		arrival, ok := p.env.Transit.AlightTime(leg)
		if !ok {
			arrival = leg.Arrival
		}
		return at(arrival, event.KindAlight)
	}
	p.fail(t, fmt.Errorf("no event for %v", p.state))
	return event.Event{}, false
}

// currentTrip 当前出行，不存在是致命错误
func (p *Person) currentTrip(t clock.Time) *Trip {
	trip, ok := p.trip.Get()
	if !ok {
		p.fail(t, ErrNoTrip)
	}
	return trip
}
