package person

import (
	"errors"
	"fmt"

	"github.com/tsinghua-fib-lab/demandsim/clock"
	"github.com/tsinghua-fib-lab/demandsim/entity"
	"github.com/tsinghua-fib-lab/demandsim/entity/vehicle"
	"github.com/tsinghua-fib-lab/demandsim/utils/container"
)

// 连续检索新路线的次数上限，超过后步行前往目的地
const maxSearches = 8

// currentLeg 当前公共交通路段
func (p *Person) currentLeg(t clock.Time) entity.PublicTransportLeg {
	route, ok := p.currentTrip(t).Route()
	if !ok || p.legIndex >= len(route.Legs) {
		p.fail(t, fmt.Errorf("no public transport leg %d: %w", p.legIndex, ErrNoTrip))
	}
	return route.Legs[p.legIndex]
}

func (p *Person) enterFirstStop(t clock.Time) {
	p.env.Transit.EnterWaitingArea(p, p.currentLeg(t).From, t)
}

// wait 在站点等候，记录开始等候的时刻
func (p *Person) wait(t clock.Time) {
	if !p.waitingSince.IsSome() {
		p.waitingSince = container.Some(t)
	}
	p.env.Transit.Wait(p, p.currentLeg(t), t)
}

// waitDeadline 最长等候的截止时刻
func (p *Person) waitDeadline() (clock.Time, bool) {
	since, ok := p.waitingSince.Get()
	if !ok || p.env.Options.MaxWait <= 0 {
		return 0, false
	}
	return since + p.env.Options.MaxWait, true
}

// afterWaiting 候车检查后的下一状态
// 算法说明：
// 1. 车辆在站：有空位则上车，否则检索新路线
// 2. 车辆已离站，或超过最长等候时间：检索新路线
// 3. 班次取消且没有等候上限：立即检索新路线
// 4. 其余情况继续等候
func (p *Person) afterWaiting(t clock.Time) State {
	leg := p.currentLeg(t)
	transit := p.env.Transit
	if transit.IsVehicleAvailable(leg, t) {
		if transit.HasPlaceInVehicle(leg) {
			return StateBoarding
		}
		return StateSearchNewTrip
	}
	if transit.HasVehicleDeparted(leg, t) {
		return StateSearchNewTrip
	}
	deadline, limited := p.waitDeadline()
	if limited && t >= deadline {
		return StateSearchNewTrip
	}
	if _, scheduled := transit.VehicleArrival(leg); !scheduled && !limited {
		return StateSearchNewTrip
	}
	return StateWaitAtStop
}

// nextVehicleCheck 下一次候车检查的时刻：车辆到站或等候截止，取较早者
func (p *Person) nextVehicleCheck(t clock.Time) clock.Time {
	leg := p.currentLeg(t)
	arrival, scheduled := p.env.Transit.VehicleArrival(leg)
	deadline, limited := p.waitDeadline()
	switch {
	case scheduled && limited:
		return min(max(arrival, t), deadline)
	case scheduled:
		return arrival
	case limited:
		return deadline
	}
	return t
}

// changeToNewTrip 从当前站点检索新路线替换当前出行
// 说明：
// 1. 找不到路线、新路线仍从错过的班次开始、或连续检索次数过多时，从站点步行到目的地
// 2. 替换生成新的出行对象，出行ID不变
func (p *Person) changeToNewTrip(t clock.Time) {
	trip := p.currentTrip(t)
	failed := p.currentLeg(t)
	stop := entity.Location{Zone: failed.From, Point: p.env.Zones.Get(failed.From).Centroid()}
	p.waitingSince = container.None[clock.Time]()
	p.searches++
	if p.searches <= maxSearches {
		route, ok := p.env.Transit.SearchNewTrip(p, stop.Zone, trip.destination.Zone, t)
		if ok && len(route.Legs) > 0 && route.Legs[0].Journey != failed.Journey {
			next := trip.replace(stop, entity.ModePublicTransport, t, route.Arrival()-t, container.Some(route))
			p.trip = container.Some(next)
			p.legIndex = 0
			p.notify(t, p.env.Listener.NotifySelectRoute(p, next, route, t))
			return
		}
	}
	p.env.Fallbacks.walkFromStop.Add(1)
	log.Debugf("person %d: no replacement for journey %d at zone %d, walk", p.id, failed.Journey, failed.From)
	duration := p.env.Impedance.TravelTime(stop.Zone, trip.destination.Zone, entity.ModeWalk, t)
	p.trip = container.Some(trip.replace(stop, entity.ModeWalk, t, duration, container.None[entity.PublicTransportRoute]()))
	p.legIndex = 0
}

// board 尝试上车，车辆已满时记为未上车
func (p *Person) board(t clock.Time) {
	leg := p.currentLeg(t)
	p.waitingSince = container.None[clock.Time]()
	err := p.env.Transit.Board(p, leg, t)
	switch {
	case err == nil:
		p.boarded = true
		p.searches = 0
		p.notifyVehicle(entity.ModePublicTransport, leg.Journey, VehicleBoard, t)
	case errors.Is(err, vehicle.ErrCarFull):
		p.boarded = false
	default:
		p.fail(t, err)
	}
}

// getOff 下车并前进到下一路段
func (p *Person) getOff(t clock.Time) {
	leg := p.currentLeg(t)
	p.must(t, p.env.Transit.GetOff(p, leg, t))
	p.boarded = false
	p.notifyVehicle(entity.ModePublicTransport, leg.Journey, VehicleGetOff, t)
	p.legIndex++
}

// hasArrivedAtNextActivity 是否已没有剩余路段
func (p *Person) hasArrivedAtNextActivity() bool {
	route, ok := p.trip.MustGet().Route()
	return !ok || p.legIndex >= len(route.Legs)
}
