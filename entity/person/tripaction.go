package person

import (
	"fmt"

	"github.com/tsinghua-fib-lab/demandsim/clock"
	"github.com/tsinghua-fib-lab/demandsim/entity"
	"github.com/tsinghua-fib-lab/demandsim/entity/person/schedule"
	"github.com/tsinghua-fib-lab/demandsim/entity/vehicle"
	"github.com/tsinghua-fib-lab/demandsim/utils/container"
)

// prepareTrip 创建出行并取得所选方式需要的车辆
// 算法说明：
// 1. 公共交通：检索路线，没有路线时改为步行
// 2. 汽车：取回停放的车辆，或从家庭汽车池取车
// 3. 共享汽车：取回停放的车辆，或在出发小区预订，被他人抢先时改为步行
// 4. 自行车：取回停放的或骑自己的自行车
// 5. 搭车：匹配拼车报价，成功时乘坐司机的车并在司机到达前下车；否则由模拟范围外的司机搭载
func (p *Person) prepareTrip(previous, next *schedule.Activity, origin, destination entity.Location, mode entity.Mode, t clock.Time) {
	route := container.None[entity.PublicTransportRoute]()
	duration := clock.Time(-1)
	switch mode {
	case entity.ModePublicTransport:
		if r, ok := p.env.Transit.SearchNewTrip(p, origin.Zone, destination.Zone, t); ok && len(r.Legs) > 0 {
			route = container.Some(r)
			duration = r.Arrival() - t
		} else {
			p.env.Fallbacks.noRoute.Add(1)
			log.Debugf("person %d: no public transport route %d->%d at %v, walk", p.id, origin.Zone, destination.Zone, t)
			mode = entity.ModeWalk
		}
	case entity.ModeCar:
		p.takeCar(t)
	case entity.ModeCarSharingFree:
		if !p.takeSharedCar(origin.Zone, t) {
			p.env.Fallbacks.noSharedCar.Add(1)
			log.Debugf("person %d: no shared car in zone %d at %v, walk", p.id, origin.Zone, t)
			mode = entity.ModeWalk
		}
	case entity.ModeBike:
		p.takeBike(t)
	case entity.ModePassenger:
		if dropOff, ok := p.acceptRide(origin.Zone, destination.Zone, t); ok {
			duration = dropOff - t
		}
	}
	if duration < 0 {
		duration = p.env.Impedance.TravelTime(origin.Zone, destination.Zone, mode, t)
	}
	p.trip = container.Some(newTrip(p.trips.Next(), previous, next, origin, destination, mode, t, duration, route))
	p.legIndex = 0
	p.searches = 0
}

func (p *Person) takeCar(t clock.Time) {
	if p.cars.Usage() == CarParked {
		p.must(t, p.cars.TakeCarFromParking())
		p.notifyCar(entity.ModeCar, VehicleTakeFromParking, t)
		return
	}
	if p.fleet == nil {
		p.fail(t, fmt.Errorf("car: %w", ErrNoVehicle))
	}
	c, ok := p.fleet.Take(p.id)
	if !ok {
		p.fail(t, fmt.Errorf("household %d car: %w", p.household, ErrNoVehicle))
	}
	p.must(t, p.cars.UseCar(c))
	p.notifyCar(entity.ModeCar, VehicleUse, t)
}

func (p *Person) takeSharedCar(zone entity.ZoneID, t clock.Time) bool {
	if p.cars.Usage() == CarParked {
		p.must(t, p.cars.TakeCarFromParking())
		p.notifyCar(entity.ModeCarSharingFree, VehicleTakeFromParking, t)
		return true
	}
	for _, pool := range p.env.FreeFloating {
		if !p.IsMobilityProviderCustomer(pool.Provider()) {
			continue
		}
		if c, ok := pool.Book(zone); ok {
			p.must(t, p.cars.UseCar(c))
			p.notifyCar(entity.ModeCarSharingFree, VehicleUse, t)
			return true
		}
	}
	return false
}

func (p *Person) takeBike(t clock.Time) {
	if p.bikes.Usage() == BikeParked {
		p.must(t, p.bikes.TakeBikeFromParking())
	} else {
		b, ok := p.bike.Get()
		if !ok {
			p.fail(t, fmt.Errorf("bike: %w", ErrNoVehicle))
		}
		p.must(t, p.bikes.UseBike(b))
	}
	p.notifyVehicle(entity.ModeBike, p.id, VehicleUse, t)
}

// acceptRide 接受拼车报价
// 返回：下车时刻与是否成功
// 说明：下车时刻早于司机到达，且位于司机到达所在时间片之前，保证司机还车时车上已无乘客
func (p *Person) acceptRide(origin, destination entity.ZoneID, t clock.Time) (clock.Time, bool) {
	if !p.env.Options.RideSharing || !p.caps.Has(entity.CapabilityRideShareEligible) {
		return 0, false
	}
	o, ok := p.env.RideOffers.Matching(origin, destination, t, p.env.Options.MaxMinutesLate, rideLead)
	if !ok {
		p.env.Fallbacks.noRide.Add(1)
		return 0, false
	}
	dropOff := min(o.End-rideLead, p.env.Clock.SliceStart(o.End)-1)
	if dropOff <= t || !p.env.RideOffers.Take(o) {
		p.env.Fallbacks.noRide.Add(1)
		return 0, false
	}
	p.must(t, p.cars.UseCarAsPassenger(o.Car))
	p.ride = container.Some(o)
	p.notifyCar(entity.ModePassenger, VehicleUseAsPassenger, t)
	return dropOff, true
}

// startTrip 出发
// 功能：记录实际出发时刻，司机累计里程并发布拼车报价，通知监听器
// 说明：公共交通出行换乘时不会再次出发
func (p *Person) startTrip(t clock.Time) {
	if p.started.IsSome() {
		return
	}
	trip := p.currentTrip(t)
	started := StartedTrip{Trip: trip, Start: t}
	if c, ok := p.cars.Car(); ok {
		started.Vehicle = container.Some(c.ID())
		if p.cars.Usage() == CarDriver {
			c.Drive(p.env.Impedance.Distance(trip.origin.Zone, trip.destination.Zone))
			p.offerRide(trip, c, t)
		}
	}
	if route, ok := trip.Route(); ok {
		started.Vehicle = container.Some(route.Legs[0].Journey)
		p.notify(t, p.env.Listener.NotifySelectRoute(p, trip, route, t))
	}
	p.started = container.Some(started)
	p.notify(t, p.env.Listener.NotifyStartTrip(p, started))
}

// offerRide 司机发布拼车报价
func (p *Person) offerRide(trip *Trip, c *vehicle.Car, t clock.Time) {
	if !p.env.Options.RideSharing || trip.mode != entity.ModeCar ||
		!p.caps.Has(entity.CapabilityRideShareEligible) || !c.CanCarryPassengers() {
		return
	}
	o := &vehicle.RideOffer{
		Driver:      p.id,
		Trip:        trip.id,
		Car:         c,
		Origin:      trip.origin.Zone,
		Destination: trip.destination.Zone,
		Start:       t,
		End:         trip.PlannedEnd(),
	}
	p.env.RideOffers.Add(o)
	p.offer = container.Some(o)
}

// endTrip 到达
// 功能：结束出行，归还或停放车辆，通知监听器，并开始下一个活动
// 说明：出行必须有明确的下一个活动，否则为致命错误
func (p *Person) endTrip(t clock.Time) {
	trip := p.currentTrip(t)
	next := trip.next
	if next == nil {
		p.fail(t, fmt.Errorf("%v: %w", trip, ErrNoNextActivity))
	}
	started, ok := p.started.Get()
	if !ok {
		p.fail(t, fmt.Errorf("end %v before start: %w", trip, ErrNoTrip))
	}
	p.leaveVehicles(trip, t)
	finished := FinishedTrip{
		StartedTrip: started,
		End:         t,
		FinalLeg:    trip.leg,
		Distance:    p.env.Impedance.Distance(started.origin.Zone, trip.destination.Zone),
	}
	p.trip = container.None[*Trip]()
	p.started = container.None[StartedTrip]()
	p.notify(t, p.env.Listener.NotifyEndTrip(p, finished))
	p.schedule.StartActivity(next, t, started.mode, p.env.Rescheduling)
	p.notify(t, p.env.Listener.NotifyStartActivity(p, next, t))
}

// leaveVehicles 出行结束时处置车辆
// 算法说明：
// 1. 私家车：撤回未被接受的报价，归还家庭汽车池
// 2. 共享汽车：终点在运营范围内时还车，否则停放并由下一次出行继续使用
// 3. 搭车：下车
// 4. 自行车：到家时归还，否则停放
func (p *Person) leaveVehicles(trip *Trip, t clock.Time) {
	if o, ok := p.offer.Get(); ok {
		p.env.RideOffers.Revoke(o)
		p.offer = container.None[*vehicle.RideOffer]()
	}
	switch p.cars.Usage() {
	case CarDriver:
		c, _ := p.cars.Car()
		if c.Kind() == vehicle.CarShared {
			pool, ok := p.env.pool(c.Provider())
			if !ok || !pool.IsFreeFloatingZone(trip.destination.Zone) {
				p.must(t, p.cars.ParkCar())
				p.notifyCar(entity.ModeCarSharingFree, VehiclePark, t)
				break
			}
			_, err := p.cars.ReleaseCar()
			p.must(t, err)
			pool.Return(c, trip.destination.Zone)
			p.notifyVehicle(entity.ModeCarSharingFree, c.ID(), VehicleRelease, t)
			break
		}
		_, err := p.cars.ReleaseCar()
		p.must(t, err)
		p.fleet.Return(c)
		p.notifyVehicle(entity.ModeCar, c.ID(), VehicleRelease, t)
	case CarPassenger:
		c, err := p.cars.ReleaseCar()
		p.must(t, err)
		p.ride = container.None[*vehicle.RideOffer]()
		p.notifyVehicle(entity.ModePassenger, c.ID(), VehicleRelease, t)
	}
	if p.bikes.Usage() == BikeDriver {
		action := VehiclePark
		if trip.next.ActivityType().IsHome() {
			_, err := p.bikes.ReleaseBike()
			p.must(t, err)
			action = VehicleRelease
		} else {
			p.must(t, p.bikes.ParkBike())
		}
		p.notifyVehicle(entity.ModeBike, p.id, action, t)
	}
}

func (p *Person) notifyCar(mode entity.Mode, action VehicleAction, t clock.Time) {
	c, ok := p.cars.Car()
	if !ok {
		p.fail(t, fmt.Errorf("notify %v: %w", action, ErrNoVehicle))
	}
	p.notifyVehicle(mode, c.ID(), action, t)
}

func (p *Person) notifyVehicle(mode entity.Mode, id int32, action VehicleAction, t clock.Time) {
	p.notify(t, p.env.Listener.NotifyVehicleUsage(p, VehicleUsage{
		Time: t, Mode: mode, Vehicle: id, Action: action,
	}))
}
