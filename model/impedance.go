package model

import (
	"math"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/demandsim/clock"
	"github.com/tsinghua-fib-lab/demandsim/entity"
	"github.com/tsinghua-fib-lab/demandsim/entity/vehicle"
	"github.com/tsinghua-fib-lab/demandsim/utils/config"
)

const (
	intrazonalDistance = 500.0 // 小区内出行的距离（米）
	defaultDetour      = 1.3
	minTravelTime      = clock.Minute
)

// 各方式默认速度（km/h）与每公里费用
var (
	defaultSpeed = map[entity.Mode]float64{
		entity.ModeWalk:            4.5,
		entity.ModeBike:            15,
		entity.ModeCar:             35,
		entity.ModePassenger:       35,
		entity.ModeCarSharingFree:  35,
		entity.ModePublicTransport: 20,
	}
	defaultCostPerKm = map[entity.Mode]float64{
		entity.ModeCar:             0.3,
		entity.ModeCarSharingFree:  0.5,
		entity.ModePublicTransport: 0.1,
	}
)

// Impedance 基于小区形心距离的出行阻抗
// 功能：按形心直线距离乘绕行系数计算距离，按方式速度计算时间，公共交通从班次登记表中检索直达班次
// 说明：只读，可被多个分片并发调用
type Impedance struct {
	zones     entity.IZoneManager
	vehicles  *vehicle.Vehicles
	journeys  []*vehicle.Journey // 按ID升序
	speed     map[entity.Mode]float64
	costPerKm map[entity.Mode]float64
	detour    float64
}

// NewImpedance 创建出行阻抗
// 参数：zones-小区管理器，vehicles-公共交通班次登记表（可为空），c-阻抗参数
func NewImpedance(zones entity.IZoneManager, vehicles *vehicle.Vehicles, c config.Impedance) (*Impedance, error) {
	imp := &Impedance{
		zones:     zones,
		vehicles:  vehicles,
		speed:     lo.Assign(defaultSpeed),
		costPerKm: lo.Assign(defaultCostPerKm),
		detour:    c.Detour,
	}
	for name, v := range c.Speed {
		m, err := entity.ParseMode(name)
		if err != nil {
			return nil, err
		}
		if v <= 0 {
			log.Warnf("impedance: ignore non-positive speed %v for %v", v, m)
			continue
		}
		imp.speed[m] = v
	}
	for name, v := range c.CostPerKm {
		m, err := entity.ParseMode(name)
		if err != nil {
			return nil, err
		}
		imp.costPerKm[m] = v
	}
	if imp.detour <= 0 {
		imp.detour = defaultDetour
	}
	if vehicles != nil {
		imp.journeys = vehicles.All()
	}
	return imp, nil
}

// Distance 路网距离（米）
func (imp *Impedance) Distance(origin, destination entity.ZoneID) float64 {
	if origin == destination {
		return intrazonalDistance
	}
	o := imp.zones.Get(origin).Centroid()
	d := imp.zones.Get(destination).Centroid()
	return math.Hypot(o.X-d.X, o.Y-d.Y) * imp.detour
}

// TravelTime 出行时间
// 说明：公共交通有路线时取路线到达时刻，否则按速度估计；不短于一分钟
func (imp *Impedance) TravelTime(origin, destination entity.ZoneID, mode entity.Mode, t clock.Time) clock.Time {
	if mode == entity.ModePublicTransport {
		if r, ok := imp.PublicTransportRoute(origin, destination, t); ok {
			return max(r.Arrival()-t, minTravelTime)
		}
	}
	speed, ok := imp.speed[mode]
	if !ok {
		speed = defaultSpeed[entity.ModeWalk]
	}
	seconds := imp.Distance(origin, destination) / (speed / 3.6)
	return max(clock.Time(math.Ceil(seconds)), minTravelTime)
}

// TravelCost 出行费用
func (imp *Impedance) TravelCost(origin, destination entity.ZoneID, mode entity.Mode, _ clock.Time) float64 {
	return imp.Distance(origin, destination) / 1000 * imp.costPerKm[mode]
}

// ParkingCost 在目的地停车duration的费用
func (imp *Impedance) ParkingCost(destination entity.ZoneID, _ clock.Time, duration clock.Time) float64 {
	return imp.zones.Get(destination).ParkingCost() * float64(duration) / float64(clock.Hour)
}

// PublicTransportRoute 检索直达班次
// 算法说明：
// 1. 候选为未取消、先经过起点再经过终点、且在起点的实际发车时刻不早于t的班次
// 2. 取在终点实际到达最早者，相同时取ID最小者
func (imp *Impedance) PublicTransportRoute(origin, destination entity.ZoneID, t clock.Time) (entity.PublicTransportRoute, bool) {
	var (
		best     entity.PublicTransportLeg
		found    bool
		earliest clock.Time
	)
	for _, j := range imp.journeys {
		if j.Cancelled() || !j.Serves(origin, destination) {
			continue
		}
		dep, _ := j.ActualDeparture(origin)
		if dep < t {
			continue
		}
		arr, _ := j.ActualArrival(destination)
		if !found || arr < earliest {
			found = true
			earliest = arr
			best = entity.PublicTransportLeg{
				Journey: j.ID(), From: origin, To: destination, Departure: dep, Arrival: arr,
			}
		}
	}
	if !found {
		return entity.PublicTransportRoute{}, false
	}
	return entity.PublicTransportRoute{Legs: []entity.PublicTransportLeg{best}}, true
}
