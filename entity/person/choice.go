package person

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/demandsim/clock"
	"github.com/tsinghua-fib-lab/demandsim/entity"
	"github.com/tsinghua-fib-lab/demandsim/entity/person/schedule"
	"github.com/tsinghua-fib-lab/demandsim/entity/vehicle"
)

// selectDestinationAndMode 为下一个活动选择目的地与出行方式并准备出行
// 说明：下一个活动已有地点时不再选择目的地，保证重排程重放本转换时结果不变
func (p *Person) selectDestinationAndMode(t clock.Time) {
	previous, ok := p.schedule.Current()
	if !ok {
		p.fail(t, fmt.Errorf("select destination: %w", ErrNoNextActivity))
	}
	next, ok := p.schedule.Next(previous)
	if !ok {
		p.fail(t, fmt.Errorf("select destination after %v: %w", previous, ErrNoNextActivity))
	}
	if previous.ActivityType().IsHome() {
		p.tourMode = entity.ModeUnknown
	}
	if !next.IsLocationSet() {
		next.SetLocation(p.selectDestination(previous, next, t))
	}
	origin, _ := previous.Location()
	destination, _ := next.Location()
	mode := p.selectMode(previous, next, origin.Zone, destination.Zone, t)
	if p.tourMode == entity.ModeUnknown {
		p.tourMode = mode
	}
	p.prepareTrip(previous, next, origin, destination, mode, t)
}

// selectDestination 确定活动地点
// 算法说明：
// 1. 在家与固定地点活动直接使用住址或固定目的地
// 2. 其他活动先由目的地选择模型选出小区，再在小区内选择具体地点
func (p *Person) selectDestination(previous, next *schedule.Activity, t clock.Time) entity.Location {
	if l, ok := p.anchorLocation(next.ActivityType(), t); ok {
		return l
	}
	zone := p.env.DestinationChoice.SelectDestination(p, p.tourMode, previous, next, p.generator.Float64())
	return p.locate(next.ActivityType(), zone, p.generator.Float64())
}

// locate 在小区内为活动选择具体地点
// 说明：
// 1. 私人拜访优先选择小区内的家庭住址
// 2. 其次选择该类活动的机会地点
// 3. 都没有时使用小区形心，记录缺失数据
func (p *Person) locate(t entity.ActivityType, zone entity.ZoneID, draw float64) entity.Location {
	z := p.env.Zones.Get(zone)
	if t == entity.ActivityPrivateVisit {
		if homes := z.Homes(); len(homes) > 0 {
			return entity.Location{Zone: zone, Point: homes[drawIndex(len(homes), draw)]}
		}
	}
	if ops := z.Opportunities(t); len(ops) > 0 {
		return entity.Location{Zone: zone, Point: ops[drawIndex(len(ops), draw)]}
	}
	p.env.Fallbacks.centroid.Add(1)
	log.Warnf("person %d: zone %d has no location for %v, use centroid", p.id, zone, t)
	return entity.Location{Zone: zone, Point: z.Centroid()}
}

func drawIndex(n int, draw float64) int {
	return min(int(draw*float64(n)), n-1)
}

// availableModes 当前可用的出行方式集合
// 说明：
// 1. 停放着的汽车或自行车强制本次出行继续使用该车
// 2. 其余方式按能力、车辆可用性与配置筛选，顺序固定
func (p *Person) availableModes(origin entity.ZoneID) []entity.Mode {
	if p.cars.Usage() == CarParked {
		c, _ := p.cars.Car()
		if c.Kind() == vehicle.CarShared {
			return []entity.Mode{entity.ModeCarSharingFree}
		}
		return []entity.Mode{entity.ModeCar}
	}
	if p.bikes.Usage() == BikeParked {
		return []entity.Mode{entity.ModeBike}
	}
	return lo.Filter(entity.AllModes, func(m entity.Mode, _ int) bool {
		if !p.env.hasMode(m) {
			return false
		}
		switch m {
		case entity.ModeWalk:
			return true
		case entity.ModeBike:
			return p.bike.IsSome()
		case entity.ModeCar:
			return p.caps.Has(entity.CapabilityCanDrive) && p.fleet != nil && p.fleet.IsAvailable(p.id)
		case entity.ModePassenger:
			return p.env.Options.PassengerAsOption
		case entity.ModePublicTransport:
			return p.caps.Has(entity.CapabilityUsesPublicTransport)
		case entity.ModeCarSharingFree:
			return p.caps.Has(entity.CapabilityCanDrive) && lo.ContainsBy(p.env.FreeFloating, func(pool *vehicle.FreeFloatingPool) bool {
				return p.IsMobilityProviderCustomer(pool.Provider()) && pool.IsAvailable(origin)
			})
		}
		return false
	})
}

// selectMode 选择出行方式
// 说明：无论选择集大小都消耗一个随机数，使随机数序列与选择集无关
func (p *Person) selectMode(previous, next *schedule.Activity, origin, destination entity.ZoneID, t clock.Time) entity.Mode {
	choiceSet := p.availableModes(origin)
	draw := p.generator.Float64()
	if len(choiceSet) == 0 {
		// 配置中不含步行时仍需到达下一个活动
		return entity.ModeWalk
	}
	if len(choiceSet) == 1 {
		return choiceSet[0]
	}
	mode := p.env.ModeChoice.SelectMode(p, origin, destination, previous, next, choiceSet, draw)
	if !lo.Contains(choiceSet, mode) {
		p.fail(t, fmt.Errorf("%v not in %v: %w", mode, choiceSet, ErrModeNotAvailable))
	}
	return mode
}
