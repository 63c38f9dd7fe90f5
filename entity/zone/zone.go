package zone

import (
	"slices"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/demandsim/entity"
	"github.com/tsinghua-fib-lab/demandsim/utils/input"
)

// Zone 交通小区
// 功能：提供小区质心、各类活动的机会地点与吸引力、停车费、共享汽车运营范围、家庭住址
// 说明：初始化后只读
type Zone struct {
	id            entity.ZoneID
	centroid      geometry.Point
	parkingCost   float64
	opportunities map[entity.ActivityType][]geometry.Point
	attractivity  map[entity.ActivityType]float64
	freeFloating  []string
	homes         []geometry.Point
}

// newZone 根据输入数据创建小区
// 说明：未给出质心时使用边界多边形的质心；无法解析的活动类型被忽略并记录
func newZone(base input.Zone) *Zone {
	z := &Zone{
		id:            entity.ZoneID(base.ID),
		parkingCost:   base.ParkingCost,
		opportunities: make(map[entity.ActivityType][]geometry.Point),
		attractivity:  make(map[entity.ActivityType]float64),
		freeFloating:  slices.Clone(base.FreeFloating),
	}
	switch {
	case base.Centroid != nil:
		z.centroid = toPoint(*base.Centroid)
	case len(base.Boundary) > 0:
		z.centroid = geometry.GetPolygonCentroid2D(lo.Map(base.Boundary, func(p input.Point, _ int) geometry.Point {
			return toPoint(p)
		}))
	default:
		log.Warnf("zone %d: no centroid and no boundary, use origin", base.ID)
	}
	for _, o := range base.Opportunities {
		t, err := entity.ParseActivityType(o.Activity)
		if err != nil {
			log.Warnf("zone %d: ignore opportunity: %v", base.ID, err)
			continue
		}
		z.opportunities[t] = append(z.opportunities[t], toPoint(o.Location))
		z.attractivity[t] += o.Attractivity
	}
	return z
}

func toPoint(p input.Point) geometry.Point {
	return geometry.Point{X: p.X, Y: p.Y}
}

func (z *Zone) ID() entity.ZoneID {
	return z.id
}

func (z *Zone) Centroid() geometry.Point {
	return z.centroid
}

func (z *Zone) Opportunities(t entity.ActivityType) []geometry.Point {
	return z.opportunities[t]
}

func (z *Zone) Attractivity(t entity.ActivityType) float64 {
	return z.attractivity[t]
}

func (z *Zone) ParkingCost() float64 {
	return z.parkingCost
}

func (z *Zone) IsFreeFloatingArea(provider string) bool {
	return slices.Contains(z.freeFloating, provider)
}

func (z *Zone) Homes() []geometry.Point {
	return z.homes
}
