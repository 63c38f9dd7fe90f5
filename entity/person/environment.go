package person

import (
	"sync/atomic"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/demandsim/clock"
	"github.com/tsinghua-fib-lab/demandsim/entity"
	"github.com/tsinghua-fib-lab/demandsim/entity/person/schedule"
	"github.com/tsinghua-fib-lab/demandsim/entity/vehicle"
)

const (
	// rideLead 拼车乘客须早于司机到达的时长
	rideLead = clock.Minute
	// tripsPerPerson 每人的出行ID区间长度，出行ID = 人员ID*tripsPerPerson + 序号
	tripsPerPerson = 1 << 20
)

// Options 人员行为开关
type Options struct {
	Seed              uint64        // 全局随机数种子
	Modes             []entity.Mode // 允许的出行方式
	PassengerAsOption bool          // 是否允许选择搭车
	RideSharing       bool          // 是否启用拼车报价板
	MaxMinutesLate    clock.Time    // 乘客最多晚于司机出发多久仍可搭车
	MaxWait           clock.Time    // 公共交通站点最长等候时间
}

// Environment 人员状态机依赖的全部外部协作者
// 说明：除登记表与报价板外均为只读，可被所有分片共享
type Environment struct {
	Clock             *clock.Clock
	Zones             entity.IZoneManager
	Impedance         entity.IImpedance
	DestinationChoice entity.IDestinationChoiceModel
	ModeChoice        entity.IModeChoiceModel
	Rescheduling      schedule.IReschedulingStrategy
	Listener          *Broadcaster
	RideOffers        *vehicle.RideSharingOffers
	Transit           IPublicTransportBehaviour
	FreeFloating      []*vehicle.FreeFloatingPool // 按服务商名称排序
	Fallbacks         *Fallbacks
	Options           Options
}

// Fallbacks 因数据缺失或资源竞争而退回默认行为的次数
type Fallbacks struct {
	centroid     atomic.Int64 // 小区内无可用地点，使用形心
	noRoute      atomic.Int64 // 无公共交通路线，改为步行
	noSharedCar  atomic.Int64 // 共享汽车被他人抢先预订，改为步行
	noRide       atomic.Int64 // 无匹配的拼车报价，按无车辆的搭车处理
	walkFromStop atomic.Int64 // 换乘失败，从站点步行到目的地
}

// Counts 各类退回次数
func (f *Fallbacks) Counts() map[string]int64 {
	return map[string]int64{
		"centroid":       f.centroid.Load(),
		"no_route":       f.noRoute.Load(),
		"no_shared_car":  f.noSharedCar.Load(),
		"no_ride":        f.noRide.Load(),
		"walk_from_stop": f.walkFromStop.Load(),
	}
}

func (env *Environment) hasMode(m entity.Mode) bool {
	return lo.Contains(env.Options.Modes, m)
}

// pool 服务商对应的共享汽车池
func (env *Environment) pool(provider string) (*vehicle.FreeFloatingPool, bool) {
	for _, p := range env.FreeFloating {
		if p.Provider() == provider {
			return p, true
		}
	}
	return nil, false
}
