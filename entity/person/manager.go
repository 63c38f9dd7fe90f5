package person

import (
	"fmt"
	"sort"
	"sync"

	"git.fiblab.net/general/common/v2/parallel"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/demandsim/clock"
	"github.com/tsinghua-fib-lab/demandsim/entity"
	"github.com/tsinghua-fib-lab/demandsim/entity/vehicle"
	"github.com/tsinghua-fib-lab/demandsim/utils/input"
)

// GlobalRuntime 全局运行时数据结构
// 功能：管理全局运行时数据，包括完成出行数、总出行时间、总出行距离
type GlobalRuntime struct {
	NumCompletedTrips int32      // 已完成的出行
	TravelTime        clock.Time // 总出行时间
	TravelDistance    float64    // 总出行距离
	ModeTrips         map[entity.Mode]int32
}

// PersonManager Person管理器
// 功能：按住址小区把人员划分为分片，按时间片并行推进各分片，并统计已完成的出行
type PersonManager struct {
	ListenerBase

	env *Environment

	data    map[int32]*Person
	persons []*Person // 按ID升序
	shards  []*Shard  // 按小区ID升序

	snapshot, runtime GlobalRuntime
	runtimeMtx        sync.Mutex
}

// NewManager 创建Person管理器实例
// 功能：建立家庭汽车池与人员，按住址小区分片，并把自身注册为统计监听器
// 参数：env-外部协作者，in-输入数据
// 返回：Person管理器，人员数据无法解析时返回错误
func NewManager(env *Environment, in *input.Input) (*PersonManager, error) {
	if env.Fallbacks == nil {
		env.Fallbacks = &Fallbacks{}
	}
	m := &PersonManager{
		env:     env,
		data:    make(map[int32]*Person, in.NumPersons()),
		runtime: GlobalRuntime{ModeTrips: make(map[entity.Mode]int32)},
	}
	byZone := make(map[entity.ZoneID][]*Person)
	for _, h := range in.Households {
		fleet := newFleet(h)
		for _, base := range h.Persons {
			p, err := NewPerson(env, h, base, fleet, in.Patterns.Resolve(base.ID, base.Pattern))
			if err != nil {
				return nil, err
			}
			if _, ok := m.data[p.id]; ok {
				return nil, fmt.Errorf("duplicated person id %d", p.id)
			}
			m.data[p.id] = p
			byZone[p.home.Zone] = append(byZone[p.home.Zone], p)
		}
	}
	m.persons = lo.Values(m.data)
	sort.Slice(m.persons, func(i, j int) bool { return m.persons[i].id < m.persons[j].id })
	zones := lo.Keys(byZone)
	sort.Slice(zones, func(i, j int) bool { return zones[i] < zones[j] })
	m.shards = lo.Map(zones, func(z entity.ZoneID, _ int) *Shard {
		return newShard(z, byZone[z], env.Clock.Start)
	})
	env.Listener.Add(m)
	log.Infof("PersonManager: %d persons in %d shards", len(m.persons), len(m.shards))
	return m, nil
}

// newFleet 创建家庭汽车池，成员专属车辆按personal_car登记
func newFleet(h input.Household) *vehicle.HouseholdFleet {
	cars := lo.Map(h.Cars, func(c input.Car, _ int) *vehicle.Car {
		return vehicle.NewPrivateCar(c.ID, h.ID, c.Seats)
	})
	personal := make(map[int32]int32)
	for _, p := range h.Persons {
		if p.PersonalCar != nil {
			personal[*p.PersonalCar] = p.ID
		}
	}
	return vehicle.NewHouseholdFleet(h.ID, cars, personal)
}

// Init 所有人员开始第一个活动
func (m *PersonManager) Init() {
	start := m.env.Clock.Start
	parallel.GoFor(m.shards, func(s *Shard) { s.init(start) })
}

// Get 根据ID获取Person实例
// 功能：通过Person ID查找对应的Person对象，如果不存在则panic
func (m *PersonManager) Get(id int32) *Person {
	if p, ok := m.data[id]; !ok {
		log.Panicf("no id %d in person data", id)
		return nil
	} else {
		return p
	}
}

// GetOrError 根据ID获取Person实例（带错误处理）
func (m *PersonManager) GetOrError(id int32) (*Person, error) {
	if p, ok := m.data[id]; !ok {
		return nil, fmt.Errorf("no id %d in person data", id)
	} else {
		return p, nil
	}
}

// All 按ID升序的全部人员
func (m *PersonManager) All() []*Person {
	return m.persons
}

// Shards 按小区ID升序的全部分片
func (m *PersonManager) Shards() []*Shard {
	return m.shards
}

// 准备阶段：拼车报价生效，更新统计快照
func (m *PersonManager) Prepare() {
	m.env.RideOffers.Prepare()
	m.runtimeMtx.Lock()
	m.snapshot = m.runtime
	m.snapshot.ModeTrips = lo.Assign(m.runtime.ModeTrips)
	m.runtimeMtx.Unlock()
	log.Debug("PersonManager: prepare done")
}

// 更新阶段：各分片并行处理早于limit的事件
// 返回：处理的事件总数
func (m *PersonManager) Update(limit clock.Time) int {
	counts := parallel.GoMap(m.shards, func(s *Shard) int { return s.ProcessUntil(limit) })
	return lo.Sum(counts)
}

// Pending 全部分片的待处理事件数
func (m *PersonManager) Pending() int {
	return lo.SumBy(m.shards, func(s *Shard) int { return s.Pending() })
}

// Idle 是否所有分片都没有早于limit的事件
func (m *PersonManager) Idle(limit clock.Time) bool {
	return lo.EveryBy(m.shards, func(s *Shard) bool { return s.Idle(limit) })
}

// Runtime 上一个时间片边界的统计快照
func (m *PersonManager) Runtime() GlobalRuntime {
	m.runtimeMtx.Lock()
	defer m.runtimeMtx.Unlock()
	return m.snapshot
}

// NotifyEndTrip 记录出行结束
func (m *PersonManager) NotifyEndTrip(_ entity.IPerson, trip FinishedTrip) error {
	m.runtimeMtx.Lock()
	defer m.runtimeMtx.Unlock()
	m.runtime.NumCompletedTrips++
	m.runtime.TravelTime += trip.Duration()
	m.runtime.TravelDistance += trip.Distance
	m.runtime.ModeTrips[trip.Mode()]++
	return nil
}

// NotifyFinishSimulation 输出统计与数据缺失情况
func (m *PersonManager) NotifyFinishSimulation() error {
	m.runtimeMtx.Lock()
	r := m.runtime
	m.runtimeMtx.Unlock()
	log.Infof("PersonManager: %d trips, travel time %ds, distance %.0fm", r.NumCompletedTrips, int64(r.TravelTime), r.TravelDistance)
	for _, mode := range entity.AllModes {
		if n := r.ModeTrips[mode]; n > 0 {
			log.Infof("PersonManager: %v %d trips", mode, n)
		}
	}
	finished := lo.CountBy(m.persons, func(p *Person) bool { return p.finished })
	log.Infof("PersonManager: %d of %d persons finished their schedule", finished, len(m.persons))
	counts := m.env.Fallbacks.Counts()
	keys := lo.Keys(counts)
	sort.Strings(keys)
	for _, k := range keys {
		if v := counts[k]; v > 0 {
			log.Warnf("PersonManager: fallback %s used %d times", k, v)
		}
	}
	return nil
}
