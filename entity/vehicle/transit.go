package vehicle

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/tsinghua-fib-lab/demandsim/clock"
	"github.com/tsinghua-fib-lab/demandsim/entity"
)

// StopTime 班次在一个站点的计划时刻
type StopTime struct {
	Zone      entity.ZoneID
	Arrival   clock.Time
	Departure clock.Time
}

// Journey 公共交通班次
// 说明：时刻表只读；车上人数在锁保护下变化
type Journey struct {
	id        int32
	capacity  int32
	delay     clock.Time
	cancelled bool
	stops     []StopTime

	mtx     sync.Mutex
	onboard []int32
	boarded int64 // 累计上车人次
}

// NewJourney 创建班次
func NewJourney(id, capacity int32, delay clock.Time, cancelled bool, stops []StopTime) *Journey {
	return &Journey{
		id:        id,
		capacity:  capacity,
		delay:     delay,
		cancelled: cancelled,
		stops:     stops,
	}
}

func (j *Journey) ID() int32 {
	return j.id
}

func (j *Journey) Stops() []StopTime {
	return j.stops
}

func (j *Journey) Cancelled() bool {
	return j.cancelled
}

// stop 查找站点，从第from个站开始
func (j *Journey) stop(zone entity.ZoneID, from int) (int, bool) {
	for i := from; i < len(j.stops); i++ {
		if j.stops[i].Zone == zone {
			return i, true
		}
	}
	return -1, false
}

// ActualDeparture 在某站的实际发车时刻（计划时刻加延误）
func (j *Journey) ActualDeparture(zone entity.ZoneID) (clock.Time, bool) {
	i, ok := j.stop(zone, 0)
	if !ok {
		return 0, false
	}
	return j.stops[i].Departure + j.delay, true
}

// ActualArrival 在某站的实际到达时刻
func (j *Journey) ActualArrival(zone entity.ZoneID) (clock.Time, bool) {
	i, ok := j.stop(zone, 0)
	if !ok {
		return 0, false
	}
	return j.stops[i].Arrival + j.delay, true
}

// Serves 班次是否先经过from再经过to
func (j *Journey) Serves(from, to entity.ZoneID) bool {
	i, ok := j.stop(from, 0)
	if !ok {
		return false
	}
	_, ok = j.stop(to, i+1)
	return ok
}

// Onboard 车上人数
func (j *Journey) Onboard() int {
	j.mtx.Lock()
	defer j.mtx.Unlock()
	return len(j.onboard)
}

// Boarded 累计上车人次
func (j *Journey) Boarded() int64 {
	j.mtx.Lock()
	defer j.mtx.Unlock()
	return j.boarded
}

// Vehicles 公共交通车辆登记表
// 功能：跨分片共享的班次集合，提供发车查询与上下车
// 说明：时刻查询无锁并发；上下车在班次锁内完成，容量不足时先到者得座
type Vehicles struct {
	journeys map[int32]*Journey
	ids      []int32
}

// NewVehicles 创建登记表
func NewVehicles(journeys []*Journey) *Vehicles {
	v := &Vehicles{journeys: make(map[int32]*Journey, len(journeys))}
	for _, j := range journeys {
		v.journeys[j.id] = j
		v.ids = append(v.ids, j.id)
	}
	sort.Slice(v.ids, func(a, b int) bool { return v.ids[a] < v.ids[b] })
	return v
}

// Get 查找班次，如果不存在则panic
func (v *Vehicles) Get(id int32) *Journey {
	j, ok := v.journeys[id]
	if !ok {
		log.Panicf("no id %d in journey data", id)
	}
	return j
}

// All 全部班次（按ID升序）
func (v *Vehicles) All() []*Journey {
	res := make([]*Journey, len(v.ids))
	for i, id := range v.ids {
		res[i] = v.journeys[id]
	}
	return res
}

// HasDeparted 班次是否已从该站发车
// 说明：取消的班次永远不会发车
func (v *Vehicles) HasDeparted(journey int32, zone entity.ZoneID, now clock.Time) bool {
	j := v.Get(journey)
	if j.cancelled {
		return false
	}
	dep, ok := j.ActualDeparture(zone)
	return ok && now > dep
}

// IsAvailable 班次此刻是否停靠在该站
func (v *Vehicles) IsAvailable(journey int32, zone entity.ZoneID, now clock.Time) bool {
	j := v.Get(journey)
	if j.cancelled {
		return false
	}
	arr, ok := j.ActualArrival(zone)
	if !ok {
		return false
	}
	dep, _ := j.ActualDeparture(zone)
	return now >= arr && now <= dep
}

// HasPlace 班次是否还有空位
func (v *Vehicles) HasPlace(journey int32) bool {
	j := v.Get(journey)
	j.mtx.Lock()
	defer j.mtx.Unlock()
	return int32(len(j.onboard)) < j.capacity
}

// Board 上车
func (v *Vehicles) Board(journey int32, person int32) error {
	j := v.Get(journey)
	j.mtx.Lock()
	defer j.mtx.Unlock()
	if slices.Contains(j.onboard, person) {
		return fmt.Errorf("journey %d: person %d: %w", journey, person, ErrCarInUse)
	}
	if int32(len(j.onboard)) >= j.capacity {
		return fmt.Errorf("journey %d: person %d: %w", journey, person, ErrCarFull)
	}
	j.onboard = append(j.onboard, person)
	j.boarded++
	return nil
}

// GetOff 下车
func (v *Vehicles) GetOff(journey int32, person int32) error {
	j := v.Get(journey)
	j.mtx.Lock()
	defer j.mtx.Unlock()
	i := slices.Index(j.onboard, person)
	if i < 0 {
		return fmt.Errorf("journey %d: %d: %w", journey, person, ErrNotPassenger)
	}
	j.onboard = slices.Delete(j.onboard, i, i+1)
	return nil
}
